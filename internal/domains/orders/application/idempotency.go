package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
)

type normalizedCreateOrderInput struct {
	UserID        string               `json:"userId"`
	CartID        string               `json:"cartId"`
	Items         []normalizedLineItem `json:"items"`
	Address       []normalizedAttrKV   `json:"address,omitempty"`
	PaymentMethod string               `json:"paymentMethod"`
	TotalAmount   string               `json:"totalAmount"`
}

type normalizedLineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type normalizedAttrKV struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// FingerprintCreateOrder builds a deterministic hash of the checkout payload
// (excluding the idempotency key, status fields and client timestamps).
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateOrderInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateOrderInput(input ordertypes.CreateOrderInput) normalizedCreateOrderInput {
	normalized := normalizedCreateOrderInput{
		UserID:        strings.TrimSpace(input.UserID),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		TotalAmount:   input.TotalAmount.String(),
		Items:         make([]normalizedLineItem, 0, len(input.Items)),
		Address:       normalizeAddress(input.Address),
	}
	if input.CartID != nil {
		normalized.CartID = strings.TrimSpace(*input.CartID)
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedLineItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			Price:     item.Price.String(),
		})
	}
	return normalized
}

func normalizeAddress(addr map[string]any) []normalizedAttrKV {
	if len(addr) == 0 {
		return nil
	}
	attrs := make([]normalizedAttrKV, 0, len(addr))
	for k, v := range addr {
		attrs = append(attrs, normalizedAttrKV{Key: k, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs
}
