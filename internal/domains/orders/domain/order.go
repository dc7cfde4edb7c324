package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus enumerates order progression.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus enumerates the payment state recorded on an order.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var (
	ErrInvalidAmount   = errors.New("invalid total amount")
	ErrAmountMismatch  = errors.New("total amount does not match line items")
	ErrMissingUser     = errors.New("user id is required")
	ErrEmptyCart       = errors.New("order must contain at least one item")
	ErrInvalidProduct  = errors.New("line item product id is required")
	ErrInvalidQuantity = errors.New("line item quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("line item price must not be negative")
	ErrInvalidStatus   = errors.New("order status is invalid")
)

// LineItem is one cart entry carried into the order.
type LineItem struct {
	ProductID string
	Title     string
	Image     string
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Address is the opaque shipping blob supplied by the client.
type Address map[string]any

// Order models a placed purchase order.
type Order struct {
	ID              string
	UserID          string
	CartID          *string
	Items           []LineItem
	Address         Address
	OrderStatus     OrderStatus
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	TotalAmount     decimal.Decimal
	OrderDate       time.Time
	OrderUpdateDate time.Time
}

// Draft carries the client-supplied fields of a new order.
type Draft struct {
	UserID          string
	CartID          *string
	Items           []LineItem
	Address         Address
	PaymentMethod   string
	TotalAmount     decimal.Decimal
	OrderDate       time.Time
	OrderUpdateDate time.Time
}

// NewOrder validates a draft and builds an order with a fresh identifier.
// Status fields are left empty; a StatusPolicy decides them.
func NewOrder(draft Draft, now time.Time) (*Order, error) {
	if err := ValidateAmount(draft.TotalAmount); err != nil {
		return nil, err
	}
	order := &Order{
		ID:              uuid.NewString(),
		UserID:          strings.TrimSpace(draft.UserID),
		CartID:          normalizeCartID(draft.CartID),
		Items:           cloneItems(draft.Items),
		Address:         cloneAddress(draft.Address),
		PaymentMethod:   strings.TrimSpace(draft.PaymentMethod),
		TotalAmount:     draft.TotalAmount,
		OrderDate:       draft.OrderDate,
		OrderUpdateDate: draft.OrderUpdateDate,
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	if order.OrderUpdateDate.IsZero() {
		order.OrderUpdateDate = order.OrderDate
	}
	if err := order.validateContents(); err != nil {
		return nil, err
	}
	return order, nil
}

// ValidateAmount rejects missing, zero and negative totals.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Validate enforces invariants on a fully built order.
func (o *Order) Validate() error {
	if err := ValidateAmount(o.TotalAmount); err != nil {
		return err
	}
	if err := o.validateContents(); err != nil {
		return err
	}
	if !isValidOrderStatus(o.OrderStatus) || !isValidPaymentStatus(o.PaymentStatus) {
		return ErrInvalidStatus
	}
	return nil
}

func (o *Order) validateContents() error {
	if o.UserID == "" {
		return ErrMissingUser
	}
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range o.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ErrInvalidProduct
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return ErrInvalidPrice
		}
	}
	return nil
}

// ItemsTotal sums price times quantity over all line items.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalMatchesItems reports whether the claimed total equals the line item sum.
func (o *Order) TotalMatchesItems() bool {
	return o.TotalAmount.Equal(o.ItemsTotal())
}

// Clone returns a deep copy safe to hand across store boundaries.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.CartID = normalizeCartID(o.CartID)
	clone.Items = cloneItems(o.Items)
	clone.Address = cloneAddress(o.Address)
	return &clone
}

func isValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func isValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

func normalizeCartID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	return append([]LineItem(nil), items...)
}

func cloneAddress(addr Address) Address {
	if addr == nil {
		return nil
	}
	copy := make(Address, len(addr))
	for k, v := range addr {
		copy[k] = cloneValue(v)
	}
	return copy
}

// cloneValue copies the nested maps and slices a decoded JSON document holds.
func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		copy := make(map[string]any, len(typed))
		for k, inner := range typed {
			copy[k] = cloneValue(inner)
		}
		return copy
	case Address:
		return cloneAddress(typed)
	case []any:
		copy := make([]any, len(typed))
		for i, inner := range typed {
			copy[i] = cloneValue(inner)
		}
		return copy
	default:
		return v
	}
}
