package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

// CartItem is a cart line as sent by the storefront.
type CartItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	UserID          string          `json:"userId"`
	CartID          *string         `json:"cartId"`
	CartItems       []CartItem      `json:"cartItems"`
	AddressInfo     map[string]any  `json:"addressInfo"`
	OrderStatus     string          `json:"orderStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	OrderDate       *time.Time      `json:"orderDate"`
	OrderUpdateDate *time.Time      `json:"orderUpdateDate"`
}

// OrderItem is a line item in order responses.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is the response representation of a stored order.
type Order struct {
	ID              string         `json:"_id"`
	UserID          string         `json:"userId"`
	CartID          *string        `json:"cartId,omitempty"`
	CartItems       []OrderItem    `json:"cartItems"`
	AddressInfo     map[string]any `json:"addressInfo"`
	OrderStatus     string         `json:"orderStatus"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentStatus   string         `json:"paymentStatus"`
	TotalAmount     float64        `json:"totalAmount"`
	OrderDate       time.Time      `json:"orderDate"`
	OrderUpdateDate time.Time      `json:"orderUpdateDate"`
}

// ToCreateOrderInput converts the checkout payload into the application command.
func ToCreateOrderInput(req CreateOrderRequest, idempotencyKey string) ordertypes.CreateOrderInput {
	items := make([]ordertypes.LineItemInput, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		items = append(items, ordertypes.LineItemInput{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	input := ordertypes.CreateOrderInput{
		UserID:         req.UserID,
		CartID:         req.CartID,
		Items:          items,
		Address:        req.AddressInfo,
		OrderStatus:    req.OrderStatus,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  req.PaymentStatus,
		TotalAmount:    req.TotalAmount,
		IdempotencyKey: idempotencyKey,
	}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}
	if req.OrderUpdateDate != nil {
		input.OrderUpdateDate = *req.OrderUpdateDate
	}
	return input
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
		})
	}
	address := map[string]any(order.Address)
	if address == nil {
		address = map[string]any{}
	}
	return Order{
		ID:              order.ID,
		UserID:          order.UserID,
		CartID:          order.CartID,
		CartItems:       items,
		AddressInfo:     address,
		OrderStatus:     string(order.OrderStatus),
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   string(order.PaymentStatus),
		TotalAmount:     order.TotalAmount.InexactFloat64(),
		OrderDate:       order.OrderDate,
		OrderUpdateDate: order.OrderUpdateDate,
	}
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*orderdomain.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, FromDomainOrder(order))
	}
	return result
}
