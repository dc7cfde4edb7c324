package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemInput is a cart line supplied by the client.
type LineItemInput struct {
	ProductID string
	Title     string
	Image     string
	Quantity  int
	Price     decimal.Decimal
}

// CreateOrderInput carries the checkout payload.
// OrderStatus and PaymentStatus are accepted for compatibility and never applied.
type CreateOrderInput struct {
	UserID          string
	CartID          *string
	Items           []LineItemInput
	Address         map[string]any
	OrderStatus     string
	PaymentMethod   string
	PaymentStatus   string
	TotalAmount     decimal.Decimal
	OrderDate       time.Time
	OrderUpdateDate time.Time
	IdempotencyKey  string
}

// OrderIdentifier addresses a single order.
type OrderIdentifier struct {
	ID string
}

// ListOrdersByUserInput selects all orders of a user.
type ListOrdersByUserInput struct {
	UserID string
}

// PlacementResult reports the created order and whether it was replayed.
type PlacementResult struct {
	OrderID  string
	Replayed bool
}
