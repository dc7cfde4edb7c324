package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the line item that could not be fulfilled.
type InsufficientStockError struct {
	ProductID string
	Title     string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for product: %s", e.Title)
}

// Is lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStockError builds the error for a stock line.
func NewInsufficientStockError(line domain.StockLine) error {
	return &InsufficientStockError{ProductID: line.ProductID, Title: line.Title}
}

// Orders persists placed orders.
type Orders interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

// Inventory reads products and applies stock movements.
type Inventory interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// Reserve decrements every line only if each resulting stock stays non-negative.
	// Either all lines apply or none do; a failing line yields *InsufficientStockError.
	Reserve(ctx context.Context, lines []domain.StockLine) error
	// Release adds the quantities back. Used by saga compensation.
	Release(ctx context.Context, lines []domain.StockLine) error
}

// Carts disposes of converted carts.
type Carts interface {
	// DeleteCart removes the cart; a missing cart is not an error.
	DeleteCart(ctx context.Context, id string) error
}

// Placement commits an order, its stock decrements and the cart deletion as one unit.
type Placement interface {
	Place(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

// Store bundles the persistence ports an adapter provides.
type Store interface {
	Orders
	Inventory
	Carts
	Placement
}
