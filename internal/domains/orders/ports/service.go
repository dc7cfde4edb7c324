package ports

import (
	"context"
	"errors"

	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

// Service exposes order use cases to adapters (inbound/driving port).
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.PlacementResult, error)
	ListOrdersByUser(ctx context.Context, input ordertypes.ListOrdersByUserInput) ([]*domain.Order, error)
	GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*domain.Order, error)
}

// WorkflowOrchestrator commits a validated, stock-checked order.
// Implementations run inline in one transaction or as a durable saga.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error)
}

// ErrPlacementPending reports that the deadline passed before the placement's
// outcome was known. The placement may still commit.
var ErrPlacementPending = errors.New("order placement outcome pending")

// KeyedOrchestrator deduplicates placements by idempotency key. A retry that
// reuses the key attaches to the earlier placement instead of committing twice.
type KeyedOrchestrator interface {
	WorkflowOrchestrator
	DeduplicatesByKey() bool
}
