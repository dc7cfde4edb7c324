package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

// DefaultPlacementTimeout bounds a whole order placement when no timeout is configured.
const DefaultPlacementTimeout = 10 * time.Second

const releaseKeyTimeout = 2 * time.Second

// Service orchestrates the order placement and retrieval use cases.
type Service struct {
	store        ports.Store
	orchestrator ports.WorkflowOrchestrator
	idempotency  ports.IdempotencyStore
	policy       domain.StatusPolicy
	enforceTotal bool
	timeout      time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithOrchestrator replaces the inline single-transaction commit.
func WithOrchestrator(o ports.WorkflowOrchestrator) Option {
	return func(s *Service) {
		s.orchestrator = o
	}
}

// WithIdempotencyStore enables Idempotency-Key handling.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithStatusPolicy sets the policy deciding order and payment status.
func WithStatusPolicy(policy domain.StatusPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithTotalEnforcement rejects orders whose total differs from the line item sum.
func WithTotalEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceTotal = enabled
	}
}

// WithPlacementTimeout bounds each placement with a deadline.
func WithPlacementTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// WithLogger sets the logger for failures the caller never sees.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the orders service with its dependencies.
func NewService(store ports.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		policy:  domain.AssumePaid,
		timeout: DefaultPlacementTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.policy == nil {
		s.policy = domain.AssumePaid
	}
	if s.timeout <= 0 {
		s.timeout = DefaultPlacementTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// CreateOrder validates the checkout, verifies stock and commits the order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.PlacementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.buildOrder(input)
	if err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	boundID := order.ID
	if key != "" && s.idempotency != nil {
		claim, err := s.claimKey(ctx, key, input, order.ID)
		if err != nil {
			return nil, mapError(err)
		}
		if claim.replayed != nil {
			return claim.replayed, nil
		}
		boundID = claim.orderID
	} else {
		key = ""
	}

	// An attached placement already passed the stock check and may hold the stock.
	placed, err := s.place(ctx, order, key, boundID == order.ID)
	if err != nil {
		// A pending placement may still commit under this key.
		if key != "" && !errors.Is(err, ports.ErrPlacementPending) {
			s.releaseKey(ctx, key)
		}
		return nil, mapError(err)
	}
	if key != "" && placed.ID != boundID {
		s.rebindKey(ctx, key, placed.ID)
	}
	return &ordertypes.PlacementResult{OrderID: placed.ID}, nil
}

// VerifyStock checks every line against current stock, stopping at the first shortfall.
// It never mutates stock; the commit step re-validates atomically.
func (s *Service) VerifyStock(ctx context.Context, items []domain.LineItem) error {
	for _, item := range items {
		product, err := s.store.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, ports.ErrProductNotFound) {
				return &ports.InsufficientStockError{ProductID: item.ProductID, Title: item.Title}
			}
			return mapError(err)
		}
		if !product.CanFulfil(item.Quantity) {
			return &ports.InsufficientStockError{ProductID: item.ProductID, Title: item.Title}
		}
	}
	return nil
}

// ListOrdersByUser returns every order of the user; none at all is reported as not found.
func (s *Service) ListOrdersByUser(ctx context.Context, input ordertypes.ListOrdersByUserInput) ([]*domain.Order, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, mapError(domain.ErrMissingUser)
	}
	orders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	if len(orders) == 0 {
		return nil, ports.ErrNotFound
	}
	return orders, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*domain.Order, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, ports.ErrNotFound
	}
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) buildOrder(input ordertypes.CreateOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(toDraft(input), s.now())
	if err != nil {
		return nil, err
	}
	if s.enforceTotal && !order.TotalMatchesItems() {
		return nil, domain.ErrAmountMismatch
	}
	s.policy.Apply(order)
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) place(ctx context.Context, order *domain.Order, key string, verify bool) (*domain.Order, error) {
	if verify {
		if err := s.VerifyStock(ctx, order.Items); err != nil {
			return nil, err
		}
	}
	if s.orchestrator != nil {
		return s.orchestrator.PlaceOrder(ctx, order, key)
	}
	return s.store.Place(ctx, order)
}

type keyClaim struct {
	// replayed is set when the key already produced an order.
	replayed *ordertypes.PlacementResult
	// orderID is the order the key is bound to.
	orderID string
}

// claimKey reserves the idempotency key for orderID, or reports the order it
// already produced. A key whose order is not stored yet is in flight, unless the
// orchestrator deduplicates by key and the placement can be attached to.
func (s *Service) claimKey(ctx context.Context, key string, input ordertypes.CreateOrderInput, orderID string) (keyClaim, error) {
	hash, err := FingerprintCreateOrder(input)
	if err != nil {
		return keyClaim{}, err
	}
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: orderID})
	if err != nil {
		return keyClaim{}, err
	}
	if stored == nil || stored.OrderID == orderID {
		return keyClaim{orderID: orderID}, nil
	}
	if stored.RequestHash != hash {
		return keyClaim{}, ports.ErrIdempotencyConflict
	}
	existing, err := s.store.GetByID(ctx, stored.OrderID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			if s.attachable() {
				return keyClaim{orderID: stored.OrderID}, nil
			}
			return keyClaim{}, ports.ErrIdempotencyInFlight
		}
		return keyClaim{}, err
	}
	return keyClaim{replayed: &ordertypes.PlacementResult{OrderID: existing.ID, Replayed: true}, orderID: existing.ID}, nil
}

func (s *Service) attachable() bool {
	keyed, ok := s.orchestrator.(ports.KeyedOrchestrator)
	return ok && keyed.DeduplicatesByKey()
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseKeyTimeout)
	defer cancel()
	if err := s.idempotency.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "release idempotency key failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) rebindKey(ctx context.Context, key, orderID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseKeyTimeout)
	defer cancel()
	if err := s.idempotency.Update(ctx, ports.IdempotencyRecord{Key: key, OrderID: orderID}); err != nil {
		s.logger.ErrorContext(ctx, "rebind idempotency key failed",
			slog.String("key", key), slog.String("order_id", orderID), slog.Any("error", err))
	}
}

func toDraft(input ordertypes.CreateOrderInput) domain.Draft {
	items := make([]domain.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, domain.LineItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Title:     item.Title,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return domain.Draft{
		UserID:          input.UserID,
		CartID:          input.CartID,
		Items:           items,
		Address:         input.Address,
		PaymentMethod:   input.PaymentMethod,
		TotalAmount:     input.TotalAmount,
		OrderDate:       input.OrderDate,
		OrderUpdateDate: input.OrderUpdateDate,
	}
}

var _ ports.Service = (*Service)(nil)
