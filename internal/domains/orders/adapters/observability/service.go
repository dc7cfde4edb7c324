package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	orderapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.PlacementResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.CreateOrder",
		trace.WithAttributes(
			attribute.String("order.user_id", input.UserID),
			attribute.Int("order.items", len(input.Items)),
			attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
		))
	defer span.End()

	started := time.Now()
	s.logInfo(ctx, "placing order", slog.String("user.id", input.UserID), slog.Int("order.items", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	s.metrics.recordDuration(ctx, time.Since(started), err == nil)
	if err != nil {
		reason := rejectionReason(err)
		s.metrics.recordRejected(ctx, reason)
		span.SetAttributes(attribute.String("order.rejection", reason))
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("user.id", input.UserID), slog.String("reason", reason))
	}
	span.SetAttributes(attribute.String("order.id", result.OrderID), attribute.Bool("order.replayed", result.Replayed))
	if !result.Replayed {
		s.metrics.recordPlaced(ctx)
	}
	s.logInfo(ctx, "order placed", slog.String("order.id", result.OrderID), slog.Bool("replayed", result.Replayed))
	return result, nil
}

func (s *Service) ListOrdersByUser(ctx context.Context, input ordertypes.ListOrdersByUserInput) ([]*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListOrdersByUser", trace.WithAttributes(attribute.String("order.user_id", input.UserID)))
	defer span.End()

	result, err := s.inner.ListOrdersByUser(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", input.UserID))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	s.logInfo(ctx, "orders listed", slog.String("user.id", input.UserID), slog.Int("count", len(result)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.String("order.id", input.ID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", input.ID))
	}
	s.logInfo(ctx, "order loaded", slog.String("order.id", result.ID), slog.String("status", string(result.OrderStatus)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	level := slog.LevelWarn
	if isUnexpected(err) {
		level = slog.LevelError
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, level, msg, attrs...)
	}
	return err
}

// isUnexpected separates faults from business rejections.
func isUnexpected(err error) bool {
	return errors.Is(err, orderapp.ErrStorageFailure) || errors.Is(err, orderapp.ErrPlacementTimeout)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, orderapp.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, orderports.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, orderports.ErrIdempotencyConflict), errors.Is(err, orderports.ErrIdempotencyInFlight):
		return "idempotency"
	case errors.Is(err, orderapp.ErrPlacementTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
	duration       metric.Float64Histogram
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	ordersRejected, _ := m.Int64Counter("orders.service.rejected", metric.WithDescription("Number of rejected order placements"))
	duration, _ := m.Float64Histogram("orders.service.placement.duration",
		metric.WithDescription("Order placement latency"),
		metric.WithUnit("s"))
	return serviceMetrics{ordersPlaced: ordersPlaced, ordersRejected: ordersRejected, duration: duration}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, reason string) {
	if m.ordersRejected != nil {
		m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m serviceMetrics) recordDuration(ctx context.Context, d time.Duration, ok bool) {
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

var _ orderports.Service = (*Service)(nil)
