package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.KeyedOrchestrator    = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// DefaultCancelGrace bounds the wait for a cancelled placement to report its outcome.
const DefaultCancelGrace = 5 * time.Second

// TemporalOrderWorkflows runs order placement as a saga on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client      client.Client
	taskQueue   string
	cancelGrace time.Duration
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{
		client:      c,
		taskQueue:   orderworkflows.OrderPlacementTaskQueue,
		cancelGrace: DefaultCancelGrace,
	}
}

// DeduplicatesByKey reports that keyed placements share one workflow id.
func (o *TemporalOrderWorkflows) DeduplicatesByKey() bool { return true }

// PlaceOrder starts the placement workflow and waits for it within ctx's deadline.
// When the deadline passes first the workflow is cancelled so the saga compensates.
// A keyed retry attaches to a running or completed run; failed runs may be replaced.
func (o *TemporalOrderWorkflows) PlaceOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	traceID := workflowTraceID(ctx)
	workflowID := buildOrderPlacementWorkflowID(order.ID, idempotencyKey)
	options := client.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             o.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderPlacementWorkflowName,
		orderworkflows.OrderPlacementWorkflowInput{Order: order, TraceID: traceID},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(idempotencyKey) != "" {
			run = o.client.GetWorkflow(ctx, workflowID, "")
		} else {
			return nil, err
		}
	}
	var placed domain.Order
	if err := run.Get(ctx, &placed); err != nil {
		if ctx.Err() != nil {
			return o.abandon(ctx, run)
		}
		return nil, translateWorkflowError(err)
	}
	return &placed, nil
}

// abandon cancels a run whose caller gave up and waits briefly for the result.
// A run that committed before the cancel landed is still reported as placed.
func (o *TemporalOrderWorkflows) abandon(ctx context.Context, run client.WorkflowRun) (*domain.Order, error) {
	cause := ctx.Err()
	grace := o.cancelGrace
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()

	if err := o.client.CancelWorkflow(cctx, run.GetID(), run.GetRunID()); err != nil {
		var notFound *serviceerror.NotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: cancel %s: %w", ports.ErrPlacementPending, run.GetID(), err)
		}
	}
	var placed domain.Order
	err := run.Get(cctx, &placed)
	switch {
	case err == nil:
		return &placed, nil
	case temporal.IsCanceledError(err):
		return nil, cause
	case cctx.Err() != nil:
		return nil, fmt.Errorf("%w: %w", ports.ErrPlacementPending, cause)
	default:
		return nil, translateWorkflowError(err)
	}
}

// InlineOrderWorkflows commits through the store's single transaction, without Temporal.
type InlineOrderWorkflows struct {
	placement ports.Placement
}

// NewInlineOrderWorkflows wraps a placement store for synchronous execution.
func NewInlineOrderWorkflows(placement ports.Placement) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{placement: placement}
}

// PlaceOrder delegates to the store's atomic placement.
func (o *InlineOrderWorkflows) PlaceOrder(ctx context.Context, order *domain.Order, _ string) (*domain.Order, error) {
	if o == nil || o.placement == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.placement.Place(ctx, order)
}

// translateWorkflowError restores the domain shortfall error carried by the saga.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == orderactivities.InsufficientStockErrorType {
		stockErr := &ports.InsufficientStockError{}
		if appErr.HasDetails() {
			_ = appErr.Details(&stockErr.ProductID, &stockErr.Title)
		}
		return stockErr
	}
	return err
}

func buildOrderPlacementWorkflowID(orderID, idempotencyKey string) string {
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		return fmt.Sprintf("order-placement-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-placement-%s", orderID)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
