package workflows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/activities/orders"
)

// stubRun finishes when done is closed; a nil done means it already finished.
type stubRun struct {
	client.WorkflowRun
	id     string
	done   chan struct{}
	result *domain.Order
	err    error
}

func (r *stubRun) GetID() string    { return r.id }
func (r *stubRun) GetRunID() string { return "run-1" }

func (r *stubRun) Get(ctx context.Context, valuePtr interface{}) error {
	if r.done != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.err != nil {
		return r.err
	}
	if out, ok := valuePtr.(*domain.Order); ok && r.result != nil {
		*out = *r.result
	}
	return nil
}

// finish sets the outcome before releasing waiters.
func (r *stubRun) finish(result *domain.Order, err error) {
	r.result, r.err = result, err
	close(r.done)
}

type stubTemporal struct {
	client.Client

	mu        sync.Mutex
	startErr  error
	run       *stubRun
	existing  *stubRun
	options   []client.StartWorkflowOptions
	cancelled []string
	onCancel  func(run *stubRun) error
}

func (c *stubTemporal) ExecuteWorkflow(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = append(c.options, options)
	if c.startErr != nil {
		return nil, c.startErr
	}
	c.run.id = options.ID
	return c.run, nil
}

func (c *stubTemporal) GetWorkflow(_ context.Context, workflowID, _ string) client.WorkflowRun {
	c.existing.id = workflowID
	return c.existing
}

func (c *stubTemporal) CancelWorkflow(_ context.Context, workflowID, _ string) error {
	c.mu.Lock()
	c.cancelled = append(c.cancelled, workflowID)
	c.mu.Unlock()
	if c.onCancel == nil {
		return nil
	}
	return c.onCancel(c.run)
}

func newPlacedOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.Draft{
		UserID:        "u1",
		Items:         []domain.LineItem{{ProductID: "p1", Title: "Shirt", Quantity: 1, Price: decimal.NewFromInt(5)}},
		PaymentMethod: "card",
		TotalAmount:   decimal.NewFromInt(5),
	}, time.Now())
	require.NoError(t, err)
	domain.AssumePaid.Apply(order)
	return order
}

func TestTemporalOrderWorkflows_DeadlineCancelsWorkflow(t *testing.T) {
	stub := &stubTemporal{
		run: &stubRun{done: make(chan struct{})},
		onCancel: func(run *stubRun) error {
			run.finish(nil, temporal.NewCanceledError())
			return nil
		},
	}
	orchestrator := NewTemporalOrderWorkflows(stub)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := orchestrator.PlaceOrder(ctx, newPlacedOrder(t), "key-1")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ports.ErrPlacementPending)
	require.Len(t, stub.cancelled, 1)
	assert.Equal(t, buildOrderPlacementWorkflowID("", "key-1"), stub.cancelled[0])
}

func TestTemporalOrderWorkflows_DeadlineAfterCommitReportsOrder(t *testing.T) {
	order := newPlacedOrder(t)
	stub := &stubTemporal{
		run: &stubRun{done: make(chan struct{})},
		onCancel: func(run *stubRun) error {
			run.finish(order, nil)
			return serviceerror.NewNotFound("workflow execution already completed")
		},
	}
	orchestrator := NewTemporalOrderWorkflows(stub)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	placed, err := orchestrator.PlaceOrder(ctx, order, "key-1")

	require.NoError(t, err)
	assert.Equal(t, order.ID, placed.ID)
	assert.Len(t, stub.cancelled, 1)
}

func TestTemporalOrderWorkflows_UnknownOutcomeIsPending(t *testing.T) {
	stub := &stubTemporal{run: &stubRun{done: make(chan struct{})}}
	orchestrator := NewTemporalOrderWorkflows(stub)
	orchestrator.cancelGrace = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := orchestrator.PlaceOrder(ctx, newPlacedOrder(t), "key-1")

	require.ErrorIs(t, err, ports.ErrPlacementPending)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, stub.cancelled, 1)
}

func TestTemporalOrderWorkflows_AttachesToCompletedRun(t *testing.T) {
	earlier := newPlacedOrder(t)
	stub := &stubTemporal{
		startErr: serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-0"),
		existing: &stubRun{result: earlier},
	}
	orchestrator := NewTemporalOrderWorkflows(stub)

	placed, err := orchestrator.PlaceOrder(context.Background(), newPlacedOrder(t), "key-1")
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, placed.ID)
	assert.True(t, orchestrator.DeduplicatesByKey())

	require.Len(t, stub.options, 1)
	assert.Equal(t, enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY, stub.options[0].WorkflowIDReusePolicy)
	assert.Empty(t, stub.cancelled)
}

func TestTemporalOrderWorkflows_UnkeyedDuplicateIsError(t *testing.T) {
	stub := &stubTemporal{startErr: serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-0")}
	_, err := NewTemporalOrderWorkflows(stub).PlaceOrder(context.Background(), newPlacedOrder(t), "")
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	assert.ErrorAs(t, err, &alreadyStarted)
}

func TestBuildOrderPlacementWorkflowID(t *testing.T) {
	a := buildOrderPlacementWorkflowID("o1", "key-1")
	b := buildOrderPlacementWorkflowID("o2", " key-1 ")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "order-placement-idem-"))
	assert.Len(t, strings.TrimPrefix(a, "order-placement-idem-"), 16)

	assert.Equal(t, "order-placement-o1", buildOrderPlacementWorkflowID("o1", ""))
}

func TestTranslateWorkflowError(t *testing.T) {
	appErr := temporal.NewNonRetryableApplicationError("Not enough stock for product: Hat",
		orderactivities.InsufficientStockErrorType, nil, "p2", "Hat")

	err := translateWorkflowError(appErr)
	require.ErrorIs(t, err, ports.ErrInsufficientStock)
	var stockErr *ports.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, "Hat", stockErr.Title)

	other := errors.New("frontend unavailable")
	assert.Same(t, other, translateWorkflowError(other))
}

func TestInlineOrderWorkflows_PlaceOrder(t *testing.T) {
	store := memory.NewStore()
	store.PutProduct(domain.Product{ID: "p1", Title: "Shirt", TotalStock: 1})
	order, err := domain.NewOrder(domain.Draft{
		UserID:        "u1",
		Items:         []domain.LineItem{{ProductID: "p1", Title: "Shirt", Quantity: 1, Price: decimal.NewFromInt(5)}},
		PaymentMethod: "card",
		TotalAmount:   decimal.NewFromInt(5),
	}, time.Now())
	require.NoError(t, err)
	domain.AssumePaid.Apply(order)

	orchestrator := NewInlineOrderWorkflows(store)
	placed, err := orchestrator.PlaceOrder(context.Background(), order, "")
	require.NoError(t, err)
	assert.Equal(t, order.ID, placed.ID)

	_, err = orchestrator.PlaceOrder(context.Background(), order, "")
	assert.ErrorIs(t, err, ports.ErrInsufficientStock)
}

func TestTemporalOrderWorkflows_NotConfigured(t *testing.T) {
	var orchestrator *TemporalOrderWorkflows
	_, err := orchestrator.PlaceOrder(context.Background(), &domain.Order{}, "")
	assert.Error(t, err)
}
