package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/activities/orders"
)

type compensation struct {
	name     string
	activity string
	arg      any
}

// RunOrderPlacementSaga reserves stock, persists the order and clears the cart.
// On failure, completed steps are compensated in reverse order.
func RunOrderPlacementSaga(ctx workflow.Context, order *orderdomain.Order) (*orderdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement saga started", "orderId", order.ID)

	reserveOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        5 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{orderactivities.InsufficientStockErrorType},
		},
	}
	stepOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	compensateOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    10,
		},
	}

	var done []compensation
	fail := func(step string, err error) (*orderdomain.Order, error) {
		logger.Error("order placement saga step failed", "orderId", order.ID, "step", step, "error", err)
		// Compensation must still run when the workflow itself was cancelled.
		dctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		compensate(workflow.WithActivityOptions(dctx, compensateOptions), order.ID, done)
		return nil, err
	}

	lines := orderdomain.StockLines(order.Items)
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, reserveOptions), orderactivities.ReserveStockActivityName, lines).Get(ctx, nil); err != nil {
		return fail("reserve", err)
	}
	done = append(done, compensation{name: "release", activity: orderactivities.ReleaseStockActivityName, arg: lines})

	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, stepOptions), orderactivities.PersistOrderActivityName, order).Get(ctx, nil); err != nil {
		return fail("persist", err)
	}
	done = append(done, compensation{name: "delete", activity: orderactivities.DeleteOrderActivityName, arg: order.ID})

	if order.CartID != nil {
		if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, stepOptions), orderactivities.ClearCartActivityName, *order.CartID).Get(ctx, nil); err != nil {
			return fail("clear-cart", err)
		}
	}

	logger.Info("order placement saga completed", "orderId", order.ID)
	return order, nil
}

func compensate(ctx workflow.Context, orderID string, done []compensation) {
	logger := workflow.GetLogger(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if err := workflow.ExecuteActivity(ctx, step.activity, step.arg).Get(ctx, nil); err != nil {
			logger.Error("order placement compensation failed", "orderId", orderID, "step", step.name, "error", err)
			continue
		}
		logger.Info("order placement compensation applied", "orderId", orderID, "step", step.name)
	}
}
