// Package worker hosts the order placement workflow on a Temporal task queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	temporalworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-shop-api/internal/app/config"
	"github.com/Apurer/go-gin-shop-api/internal/app/storage"
	platformobservability "github.com/Apurer/go-gin-shop-api/internal/platform/observability"
	platformtemporal "github.com/Apurer/go-gin-shop-api/internal/platform/temporal"
	orderactivities "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/workflows/orders"
)

const serviceName = "shop-worker"

// Registrar is the subset of worker.Worker used to register order placement.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds the order placement workflow and its activities under their stable names.
func Register(r Registrar, activities *orderactivities.Activities) {
	r.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderPlacementWorkflowName})
	r.RegisterActivityWithOptions(activities.ReserveStock, activity.RegisterOptions{Name: orderactivities.ReserveStockActivityName})
	r.RegisterActivityWithOptions(activities.ReleaseStock, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})
	r.RegisterActivityWithOptions(activities.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})
	r.RegisterActivityWithOptions(activities.DeleteOrder, activity.RegisterOptions{Name: orderactivities.DeleteOrderActivityName})
	r.RegisterActivityWithOptions(activities.ClearCart, activity.RegisterOptions{Name: orderactivities.ClearCartActivityName})
}

// Run polls the order placement task queue until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogLevel(platformobservability.ParseLevel(cfg.LogLevel)),
		platformobservability.WithEnvironment(cfg.Environment),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := storage.Open(ctx, cfg, logger)
	defer cleanupStores()
	if stores.DB == nil {
		logger.Warn("worker is running on in-memory stores; orders placed here are not visible to the API")
	}

	temporalClient, err := platformtemporal.Dial(platformtemporal.ClientConfig{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
	}, instruments.Tracer("temporal-worker"), logger)
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	w := temporalworker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, temporalworker.Options{})
	Register(w, orderactivities.NewActivities(stores.Orders, stores.Orders, stores.Orders))

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Start(); err != nil {
		return fmt.Errorf("temporal worker failed to start: %w", err)
	}
	<-ctx.Done()
	w.Stop()
	logger.Info("Temporal worker stopped")
	return nil
}
