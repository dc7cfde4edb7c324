// Package api boots the shop HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	shopserver "github.com/Apurer/go-gin-shop-api/go"
	"github.com/Apurer/go-gin-shop-api/internal/app/config"
	"github.com/Apurer/go-gin-shop-api/internal/app/storage"
	mediacloudinary "github.com/Apurer/go-gin-shop-api/internal/domains/media/adapters/external/cloudinary"
	mediamemory "github.com/Apurer/go-gin-shop-api/internal/domains/media/adapters/memory"
	mediaapp "github.com/Apurer/go-gin-shop-api/internal/domains/media/application"
	mediaports "github.com/Apurer/go-gin-shop-api/internal/domains/media/ports"
	ordersobs "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-shop-api/internal/platform/http/middleware"
	platformobservability "github.com/Apurer/go-gin-shop-api/internal/platform/observability"
	platformtemporal "github.com/Apurer/go-gin-shop-api/internal/platform/temporal"
)

const (
	serviceName     = "shop-api"
	shutdownTimeout = 10 * time.Second
)

// Run boots the shop HTTP API with observability, stores and workflows wired.
// It returns when ctx is cancelled and the server has drained.
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

	policy, err := orderdomain.StatusPolicyByName(cfg.OrderStatusPolicy)
	if err != nil {
		return err
	}
	var orchestrator orderports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(stores.Orders)
	temporalClient, err := platformtemporal.Dial(platformtemporal.ClientConfig{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
	}, instruments.Tracer("temporal-client"), logger)
	switch {
	case err != nil:
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
	case stores.DB == nil:
		// Worker and API would not share in-memory state.
		temporalClient.Close()
		logger.Warn("Temporal requires a shared database, placing orders inline")
	default:
		defer temporalClient.Close()
		orchestrator = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	coreOrders := ordersapp.NewService(stores.Orders,
		ordersapp.WithOrchestrator(orchestrator),
		ordersapp.WithIdempotencyStore(stores.Idempotency),
		ordersapp.WithStatusPolicy(policy),
		ordersapp.WithTotalEnforcement(cfg.OrderEnforceTotal),
		ordersapp.WithPlacementTimeout(cfg.OrderPlacementTimeout),
		ordersapp.WithLogger(logger),
	)
	orderService := ordersobs.New(coreOrders,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	mediaService := mediaapp.NewService(buildImageHost(cfg, logger), mediaapp.WithMaxBytes(cfg.ImageMaxUploadBytes))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	handlers := shopserver.ApiHandleFunctions{
		OrderAPI: shopserver.NewOrderAPI(orderService, logger),
		ImageAPI: shopserver.NewImageAPI(mediaService, cfg.ImageMaxUploadBytes, logger),
	}
	router := shopserver.NewRouter(handlers,
		shopserver.WithMiddleware(otelgin.Middleware(serviceName), middleware.AccessLog(logger)),
		shopserver.WithMutatingMiddleware(limiter.Middleware()),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("shop API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("shop API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down shop API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildImageHost(cfg config.Config, logger *slog.Logger) mediaports.ImageHost {
	if !cfg.CloudinaryConfigured() {
		logger.Warn("Cloudinary credentials not set, keeping uploads in memory")
		return mediamemory.NewHost("")
	}
	host, err := mediacloudinary.NewHost(mediacloudinary.Credentials{
		URL:       cfg.Cloudinary.URL,
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Folder:    cfg.Cloudinary.Folder,
	})
	if err != nil {
		logger.Warn("failed to configure Cloudinary, keeping uploads in memory", slog.String("error", err.Error()))
		return mediamemory.NewHost("")
	}
	logger.Info("Cloudinary image host configured")
	return host
}
