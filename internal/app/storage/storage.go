// Package storage opens the order stores selected by configuration.
package storage

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-shop-api/internal/app/config"
	ordermemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/persistence/postgres"
	orderredis "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/redis"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-shop-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-shop-api/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-shop-api/internal/platform/redis"
)

// Stores bundles the order persistence ports for one process.
type Stores struct {
	Orders      orderports.Store
	Idempotency orderports.IdempotencyStore
	DB          *gorm.DB
	Backend     string
}

// Open connects PostgreSQL and Redis when configured, falling back to memory.
// The returned cleanup closes every connection that was opened.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Stores, func()) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	stores := Stores{Backend: "memory"}
	db := connectPostgres(ctx, cfg, logger)
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			cleanups = append(cleanups, func() { _ = sqlDB.Close() })
		}
		if err := migrations.Run(db); err != nil {
			logger.Warn("failed to apply migrations, falling back to in-memory stores", slog.String("error", err.Error()))
			cleanup()
			cleanups = nil
			db = nil
		}
	}
	if db != nil {
		stores.DB = db
		stores.Orders = orderpostgres.NewStore(db)
		stores.Idempotency = orderpostgres.NewIdempotencyStore(db)
		stores.Backend = "postgres"
	} else {
		stores.Orders = ordermemory.NewStore()
		stores.Idempotency = ordermemory.NewIdempotencyStore()
	}

	client, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisURL, logger)
	cleanups = append(cleanups, closeRedis)
	if client != nil {
		stores.Idempotency = orderredis.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}
	logger.Info("order stores configured", slog.String("backend", stores.Backend), slog.Bool("redisIdempotency", client != nil))
	return stores, cleanup
}

func connectPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) *gorm.DB {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
		return nil
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN, platformpostgres.PoolConfig{MaxOpenConns: cfg.PostgresMaxOpenConns})
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("postgres connection established")
	return db
}
