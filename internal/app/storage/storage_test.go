package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Apurer/go-gin-shop-api/internal/app/config"
	ordermemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
)

func TestOpen_FallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores, cleanup := Open(context.Background(), config.Config{}, logger)
	defer cleanup()

	assert.Equal(t, "memory", stores.Backend)
	assert.Nil(t, stores.DB)
	assert.IsType(t, &ordermemory.Store{}, stores.Orders)
	assert.IsType(t, &ordermemory.IdempotencyStore{}, stores.Idempotency)
}
