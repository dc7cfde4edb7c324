//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		container.Terminate(ctx)
	}
	return client, cleanup
}

func TestIdempotencyStore_ClaimReplayRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	first, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "o1", first.OrderID)

	second, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2", OrderID: "o2"})
	require.NoError(t, err)
	assert.Equal(t, "o1", second.OrderID)
	assert.Equal(t, "h1", second.RequestHash)

	require.NoError(t, store.Update(ctx, ports.IdempotencyRecord{Key: "k1", OrderID: "o3"}))
	rebound, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "o3", rebound.OrderID)
	assert.Equal(t, "h1", rebound.RequestHash)

	ttl, err := client.TTL(ctx, keyPrefix+"k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Update(ctx, ports.IdempotencyRecord{Key: "unknown", OrderID: "o9"}))
	absent, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, absent)

	require.NoError(t, store.Delete(ctx, "k1"))
	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
