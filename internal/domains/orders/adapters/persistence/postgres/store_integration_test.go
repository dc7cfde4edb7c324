//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-shop-api/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func integrationOrder(t *testing.T, userID string, cartID *string, qty int) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.Draft{
		UserID:        userID,
		CartID:        cartID,
		Items:         []domain.LineItem{{ProductID: "p1", Title: "Shirt", Quantity: qty, Price: decimal.RequireFromString("9.99")}},
		Address:       domain.Address{"city": "Oslo"},
		PaymentMethod: "card",
		TotalAmount:   decimal.RequireFromString("19.98"),
	}, time.Now().UTC())
	require.NoError(t, err)
	domain.AssumePaid.Apply(order)
	return order
}

func TestStore_PlaceAndFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.PutProduct(ctx, domain.Product{ID: "p1", Title: "Shirt", TotalStock: 5}))
	cartID := "cart-1"
	require.NoError(t, store.PutCart(ctx, domain.Cart{ID: cartID, UserID: "u1"}))

	order := integrationOrder(t, "u1", &cartID, 2)
	placed, err := store.Place(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, order.ID, placed.ID)

	product, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, product.TotalStock)

	var carts int64
	require.NoError(t, db.Model(&cartRecord{}).Where("id = ?", cartID).Count(&carts).Error)
	assert.Zero(t, carts)

	fetched, err := store.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, fetched.TotalAmount.Equal(order.TotalAmount))
	assert.Equal(t, "Oslo", fetched.Address["city"])
	require.Len(t, fetched.Items, 1)
	assert.True(t, fetched.Items[0].Price.Equal(decimal.RequireFromString("9.99")))

	list, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_ConcurrentPlacementsNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.PutProduct(ctx, domain.Product{ID: "p1", Title: "Shirt", TotalStock: 5}))

	const buyers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Place(ctx, integrationOrder(t, "u1", nil, 5))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ports.ErrInsufficientStock), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	product, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, product.TotalStock)
}

func TestStore_ReserveAndRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.PutProduct(ctx, domain.Product{ID: "p1", Title: "Shirt", TotalStock: 2}))
	require.NoError(t, store.PutProduct(ctx, domain.Product{ID: "p2", Title: "Hat", TotalStock: 0}))

	err := store.Reserve(ctx, []domain.StockLine{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Title: "Hat", Quantity: 1}})
	require.ErrorIs(t, err, ports.ErrInsufficientStock)
	p1, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p1.TotalStock)

	lines := []domain.StockLine{{ProductID: "p1", Quantity: 2}}
	require.NoError(t, store.Reserve(ctx, lines))
	require.NoError(t, store.Release(ctx, lines))
	p1, err = store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p1.TotalStock)
}

func TestIdempotencyStore_ClaimAndPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
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

	removed, err := store.PurgeBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
