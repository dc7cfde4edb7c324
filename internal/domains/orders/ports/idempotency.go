package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInFlight indicates the first request for the key has not finished yet.
	ErrIdempotencyInFlight = errors.New("request with this idempotency key is still in progress")
)

// IdempotencyRecord associates a client-supplied key with the order it created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save claims the key. When the key already exists the stored record is returned unchanged
	// and the caller compares hash and order id to decide between replay and conflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
	// Update rebinds an existing key to record.OrderID, keeping its hash and age.
	Update(ctx context.Context, record IdempotencyRecord) error
	// Delete releases a key whose request failed.
	Delete(ctx context.Context, key string) error
}
