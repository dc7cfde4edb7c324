package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const keyPrefix = "orders:idempotency:"

// DefaultTTL matches the retention of the database-backed store.
const DefaultTTL = 24 * time.Hour

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in Redis; expiry replaces purging.
type IdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyStore wires a Redis-backed idempotency store.
func NewIdempotencyStore(client *goredis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, now: time.Now}
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     string    `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Get returns the record for key, or nil when absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: stored.RequestHash,
		OrderID:     stored.OrderID,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.CreatedAt,
	}, nil
}

// Save claims the key with SET NX. When the key is taken the existing record is returned.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	payload, err := json.Marshal(storedRecord{RequestHash: record.RequestHash, OrderID: record.OrderID, CreatedAt: now})
	if err != nil {
		return nil, err
	}
	claimed, err := s.client.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if claimed {
		record.CreatedAt = now
		record.UpdatedAt = now
		return &record, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("idempotency key expired during claim")
	}
	return existing, nil
}

// Update rebinds the key to record.OrderID without resetting its expiry.
// A key that already expired is left absent.
func (s *IdempotencyStore) Update(ctx context.Context, record ports.IdempotencyRecord) error {
	existing, err := s.Get(ctx, record.Key)
	if err != nil || existing == nil {
		return err
	}
	payload, err := json.Marshal(storedRecord{RequestHash: existing.RequestHash, OrderID: record.OrderID, CreatedAt: existing.CreatedAt})
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, keyPrefix+record.Key, payload, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}

// Delete releases the key.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Del(ctx, keyPrefix+key).Err()
}

func (s *IdempotencyStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}
