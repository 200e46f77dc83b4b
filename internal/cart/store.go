package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
)

// LineItem is one product line in a cart. A cart holds at most one line per item code.
type LineItem struct {
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	ItemGroup string          `json:"item_group"`
	Qty       int             `json:"qty"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

// Store persists whole carts keyed by identity.
type Store interface {
	Load(ctx context.Context, id identity.Identity) ([]LineItem, error)
	Save(ctx context.Context, id identity.Identity, items []LineItem) error
	Delete(ctx context.Context, id identity.Identity) error
}

// redisStore defines the operations used by RedisStore.
type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(kind, id string) string
}

// RedisStore keeps each cart as a JSON array under a TTL that resets on every write.
type RedisStore struct {
	client     redisStore
	guestTTL   time.Duration
	sessionTTL time.Duration
}

// NewRedisStore constructs a Redis-backed cart store.
func NewRedisStore(client redisStore, guestTTL, sessionTTL time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart store")
	}
	if guestTTL <= 0 {
		return nil, errors.New("guest cart ttl must be positive")
	}
	if sessionTTL <= 0 {
		sessionTTL = guestTTL
	}
	return &RedisStore{client: client, guestTTL: guestTTL, sessionTTL: sessionTTL}, nil
}

// Load returns the stored lines; a missing or expired cart is empty.
func (s *RedisStore) Load(ctx context.Context, id identity.Identity) ([]LineItem, error) {
	raw, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []LineItem{}, nil
		}
		return nil, fmt.Errorf("read cart: %w", err)
	}
	items := []LineItem{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

// Save replaces the stored cart. An empty cart removes the key.
func (s *RedisStore) Save(ctx context.Context, id identity.Identity, items []LineItem) error {
	if len(items) == 0 {
		return s.Delete(ctx, id)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), string(payload), s.ttl(id)); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

// Delete drops the cart. Deleting a missing cart is not an error.
func (s *RedisStore) Delete(ctx context.Context, id identity.Identity) error {
	if err := s.client.Del(ctx, s.key(id)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (s *RedisStore) key(id identity.Identity) string {
	return s.client.CartKey(string(id.Kind), id.Key)
}

func (s *RedisStore) ttl(id identity.Identity) time.Duration {
	if id.IsGuest() {
		return s.guestTTL
	}
	return s.sessionTTL
}
