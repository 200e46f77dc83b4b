package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/excommerce-backend/internal/catalog"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failSet error
	failDel error
	extends int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel != nil {
		return f.failDel
	}
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return nil
}

func (f *fakeRedis) ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != owner {
		return false, nil
	}
	delete(f.data, key)
	delete(f.ttls, key)
	return true, nil
}

func (f *fakeRedis) ExtendIfOwner(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != owner {
		return false, nil
	}
	f.ttls[key] = ttl
	f.extends++
	return true, nil
}

func (f *fakeRedis) extendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extends
}

func (f *fakeRedis) CartKey(kind, id string) string {
	return "exc:cart:" + kind + ":" + id
}

func (f *fakeRedis) CartLockKey(kind, id string) string {
	return "exc:lock:cart:" + kind + ":" + id
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type stubCatalog struct {
	items map[string]*catalog.SellableItem
	err   error
}

func (s *stubCatalog) SellableItem(ctx context.Context, itemCode string) (*catalog.SellableItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items[itemCode], nil
}

var errBoom = errors.New("boom")
