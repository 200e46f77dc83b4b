package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps scheduler cycles exclusive across worker replicas.
type Lock interface {
	// TryAcquire returns ok=false when another replica holds the lock.
	TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	LockKey(name string) string
}

// RedisLock implements Lock with SETNX and an owner token.
type RedisLock struct {
	client lockStore
	key    string
	ttl    time.Duration
}

// NewRedisLock builds a lock stored under the client's lock namespace.
func NewRedisLock(client lockStore, name string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: client.LockKey(name), ttl: ttl}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (func(context.Context) error, bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		// A false result means the TTL lapsed and another replica took over.
		if _, err := l.client.ReleaseIfOwner(ctx, l.key, owner); err != nil {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
