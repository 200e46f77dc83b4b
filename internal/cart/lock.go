package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
)

const (
	defaultLockTTL  = 5 * time.Second
	defaultLockWait = 250 * time.Millisecond
	lockPollEvery   = 25 * time.Millisecond
)

// Locker serializes read-modify-write cycles on one cart.
type Locker interface {
	Lock(ctx context.Context, id identity.Identity) (unlock func(context.Context) error, err error)
}

// lockStore defines the operations used by RedisLocker.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	ExtendIfOwner(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	CartLockKey(kind, id string) string
}

// RedisLocker implements Locker with SETNX + TTL and a short wait.
type RedisLocker struct {
	client lockStore
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker constructs a Redis-backed cart lock.
func NewRedisLocker(client lockStore, ttl, wait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait}, nil
}

// Lock takes the cart lock, polling until the wait budget is spent. A busy cart
// yields a CONFLICT error the caller may retry. The TTL is renewed every third
// of its length until unlock, so a long checkout keeps the cart to itself.
func (l *RedisLocker) Lock(ctx context.Context, id identity.Identity) (func(context.Context) error, error) {
	key := l.client.CartLockKey(string(id.Kind), id.Key)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "lock cart")
		}
		if ok {
			stop := l.keepAlive(context.WithoutCancel(ctx), key, owner)
			return func(ctx context.Context) error {
				stop()
				return l.release(ctx, key, owner)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is busy, retry")
		}
		timer := time.NewTimer(lockPollEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// keepAlive extends the lock until the returned stop is called or ownership is
// lost. stop waits for the renewal goroutine to exit.
func (l *RedisLocker) keepAlive(ctx context.Context, key, owner string) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		every := l.ttl / 3
		if every <= 0 {
			every = l.ttl
		}
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				held, err := l.client.ExtendIfOwner(ctx, key, owner, l.ttl)
				if err == nil && !held {
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// release frees the lock only if owner still holds it.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	if _, err := l.client.ReleaseIfOwner(ctx, key, owner); err != nil {
		return fmt.Errorf("release cart lock: %w", err)
	}
	return nil
}
