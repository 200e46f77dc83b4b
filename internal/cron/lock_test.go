package cron

import (
	"context"
	"testing"
	"time"
)

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) ReleaseIfOwner(_ context.Context, key, owner string) (bool, error) {
	if m.values[key] != owner {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryStore) LockKey(name string) string { return "exc:lock:" + name }

func TestRedisLockIsExclusiveUntilReleased(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "cron", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	if _, ok := store.values["exc:lock:cron"]; !ok {
		t.Fatalf("expected lock key to be namespaced, got %v", store.values)
	}
	if _, ok, _ := lock.TryAcquire(ctx); ok {
		t.Fatal("expected second acquire to fail while held")
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := lock.TryAcquire(ctx); !ok {
		t.Fatal("expected acquire after release to succeed")
	}
}

func TestRedisLockReleaseKeepsForeignOwner(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "cron", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	store.values["exc:lock:cron"] = "another-replica"
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["exc:lock:cron"] != "another-replica" {
		t.Fatal("release removed a lock it did not own")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "cron", 0); err == nil {
		t.Fatal("expected nil client to fail")
	}
	if _, err := NewRedisLock(&memoryStore{values: map[string]string{}}, "", 0); err == nil {
		t.Fatal("expected empty name to fail")
	}
}
