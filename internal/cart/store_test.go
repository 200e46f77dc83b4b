package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/internal/identity"
)

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	ctx := context.Background()
	guest := identity.Resolve("10.0.0.1", "")
	user := identity.Resolve("10.0.0.1", "user-1")

	items, err := store.Load(ctx, guest)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty cart, got %v %v", items, err)
	}

	line := LineItem{ItemCode: "MUG", ItemName: "Mug", Qty: 2, Rate: decimal.NewFromInt(5), Amount: decimal.NewFromInt(10)}
	if err := store.Save(ctx, guest, []LineItem{line}); err != nil {
		t.Fatalf("save guest: %v", err)
	}
	if err := store.Save(ctx, user, []LineItem{line}); err != nil {
		t.Fatalf("save user: %v", err)
	}

	guestKey := client.CartKey("guest", guest.Key)
	if got := client.ttls[guestKey]; got != time.Hour {
		t.Fatalf("expected guest ttl 1h, got %v", got)
	}
	if got := client.ttls[client.CartKey("session", "user-1")]; got != 30*24*time.Hour {
		t.Fatalf("expected session ttl, got %v", got)
	}

	loaded, err := store.Load(ctx, guest)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ItemCode != "MUG" || !loaded[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected cart %+v", loaded)
	}

	if err := store.Save(ctx, guest, nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if client.has(guestKey) {
		t.Fatal("expected empty save to delete the key")
	}
}

func TestRedisStoreRejectsCorruptPayload(t *testing.T) {
	client := newFakeRedis()
	store, _ := NewRedisStore(client, time.Hour, 0)
	id := identity.Resolve("10.0.0.2", "")
	client.data[client.CartKey("guest", id.Key)] = "{not json"

	if _, err := store.Load(context.Background(), id); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewRedisStoreValidation(t *testing.T) {
	if _, err := NewRedisStore(nil, time.Hour, time.Hour); err == nil {
		t.Fatal("expected nil client error")
	}
	if _, err := NewRedisStore(newFakeRedis(), 0, time.Hour); err == nil {
		t.Fatal("expected ttl error")
	}
}
