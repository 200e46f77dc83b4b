package cron

import (
	"context"
	"errors"
	"testing"
)

type fakePromoter struct {
	promoted  int
	err       error
	lastLimit int
	calls     int
}

func (f *fakePromoter) PromotePending(_ context.Context, limit int) (int, error) {
	f.calls++
	f.lastLimit = limit
	return f.promoted, f.err
}

func TestBridgeBackfillJobPromotesWithLimit(t *testing.T) {
	promoter := &fakePromoter{promoted: 3}
	job, err := NewBridgeBackfillJob(BridgeBackfillParams{Logger: testLogger(), Promoter: promoter, Limit: 25})
	if err != nil {
		t.Fatalf("NewBridgeBackfillJob: %v", err)
	}
	if job.Name() != "sales-order-backfill" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if promoter.calls != 1 || promoter.lastLimit != 25 {
		t.Fatalf("expected one call with limit 25, got %d calls limit %d", promoter.calls, promoter.lastLimit)
	}
}

func TestBridgeBackfillJobDefaultsLimit(t *testing.T) {
	promoter := &fakePromoter{}
	job, err := NewBridgeBackfillJob(BridgeBackfillParams{Logger: testLogger(), Promoter: promoter})
	if err != nil {
		t.Fatalf("NewBridgeBackfillJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if promoter.lastLimit != 50 {
		t.Fatalf("expected default limit 50, got %d", promoter.lastLimit)
	}
}

func TestBridgeBackfillJobPropagatesError(t *testing.T) {
	job, err := NewBridgeBackfillJob(BridgeBackfillParams{Logger: testLogger(), Promoter: &fakePromoter{err: errors.New("db down")}})
	if err != nil {
		t.Fatalf("NewBridgeBackfillJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewBridgeBackfillJobRequiresDependencies(t *testing.T) {
	if _, err := NewBridgeBackfillJob(BridgeBackfillParams{Promoter: &fakePromoter{}}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
	if _, err := NewBridgeBackfillJob(BridgeBackfillParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected missing promoter to fail")
	}
}
