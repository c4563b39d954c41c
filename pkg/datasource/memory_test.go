package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

func newStore() *MemoryStore {
	return NewMemoryStore("App", []tabular.Record{
		{"Id": 1, "AppName": "One"},
		{"Id": 4, "AppName": "Four"},
	}, Latency{})
}

func TestMemoryStoreCreateAssignsNextID(t *testing.T) {
	store := newStore()
	created, err := store.Create(context.Background(), tabular.Record{"Id": 99, "AppName": "Five"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id, _ := created.ID(); id != 5 {
		t.Fatalf("expected id 5, got %v", created["Id"])
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", store.Len())
	}
}

func TestMemoryStoreGetMissingReturnsNotFound(t *testing.T) {
	store := newStore()
	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, dashboard.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "App not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestMemoryStoreUpdateKeepsID(t *testing.T) {
	store := newStore()
	updated, err := store.Update(context.Background(), 4, tabular.Record{"Id": 7, "AppName": "Renamed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if id, _ := updated.ID(); id != 4 || updated.String("AppName") != "Renamed" {
		t.Fatalf("unexpected record %#v", updated)
	}
	if _, err := store.Update(context.Background(), 9, tabular.Record{}); !errors.Is(err, dashboard.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreDeleteRemovesRecord(t *testing.T) {
	store := newStore()
	removed, err := store.Delete(context.Background(), 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.String("AppName") != "One" {
		t.Fatalf("unexpected removed record %#v", removed)
	}
	all, _ := store.All(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one record left, got %d", len(all))
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := newStore()
	all, _ := store.All(context.Background())
	all[0]["AppName"] = "mutated"
	rec, _ := store.Get(context.Background(), 1)
	if rec.String("AppName") != "One" {
		t.Fatalf("store leaked internal record")
	}
}

func TestMemoryStoreLatencyHonorsContext(t *testing.T) {
	store := NewMemoryStore("App", nil, Latency{All: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := store.All(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFlakyFailsWhenRollBelowRate(t *testing.T) {
	repo := NewFlaky(newStore(), 0.5).(*Flaky)
	repo.roll = func() float64 { return 0.1 }
	if _, err := repo.All(context.Background()); !errors.Is(err, ErrSimulatedOutage) {
		t.Fatalf("expected outage, got %v", err)
	}
	repo.roll = func() float64 { return 0.9 }
	if _, err := repo.Get(context.Background(), 1); err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
}

func TestNewFlakyZeroRateReturnsNext(t *testing.T) {
	store := newStore()
	if got := NewFlaky(store, 0); got != dashboard.Repository(store) {
		t.Fatalf("expected unwrapped store")
	}
}
