package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

func TestMemoryStore_UpdateAndLoad(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	p := samplePurchaseProcess(t, domain.StateValid)

	if err := store.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.Load(ctx, p.SessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.State != domain.StateValid {
		t.Errorf("expected state valid, got %s", loaded.State)
	}
	if loaded.GatewaySubmitNumber != p.GatewaySubmitNumber {
		t.Errorf("submit number not preserved, got %d", loaded.GatewaySubmitNumber)
	}
}

func TestMemoryStore_LoadMissingSession(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	p := samplePurchaseProcess(t, domain.StatePending)
	if err := store.Update(context.Background(), p); err != nil {
		t.Fatalf("update: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := store.Load(context.Background(), p.SessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	expiring := samplePurchaseProcess(t, domain.StatePending)
	if err := store.Update(ctx, expiring); err != nil {
		t.Fatalf("update: %v", err)
	}

	current = current.Add(30 * time.Second)
	fresh := samplePurchaseProcess(t, domain.StateValid)
	fresh.SessionID = "session-fresh"
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("update: %v", err)
	}

	removed := store.Sweep(current.Add(45 * time.Second))
	if removed != 1 {
		t.Fatalf("expected 1 swept entry, got %d", removed)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 live entry, got %d", store.Count())
	}
	if _, err := store.Load(ctx, "session-fresh"); err != nil {
		t.Errorf("fresh session should survive the sweep: %v", err)
	}
}
