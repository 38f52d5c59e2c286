package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client)
}

func TestClaimIsExclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "pi_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	claimed, err = store.Claim(ctx, "pi_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed {
		t.Fatal("expected second claim to fail")
	}
}

func TestClaimIsPerKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, "pi_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claimed, err := store.Claim(ctx, "pi_456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim on a different key to succeed")
	}
}

func TestReleaseAllowsReclaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, "pi_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Release(ctx, "pi_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claimed, err := store.Claim(ctx, "pi_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed after release")
	}
}
