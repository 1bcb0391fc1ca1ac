package discocache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Minute, time.Minute)

	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
	if err := store.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	body, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "v" {
		t.Fatalf("unexpected get: ok=%v body=%q err=%v", ok, body, err)
	}

	// Returned bytes are a clone.
	body[0] = 'X'
	body, ok, err = store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "v" {
		t.Fatalf("expected stored value unchanged, got %q", body)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Minute, 10*time.Millisecond)

	if err := store.Put(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected expiry; ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreFlush(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Minute, time.Minute)

	for _, k := range []string{"a", "b"} {
		if err := store.Put(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("put %q failed: %v", k, err)
		}
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, ok, _ := store.Get(ctx, k); ok {
			t.Fatalf("expected %q flushed", k)
		}
	}
}
