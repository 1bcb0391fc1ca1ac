package discocache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// countingStore wraps a Store and counts backend reads.
type countingStore struct {
	Store
	mu   sync.Mutex
	gets int
	err  error
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	c.gets++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return c.Store.Get(ctx, key)
}

func (c *countingStore) getCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func TestMemoStoreMemoizesReads(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: newMemoryStore(time.Minute, time.Minute)}
	store := NewMemoStore(inner)

	if store.Driver() != DriverMemory {
		t.Fatalf("expected driver passthrough, got %q", store.Driver())
	}
	if err := store.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		body, ok, err := store.Get(ctx, "k")
		if err != nil || !ok || string(body) != "v" {
			t.Fatalf("get %d failed: ok=%v body=%q err=%v", i, ok, body, err)
		}
	}
	if got := inner.getCount(); got != 0 {
		t.Fatalf("expected put to prime the memo, backend reads=%d", got)
	}

	// Misses are memoized too.
	for i := 0; i < 3; i++ {
		if _, ok, err := store.Get(ctx, "absent"); err != nil || ok {
			t.Fatalf("expected memoized miss; ok=%v err=%v", ok, err)
		}
	}
	if got := inner.getCount(); got != 1 {
		t.Fatalf("expected one backend read for a memoized miss, got %d", got)
	}
}

func TestMemoStoreInvalidatesOnWriteDeleteFlush(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: newMemoryStore(time.Minute, time.Minute)}
	store := NewMemoStore(inner)

	if err := store.Put(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if body, ok, _ := store.Get(ctx, "k"); !ok || string(body) != "v2" {
		t.Fatalf("expected memo refreshed on put, got %q", body)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}

	if err := store.Put(ctx, "k2", []byte("v"), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k2"); ok {
		t.Fatalf("expected miss after flush")
	}
}

func TestMemoStoreDoesNotMemoizeErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: newMemoryStore(time.Minute, time.Minute)}
	store := NewMemoStore(inner)

	inner.err = errors.New("backend down")
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatalf("expected backend error surfaced")
	}
	inner.err = nil

	if err := store.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if body, ok, err := store.Get(ctx, "k"); err != nil || !ok || string(body) != "v" {
		t.Fatalf("expected recovery after error, got ok=%v body=%q err=%v", ok, body, err)
	}
}
