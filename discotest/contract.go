package discotest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goforj/discocache/discocore"
)

// Options configures shared store contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// NullSemantics enables relaxed expectations for the null store.
	NullSemantics bool
	// SkipCloneCheck disables the "get returns a cloned value" assertion.
	SkipCloneCheck bool
	// TTL controls the expiry duration used in TTL tests.
	TTL time.Duration
	// TTLWait is how long the harness waits for expiry to occur.
	TTLWait time.Duration
	// SkipTTL disables the expiry assertion for stores that never expire
	// entries themselves, such as read-memoizing decorators.
	SkipTTL bool
	// SkipFlush disables the flush assertion for backends where it is expensive.
	SkipFlush bool
}

// Store is the minimal contract required by RunStoreContract.
type Store = discocore.Store

// RunStoreContract runs a backend-agnostic store contract suite.
func RunStoreContract(t *testing.T, store Store, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 50 * time.Millisecond
	}
	wait := opts.TTLWait
	if wait <= 0 {
		wait = 120 * time.Millisecond
	}

	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + s
	}

	// Put/Get round-trip.
	if err := store.Put(ctx, key("alpha"), []byte("value"), time.Second); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	body, ok, err := store.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if opts.NullSemantics {
		if ok {
			t.Fatalf("expected miss for null semantics")
		}
	} else {
		if !ok || string(body) != "value" {
			t.Fatalf("unexpected get result: ok=%v body=%q err=%v", ok, string(body), err)
		}
		if !opts.SkipCloneCheck {
			body[0] = 'X'
			body2, ok2, err2 := store.Get(ctx, key("alpha"))
			if err2 != nil || !ok2 || string(body2) != "value" {
				t.Fatalf("expected stored value unchanged, got ok=%v body=%q err=%v", ok2, string(body2), err2)
			}
		}

		// Put replaces, never accumulates.
		if err := store.Put(ctx, key("alpha"), []byte("value2"), time.Second); err != nil {
			t.Fatalf("overwrite put failed: %v", err)
		}
		body, ok, err = store.Get(ctx, key("alpha"))
		if err != nil || !ok || string(body) != "value2" {
			t.Fatalf("expected overwritten value, got ok=%v body=%q err=%v", ok, string(body), err)
		}
	}

	// TTL expiry.
	if !opts.SkipTTL {
		if err := store.Put(ctx, key("ttl"), []byte("v"), ttl); err != nil {
			t.Fatalf("put ttl failed: %v", err)
		}
		if err := waitForMiss(ctx, store, key("ttl"), wait); err != nil {
			t.Fatalf("expected ttl expiry: %v", err)
		}
	}

	// Delete.
	if err := store.Put(ctx, key("gone"), []byte("v"), time.Second); err != nil {
		t.Fatalf("put before delete failed: %v", err)
	}
	if err := store.Delete(ctx, key("gone")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, key("gone")); err != nil || ok {
		t.Fatalf("expected miss after delete, got ok=%v err=%v", ok, err)
	}
	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, key("never")); err != nil {
		t.Fatalf("delete of missing key failed: %v", err)
	}

	// Flush.
	if !opts.SkipFlush {
		if err := store.Put(ctx, key("flush-a"), []byte("v"), time.Minute); err != nil {
			t.Fatalf("put before flush failed: %v", err)
		}
		if err := store.Put(ctx, key("flush-b"), []byte("v"), time.Minute); err != nil {
			t.Fatalf("put before flush failed: %v", err)
		}
		if err := store.Flush(ctx); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		for _, k := range []string{key("flush-a"), key("flush-b")} {
			if _, ok, err := store.Get(ctx, k); err != nil || ok {
				t.Fatalf("expected miss after flush for %q, got ok=%v err=%v", k, ok, err)
			}
		}
	}
}

func waitForMiss(ctx context.Context, store Store, key string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		_, ok, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("key %q still present after %v", key, wait)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}
