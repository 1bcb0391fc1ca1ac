package discofake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goforj/discocache"
)

// Op identifies a store operation for assertions.
type Op string

const (
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpFlush  Op = "flush"
)

// Store is a deterministic in-memory snapshot store plus assertion helpers.
// Failures can be injected per operation to exercise degradation paths; an
// injected failure still counts the call but never touches the inner store.
type Store struct {
	inner discocache.Store

	mu     sync.Mutex
	counts map[Op]map[string]int
	getErr error
	putErr error
}

// NewStore creates a Store backed by the in-process memory driver.
func NewStore() *Store {
	return &Store{
		inner:  discocache.NewMemoryStore(context.Background()),
		counts: make(map[Op]map[string]int),
	}
}

// FailGets makes every Get return err until called with nil.
func (f *Store) FailGets(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

// FailPuts makes every Put return err until called with nil.
func (f *Store) FailPuts(err error) {
	f.mu.Lock()
	f.putErr = err
	f.mu.Unlock()
}

// Reset clears recorded counts.
func (f *Store) Reset() {
	f.mu.Lock()
	f.counts = make(map[Op]map[string]int)
	f.mu.Unlock()
}

// AssertCalled verifies key was touched by op the expected number of times.
func (f *Store) AssertCalled(t *testing.T, op Op, key string, times int) {
	t.Helper()
	if got := f.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, key, times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (f *Store) AssertNotCalled(t *testing.T, op Op, key string) {
	t.Helper()
	if got := f.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, key, got)
	}
}

// Count returns calls for op+key.
func (f *Store) Count(op Op, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		return 0
	}
	return f.counts[op][key]
}

// Total returns total calls for an op across keys.
func (f *Store) Total(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int
	for _, v := range f.counts[op] {
		sum += v
	}
	return sum
}

func (f *Store) record(op Op, key string) {
	f.mu.Lock()
	if f.counts[op] == nil {
		f.counts[op] = make(map[string]int)
	}
	f.counts[op][key]++
	f.mu.Unlock()
}

func (f *Store) Driver() discocache.Driver { return f.inner.Driver() }

func (f *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.record(OpGet, key)
	f.mu.Lock()
	err := f.getErr
	f.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return f.inner.Get(ctx, key)
}

func (f *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.record(OpPut, key)
	f.mu.Lock()
	err := f.putErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.inner.Put(ctx, key, value, ttl)
}

func (f *Store) Delete(ctx context.Context, key string) error {
	f.record(OpDelete, key)
	return f.inner.Delete(ctx, key)
}

func (f *Store) Flush(ctx context.Context) error {
	f.record(OpFlush, "")
	return f.inner.Flush(ctx)
}

var _ discocache.Store = (*Store)(nil)
