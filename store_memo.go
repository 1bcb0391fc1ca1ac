package discocache

import (
	"context"
	"sync"
	"time"
)

type memoEntry struct {
	body []byte
	ok   bool
}

// NewMemoStore decorates store with per-process read memoization. Reads that
// hit the memo never reach the backing store; writes and deletes keep the
// memo coherent for this process only.
func NewMemoStore(store Store) Store {
	return &memoStore{
		store: store,
		items: make(map[string]memoEntry),
	}
}

type memoStore struct {
	store Store
	mu    sync.RWMutex
	items map[string]memoEntry
}

func (s *memoStore) Driver() Driver {
	return s.store.Driver()
}

func (s *memoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return cloneBytes(entry.body), entry.ok, nil
	}

	body, exists, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	s.items[key] = memoEntry{body: cloneBytes(body), ok: exists}
	s.mu.Unlock()
	return body, exists, nil
}

func (s *memoStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.store.Put(ctx, key, value, ttl); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[key] = memoEntry{body: cloneBytes(value), ok: true}
	s.mu.Unlock()
	return nil
}

func (s *memoStore) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *memoStore) Flush(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = make(map[string]memoEntry)
	s.mu.Unlock()
	return nil
}
