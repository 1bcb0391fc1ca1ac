package discocache

import (
	"context"
	"time"
)

// nullStore never retains anything; every read is a miss. Wiring it into a
// CachingSupplier turns caching off without touching the pipeline.
type nullStore struct{}

func newNullStore() Store { return &nullStore{} }

func (s *nullStore) Driver() Driver { return DriverNull }

func (s *nullStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *nullStore) Put(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (s *nullStore) Delete(context.Context, string) error { return nil }

func (s *nullStore) Flush(context.Context) error { return nil }
