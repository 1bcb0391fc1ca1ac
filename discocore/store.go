package discocore

import (
	"context"
	"time"
)

// Store is the shared snapshot cache contract. Values are opaque encoded
// snapshots; the store never interprets them. Put with ttl <= 0 applies the
// store's default TTL.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}
