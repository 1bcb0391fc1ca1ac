package discocache

import (
	"context"
	"time"

	"github.com/goforj/discocache/discocore"
)

// Pipeline operations reported to observers.
const (
	OpLookup    = "lookup"
	OpResolve   = "resolve"
	OpWriteback = "writeback"
)

// Observer receives events for pipeline operations. OpLookup carries the
// hit/miss outcome of the store read, OpResolve the delegate run, OpWriteback
// each store write. Errors passed here include the ones the pipeline swallows.
type Observer interface {
	OnCacheOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver discocore.Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver discocore.Driver)

// OnCacheOp implements Observer.
func (f ObserverFunc) OnCacheOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver discocore.Driver) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur, driver)
}
