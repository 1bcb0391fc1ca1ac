package discocache

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log/level"
)

// CacheName is the fixed namespace prepended to service ids when addressing
// the snapshot store. It is not configurable; every caching supplier in a
// process shares it, so two suppliers for the same service id share entries.
const CacheName = "CachingSupplierCache"

var (
	// ErrNoDelegate is returned by New when no delegate supplier is given.
	ErrNoDelegate = errors.New("discocache: caching supplier requires a delegate supplier")
	// ErrNoStore is returned by New when no snapshot store is given.
	ErrNoStore = errors.New("discocache: caching supplier requires a snapshot store")
)

// CachingSupplier is a cache-aside decorator around a delegate Supplier. A
// lookup is answered from the store when it holds a non-empty snapshot;
// otherwise the delegate is subscribed, its emissions are forwarded to the
// caller and, on successful completion, written back to the store. Concurrent
// callers that miss on the same key share a single delegate run.
//
// Store failures never reach the caller: a failed read degrades to a miss and
// a failed write is dropped, both logged at error level. Delegate failures
// are returned verbatim. The supplier holds no lock across store or delegate
// calls; thread safety of both collaborators is their own concern.
type CachingSupplier struct {
	delegate Supplier
	store    Store
	ttl      time.Duration
	logger   logger
	observer Observer
	flights  flightGroup
}

// New builds a caching supplier around delegate and store. Both are
// mandatory; a missing one fails construction with ErrNoDelegate or
// ErrNoStore.
func New(delegate Supplier, store Store, opts ...Option) (*CachingSupplier, error) {
	if delegate == nil {
		return nil, ErrNoDelegate
	}
	if store == nil {
		return nil, ErrNoStore
	}
	cfg := supplierConfig{}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return &CachingSupplier{
		delegate: delegate,
		store:    store,
		ttl:      cfg.ttl,
		logger:   newLogger(cfg.logger),
		observer: cfg.observer,
	}, nil
}

// ServiceID reports the delegate's service id.
func (s *CachingSupplier) ServiceID() string {
	return s.delegate.ServiceID()
}

// Instances implements Supplier with cache-aside semantics: one snapshot and
// normal completion on a hit, the delegate's full stream on a miss.
func (s *CachingSupplier) Instances(ctx context.Context, yield func(Snapshot) error) error {
	key := s.cacheKey()
	start := time.Now()
	snap, hit, err := s.lookup(ctx, key)
	s.observe(ctx, OpLookup, key, hit, err, start)
	if hit {
		return yield(snap)
	}
	return s.resolve(ctx, key, yield)
}

func (s *CachingSupplier) cacheKey() string {
	return CacheName + ":" + s.delegate.ServiceID()
}

// lookup reads the cached snapshot for key. A store failure, an undecodable
// value and an empty or absent snapshot all degrade to a miss; the returned
// error records what was swallowed.
func (s *CachingSupplier) lookup(ctx context.Context, key string) (Snapshot, bool, error) {
	body, ok, err := s.store.Get(ctx, key)
	if err != nil {
		level.Error(s.logger).Log("msg", "snapshot cache read failed", "cache", CacheName, "service", s.ServiceID(), "err", err)
		return nil, false, err
	}
	if !ok || len(body) == 0 {
		return nil, false, nil
	}
	snap, err := decodeSnapshot(body)
	if err != nil {
		level.Error(s.logger).Log("msg", "cached snapshot not decodable", "cache", CacheName, "service", s.ServiceID(), "err", err)
		return nil, false, err
	}
	if len(snap) == 0 {
		return nil, false, nil
	}
	return snap, true, nil
}

// resolve attaches the caller to the shared population flight for key,
// starting one when none is running, and streams its emissions to yield.
func (s *CachingSupplier) resolve(ctx context.Context, key string, yield func(Snapshot) error) error {
	f, started := s.flights.join(key)
	if started {
		go s.runFlight(f, key)
	}
	defer s.flights.leave(key, f)

	for i := 0; ; {
		snap, ok, done, ferr, wake := f.next(i)
		switch {
		case ok:
			i++
			if err := yield(snap); err != nil {
				return err
			}
		case done:
			return ferr
		default:
			select {
			case <-wake:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// runFlight subscribes to the delegate and broadcasts every emission to the
// callers attached to the flight. On normal completion each non-empty
// snapshot is written back, in emission order, before waiters are released;
// on failure nothing is written and the delegate error reaches every attached
// caller untouched.
func (s *CachingSupplier) runFlight(f *flight, key string) {
	start := time.Now()
	err := s.delegate.Instances(f.ctx, func(snap Snapshot) error {
		f.publish(snap)
		return nil
	})
	s.observe(f.ctx, OpResolve, key, false, err, start)
	if err == nil {
		s.writeBack(f.ctx, key, f.emitted())
	}
	s.flights.detach(key, f)
	f.finish(err)
}

// writeBack stores the emitted snapshots under key. Empty snapshots are
// skipped: serving one later as authoritative would hide every instance, so
// the next lookup must miss instead. Write failures are logged and dropped.
func (s *CachingSupplier) writeBack(ctx context.Context, key string, snaps []Snapshot) {
	for _, snap := range snaps {
		if len(snap) == 0 {
			continue
		}
		start := time.Now()
		body, err := encodeSnapshot(snap)
		if err == nil {
			err = s.store.Put(ctx, key, body, s.ttl)
		}
		s.observe(ctx, OpWriteback, key, false, err, start)
		if err != nil {
			level.Error(s.logger).Log("msg", "snapshot cache write failed", "cache", CacheName, "service", s.ServiceID(), "err", err)
		}
	}
}

func (s *CachingSupplier) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.OnCacheOp(ctx, op, key, hit, err, time.Since(start), s.store.Driver())
}

var _ Supplier = (*CachingSupplier)(nil)
