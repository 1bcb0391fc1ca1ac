package discocache

import (
	"context"
	"sync"
)

// flight is one shared cache-population run for a single store key. The first
// caller to miss starts it; later callers attach, replay the emissions
// recorded so far, then follow live ones. The run's context is canceled when
// the last attached caller leaves, so an abandoned delegate subscription does
// not run on in the background.
type flight struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	signals []Snapshot
	done    bool
	err     error
	wake    chan struct{} // closed and replaced on every state change

	refs int // guarded by flightGroup.mu
}

type flightGroup struct {
	mu       sync.Mutex
	inflight map[string]*flight
}

// join attaches the caller to the in-flight run for key, creating one when
// none is running. The bool reports whether the caller started the flight.
func (g *flightGroup) join(key string) (*flight, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flight)
	}
	if f, ok := g.inflight[key]; ok {
		f.refs++
		return f, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &flight{ctx: ctx, cancel: cancel, wake: make(chan struct{}), refs: 1}
	g.inflight[key] = f
	return f, true
}

// leave detaches one caller and tears the flight down when it was the last.
func (g *flightGroup) leave(key string, f *flight) {
	g.mu.Lock()
	f.refs--
	last := f.refs == 0
	if last && g.inflight[key] == f {
		delete(g.inflight, key)
	}
	g.mu.Unlock()
	if last {
		f.cancel()
	}
}

// detach removes a completed flight from the group so the next miss starts a
// fresh run. Callers still attached keep draining the recorded emissions.
func (g *flightGroup) detach(key string, f *flight) {
	g.mu.Lock()
	if g.inflight[key] == f {
		delete(g.inflight, key)
	}
	g.mu.Unlock()
}

func (f *flight) publish(snap Snapshot) {
	f.mu.Lock()
	f.signals = append(f.signals, snap)
	close(f.wake)
	f.wake = make(chan struct{})
	f.mu.Unlock()
}

func (f *flight) finish(err error) {
	f.mu.Lock()
	f.done = true
	f.err = err
	close(f.wake)
	f.mu.Unlock()
}

// next returns emission i when it has been recorded. When ok is false and
// done is true the flight ended with err; otherwise the caller should wait on
// wake and ask again.
func (f *flight) next(i int) (snap Snapshot, ok bool, done bool, err error, wake <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < len(f.signals) {
		return f.signals[i], true, false, nil, nil
	}
	if f.done {
		return nil, false, true, f.err, nil
	}
	return nil, false, false, nil, f.wake
}

// emitted returns a copy of everything published so far.
func (f *flight) emitted() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Snapshot, len(f.signals))
	copy(out, f.signals)
	return out
}
