package discofake

import (
	"context"
	"sync"
	"testing"

	"github.com/goforj/discocache"
)

// Supplier is a scripted delegate for tests. Each subscription emits the
// configured snapshots in order and then completes with the configured error.
// Subscriptions are counted so tests can assert the delegate was, or was not,
// consulted.
type Supplier struct {
	serviceID string

	mu        sync.Mutex
	emissions []discocache.Snapshot
	err       error
	gate      <-chan struct{}
	calls     int
}

// NewSupplier creates a scripted supplier for serviceID emitting snaps.
func NewSupplier(serviceID string, snaps ...discocache.Snapshot) *Supplier {
	return &Supplier{serviceID: serviceID, emissions: snaps}
}

// FailWith makes the stream end with err after its emissions.
func (s *Supplier) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Emit replaces the scripted emissions.
func (s *Supplier) Emit(snaps ...discocache.Snapshot) {
	s.mu.Lock()
	s.emissions = snaps
	s.mu.Unlock()
}

// HoldUntil blocks every subscription until release is closed, letting tests
// pile up concurrent callers on one in-flight run.
func (s *Supplier) HoldUntil(release <-chan struct{}) {
	s.mu.Lock()
	s.gate = release
	s.mu.Unlock()
}

// Calls reports how many times Instances has been invoked.
func (s *Supplier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// AssertCalls fails the test unless Instances was invoked want times.
func (s *Supplier) AssertCalls(t *testing.T, want int) {
	t.Helper()
	if got := s.Calls(); got != want {
		t.Fatalf("expected %d delegate calls, got %d", want, got)
	}
}

func (s *Supplier) ServiceID() string { return s.serviceID }

func (s *Supplier) Instances(ctx context.Context, yield func(discocache.Snapshot) error) error {
	s.mu.Lock()
	s.calls++
	emissions := s.emissions
	failure := s.err
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, snap := range emissions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(snap); err != nil {
			return err
		}
	}
	return failure
}

var _ discocache.Supplier = (*Supplier)(nil)
