package discocache

import "context"

// StaticSupplier serves a fixed snapshot. It suits services with a known
// address set and doubles as a simple delegate in tests.
type StaticSupplier struct {
	serviceID string
	snapshot  Snapshot
}

// NewStaticSupplier builds a supplier that always emits the given instances.
func NewStaticSupplier(serviceID string, instances ...Instance) *StaticSupplier {
	return &StaticSupplier{serviceID: serviceID, snapshot: Snapshot(instances)}
}

func (s *StaticSupplier) ServiceID() string { return s.serviceID }

// Instances emits the fixed snapshot once and completes.
func (s *StaticSupplier) Instances(ctx context.Context, yield func(Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return yield(s.snapshot.Clone())
}
