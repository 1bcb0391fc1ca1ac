package discocache

import "context"

// Supplier produces service-instance snapshots for one logical service.
//
// Instances streams snapshots to yield in emission order until the stream
// ends. A nil return means the stream completed normally; a non-nil return
// means it failed and no further snapshots follow. Implementations must stop
// when ctx is canceled or when yield returns an error.
type Supplier interface {
	ServiceID() string
	Instances(ctx context.Context, yield func(Snapshot) error) error
}

// NewSupplier adapts a single-shot fetch function into a Supplier that emits
// one snapshot per subscription. Useful for wrapping plain discovery clients
// that return the current instance list on demand.
func NewSupplier(serviceID string, fetch func(ctx context.Context) (Snapshot, error)) Supplier {
	return &fetchSupplier{serviceID: serviceID, fetch: fetch}
}

type fetchSupplier struct {
	serviceID string
	fetch     func(ctx context.Context) (Snapshot, error)
}

func (s *fetchSupplier) ServiceID() string { return s.serviceID }

func (s *fetchSupplier) Instances(ctx context.Context, yield func(Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	return yield(snap)
}
