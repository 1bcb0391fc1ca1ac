package discocache

import "encoding/json"

// Instance is one reachable endpoint backing a service id. The pipeline never
// inspects the fields; they exist so a snapshot can round-trip through a
// store and be handed to a load-balancing layer above.
type Instance struct {
	ID       string            `json:"instance_id,omitempty"`
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	Secure   bool              `json:"secure,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Snapshot is an ordered list of instances valid as of one fetch. Treat it as
// immutable once produced; suppliers emit fresh slices rather than mutating
// earlier ones.
type Snapshot []Instance

// Clone returns a copy that shares no backing array with s. Metadata maps are
// copied too.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	for i := range out {
		if out[i].Metadata == nil {
			continue
		}
		md := make(map[string]string, len(out[i].Metadata))
		for k, v := range out[i].Metadata {
			md[k] = v
		}
		out[i].Metadata = md
	}
	return out
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func decodeSnapshot(body []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
