package discocache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const natsEnvelopeMarker = "snap-v1"

// NATSKeyValue captures the subset of nats.KeyValue used by the store.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Purge(key string, opts ...nats.DeleteOpt) error
	ListKeys(opts ...nats.WatchOpt) (nats.KeyLister, error)
}

type natsStore struct {
	kv         NATSKeyValue
	defaultTTL time.Duration
	prefix     string
	bucketTTL  bool
}

// natsEnvelope carries per-entry expiry because a KV bucket has a single
// bucket-wide TTL. When the bucket owns expiry the envelope's ExpiresAt is
// left at zero.
type natsEnvelope struct {
	Marker    string `json:"m"`
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"ea"`
}

func newNATSStore(kv NATSKeyValue, defaultTTL time.Duration, prefix string, bucketTTL bool) Store {
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	return &natsStore{
		kv:         kv,
		defaultTTL: defaultTTL,
		prefix:     prefix,
		bucketTTL:  bucketTTL,
	}
}

func (s *natsStore) Driver() Driver { return DriverNATS }

func (s *natsStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.kv == nil {
		return nil, false, errors.New("nats snapshot store bucket unavailable")
	}
	entry, err := s.kv.Get(s.storeKey(key))
	if err != nil {
		if isNATSMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var envelope natsEnvelope
	if err := json.Unmarshal(entry.Value(), &envelope); err != nil || envelope.Marker != natsEnvelopeMarker {
		// Foreign or corrupt value in the bucket; report a miss.
		return nil, false, nil
	}
	if envelope.ExpiresAt > 0 && time.Now().UnixNano() > envelope.ExpiresAt {
		_ = s.kv.Purge(s.storeKey(key))
		return nil, false, nil
	}
	return envelope.Value, true, nil
}

func (s *natsStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.kv == nil {
		return errors.New("nats snapshot store bucket unavailable")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	envelope := natsEnvelope{Marker: natsEnvelopeMarker, Value: value}
	if !s.bucketTTL {
		envelope.ExpiresAt = time.Now().Add(ttl).UnixNano()
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = s.kv.Put(s.storeKey(key), body)
	return err
}

func (s *natsStore) Delete(_ context.Context, key string) error {
	if s.kv == nil {
		return errors.New("nats snapshot store bucket unavailable")
	}
	if err := s.kv.Delete(s.storeKey(key)); err != nil && !isNATSMiss(err) {
		return err
	}
	return nil
}

func (s *natsStore) Flush(_ context.Context) error {
	if s.kv == nil {
		return errors.New("nats snapshot store bucket unavailable")
	}
	lister, err := s.kv.ListKeys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}
		return err
	}
	defer func() { _ = lister.Stop() }()
	keyPrefix := s.prefix + "."
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		if err := s.kv.Purge(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}

// isNATSMiss reports whether err means the key holds no usable value: never
// written, or tombstoned by a delete/purge marker.
func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

// storeKey maps an arbitrary cache key onto the KV bucket's restricted key
// alphabet.
func (s *natsStore) storeKey(key string) string {
	return s.prefix + "." + base64.RawURLEncoding.EncodeToString([]byte(key))
}
