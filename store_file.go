package discocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type fileRecord struct {
	ExpiresAt int64  `json:"expires_at"`
	Value     []byte `json:"value"`
}

type fileStore struct {
	dir        string
	defaultTTL time.Duration
}

func newFileStore(dir string, defaultTTL time.Duration) Store {
	if dir == "" {
		dir = defaultFileDir()
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	return &fileStore{dir: dir, defaultTTL: defaultTTL}
}

func (s *fileStore) Driver() Driver { return DriverFile }

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var record fileRecord
	if err := json.Unmarshal(body, &record); err != nil {
		// Corrupt entry; drop it and report a miss.
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}
	if record.ExpiresAt > 0 && time.Now().UnixNano() > record.ExpiresAt {
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}
	return record.Value, true, nil
}

func (s *fileStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	record := fileRecord{
		ExpiresAt: time.Now().Add(ttl).UnixNano(),
		Value:     value,
	}
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	// Write to a temp file and rename so readers never observe a torn entry.
	tmp, err := os.CreateTemp(s.dir, "entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) Flush(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *fileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".cache")
}
