package discocache

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultCachePrefix = "disco"

	// defaultCacheTTL bounds how stale a served snapshot can get before the
	// delegate is consulted again.
	defaultCacheTTL = 35 * time.Second

	defaultMemoryCleanupInterval = time.Minute
	defaultDynamoTable           = "snapshot_cache"
	defaultDynamoRegion          = "us-east-1"
	defaultSQLTable              = "snapshot_cache"
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "discocache-file")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	Driver Driver

	// DefaultTTL is used when a put provides ttl <= 0.
	DefaultTTL time.Duration

	// MemoryCleanupInterval controls in-process store eviction sweeps.
	MemoryCleanupInterval time.Duration

	// Prefix scopes keys on shared backends (redis, nats, dynamodb, sql).
	Prefix string

	// FileDir controls where the file driver stores entries.
	FileDir string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used. NATSBucketTTL marks
	// the bucket as owning expiry, disabling the store's own envelope expiry.
	NATSKeyValue  NATSKeyValue
	NATSBucketTTL bool

	// DynamoClient may be supplied directly; otherwise DynamoRegion and
	// optionally DynamoEndpoint are used to construct one. DynamoTable is
	// created when missing.
	DynamoClient   DynamoAPI
	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string

	// SQLDriverName and SQLDSN are required when DriverSQL is used; the
	// mysql, pgx and sqlite drivers are linked in.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = defaultCacheTTL
	}
	if c.MemoryCleanupInterval <= 0 {
		c.MemoryCleanupInterval = defaultMemoryCleanupInterval
	}
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	return c
}
