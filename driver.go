package discocache

import "github.com/goforj/discocache/discocore"

// Store is the snapshot store contract shared with driver implementations.
type Store = discocore.Store

// Driver identifies a snapshot store backend.
type Driver = discocore.Driver

const (
	DriverNull   = discocore.DriverNull
	DriverFile   = discocore.DriverFile
	DriverMemory = discocore.DriverMemory
	DriverDynamo = discocore.DriverDynamo
	DriverSQL    = discocore.DriverSQL
	DriverRedis  = discocore.DriverRedis
	DriverNATS   = discocore.DriverNATS
)
