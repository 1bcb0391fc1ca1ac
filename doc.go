// Package discocache caches service-instance snapshots in front of a
// discovery delegate. A CachingSupplier answers lookups from a snapshot Store
// when it can and falls through to the delegate when it cannot, sharing one
// population run between concurrent callers and writing the result back for
// the next lookup. Stores exist for memory, file, redis, NATS KV, DynamoDB
// and SQL backends; all of them are interchangeable behind discocore.Store.
package discocache
