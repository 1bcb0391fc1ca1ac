// Package discotest provides a backend-agnostic contract suite for snapshot
// store implementations. Driver packages and integration suites run
// RunStoreContract against a live store to prove it honors the discocore.Store
// semantics the caching supplier relies on.
package discotest
