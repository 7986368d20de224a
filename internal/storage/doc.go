// Package storage persists records durably and resolves them back.
//
// The Backend interface is the narrow boundary every driver implements:
// put/get/url for record bytes, metadata upsert and lookup, prefix listing
// and deletion. Conforming drivers exist for the local filesystem, any
// S3-compatible object store, SQLite, and an in-memory variant used by
// tests. Each stored record occupies a disjoint (experiment, name, member)
// slot, so concurrent writers never contend on record bytes; only metadata
// updates for a shared (experiment, name) key are serialized, which each
// driver handles with a lock or an atomic upsert.
//
// Store wraps a Backend with the experiment-level surface: experiment
// registration and listing, whole-collection load, URL resolution, and
// record deletion.
package storage
