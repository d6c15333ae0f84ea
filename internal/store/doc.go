// Package store provides SQLite-backed durable storage for composition traces.
//
// The store is an append-only log with:
//   - Runs: one scenario execution (app, discipline, trace hash)
//   - Passes: the per-pass counters reported by the composer
//   - Ops: every applier operation, in sequence order
//
// # Ordering
//
// All ordering uses the logical seq column, never wall time, so reading a
// run back yields the exact trace that was recorded. Queries order by
// seq ASC (ops) or pass ASC (passes).
//
// # Values
//
// Op values are stored as msgpack blobs. Everything else is a plain column.
//
// # Connection
//
// One connection in WAL mode with a 5s busy timeout and foreign keys on.
// Schema upgrades are keyed on PRAGMA user_version.
package store
