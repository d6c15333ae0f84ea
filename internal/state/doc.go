// Package state implements versioned mutable cells and the snapshot that
// schedules their mutation.
//
// A State never mutates in place when written. Set and Update enqueue an
// Operation on the owning Snapshot; the composition goroutine later drains
// the queue with ApplyPending, which mutates the cells and yields the ids
// that changed. Those ids are the invalidation frontier for the composer.
//
// Thread-safety model:
//   - Set/Update/Enqueue: safe from any goroutine (background tasks funnel
//     their results through here)
//   - ApplyPending/Next: called only by the goroutine that owns the
//     composition
//   - Get/Peek: safe from any goroutine; reads observe the value as of the
//     last applied batch
package state
