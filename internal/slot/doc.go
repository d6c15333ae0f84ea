// Package slot implements the slot table: a flat, positionally addressed
// store of group, data and node slots backed by a gap buffer.
//
// There are no pointers between slots. A group or node slot records how many
// slots it owns (Length); the slots it owns follow it immediately, so a whole
// subtree is skipped by seeking past start+1+Length without visiting it.
//
// INVARIANTS:
//   - Every group and node Length equals the number of slots it transitively
//     owns. Verify checks this with a full walk.
//   - Every group Nodes count equals the number of applier nodes it owns
//     directly (nodes nested inside another node are not counted).
//   - Reading outside the logical range panics with *BoundsError. The table
//     never fabricates a slot.
//
// The table is not safe for concurrent use. A composition owns exactly one
// table and drives it from a single goroutine.
package slot
