// Package compose implements the composer: the protocol that drives a
// depth-first, linear traversal of the slot table and decides, group by
// group, whether to reuse, rebuild or insert.
//
// ARCHITECTURE:
//
// Composables are plain functions taking an explicit *Composer handle:
//
//	func Counter(c *compose.Composer, count *state.State[int]) {
//		c.Element("column", func(c *compose.Composer) {
//			c.Node(fmt.Sprintf("count=%d", count.Get(c)))
//		})
//	}
//
// Every RestartGroup owns a Scope. Reads of a State inside the group's body
// are attributed to that scope; when the state is written, Recompose jumps
// straight to the scope's slot index and re-runs only that group through its
// stored resume closure. Sibling scopes are not visited.
//
// Structural decisions reach the target tree through the Applier interface
// (insert, update, remove, shift); the composer never touches the target
// tree directly.
//
// Single-Writer Composition:
// All table, scope and applier mutation happens on the goroutine that calls
// Compose/Recompose. Concurrent composition is unsupported and detected as a
// REENTRANT contract error. The only cross-goroutine entry point is a state
// write, which goes through the snapshot queue.
//
// ERROR HANDLING:
// Contract violations (hook order, slot kind, missing context) and applier
// failures abort the pass. They are raised internally and recovered at the
// pass boundary, where Compose/Recompose return them as *ContractError or
// *ApplyError. An aborted composer refuses further passes until Reset.
package compose
