// Package harness runs composition scenarios against the demo apps and
// checks the resulting applier trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: counter-increment
//	description: "label follows the count"
//	app: counter
//	discipline: top_down
//	steps:
//	  - set: {state: count, value: 3}
//	  - recompose: {}
//	assertions:
//	  - type: op_count
//	    op: update
//	    count: 1
//	  - type: expr
//	    expr: 'text contains "count=3"'
//
// The app is composed once before the first step (pass 1). A set step
// schedules a state write; a recompose step applies pending writes and
// recomposes the scopes that read them; a compose step re-runs the whole
// root.
//
// # Assertion Types
//
//   - op_count: ops of kind op number exactly count (optionally in one pass)
//   - op_contains: an op of kind op carries value (optionally in one pass)
//   - recomposed: scopes recomposed across all passes (or in one pass)
//   - tree_contains: some node of the final tree has value text
//   - expr: an expr-lang boolean over the final tree and trace
//
// # Deterministic Testing
//
// Ops are numbered by testutil.DeterministicClock and node ids are minted
// from 1 on every run, so the same scenario always yields the same trace
// and trace hash. Golden files in testdata/golden hold trace.Text of a run.
//
// # Validation
//
// Validate checks a scenario document against an embedded CUE schema
// before it is decoded; LoadScenario then decodes it strictly.
package harness
