// Package reconcile is a statically typed alternative to the slot-table
// composer for trees whose node types are known at compile time.
//
// Each shape (Node, Leaf, Option, Keyed, Tuple2, Tuple3) implements Body:
// it can Build itself, Rebuild against a predecessor of the same type, and
// Remove itself. A Node holds a comparable view; when the view is unchanged
// its previous body is transplanted without re-running the builder.
//
// Lifecycle of a node: Unbuilt -> Built -> {Rebuilt | Removed}.
//
// Keyed lists are matched by key in O(n*m), with no move minimization. List
// sizes in this domain are small and stable identity matters more than diff
// optimality.
package reconcile
