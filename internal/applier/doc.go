// Package applier provides compose.Applier backends: an in-memory Tree that
// owns a target node tree, a Recorder that records every structural
// operation as a trace.Op, and an HTML rendering of a Tree.
package applier
