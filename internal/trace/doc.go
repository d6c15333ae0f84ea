// Package trace records the structural operations a composition emits.
//
// An Op is one applier call (insert, update, remove, shift, clear). A trace
// is the ordered list of ops of one or more passes. Traces have a canonical
// JSON form and a content hash, so two runs of the same scenario can be
// compared byte for byte (golden files) or by hash (replay).
package trace
