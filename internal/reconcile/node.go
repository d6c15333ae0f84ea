package reconcile

import (
	"github.com/roach88/recompose/internal/hooks"
)

// Body is a realized subtree. B is the concrete body type itself, so that
// Rebuild receives a predecessor of exactly the same shape.
type Body[B any] interface {
	Build(rt *Runtime)
	Rebuild(rt *Runtime, prev B)
	Remove(rt *Runtime)
}

// Lifecycle is the state of a Node.
type Lifecycle uint8

const (
	Unbuilt Lifecycle = iota
	Built
	Rebuilt
	Removed
)

// Scope is a node's persistent storage across rebuilds.
type Scope struct {
	hooks hooks.List
}

// OnDrop registers f to run when the owning node is removed, before any of
// its children are removed.
func (s *Scope) OnDrop(f func()) {
	if err := s.hooks.OnDrop(f); err != nil {
		panic(err)
	}
}

// UseRef returns the scope's persistent cell at the current position.
func UseRef[T any](s *Scope, make func() T) *T {
	p, _, err := hooks.Use(&s.hooks, make)
	if err != nil {
		panic(err)
	}
	return p
}

// Node couples a comparable view with the body its builder derives from it.
type Node[V comparable, B Body[B]] struct {
	label   string
	view    V
	builder func(*Scope, V) B

	id    uint64
	body  B
	scope *Scope
	state Lifecycle
}

// NewNode returns an unbuilt node.
func NewNode[V comparable, B Body[B]](label string, view V, builder func(*Scope, V) B) *Node[V, B] {
	return &Node[V, B]{label: label, view: view, builder: builder}
}

// View returns the node's view.
func (n *Node[V, B]) View() V { return n.view }

// Body returns the realized body. Valid after Build or Rebuild.
func (n *Node[V, B]) Body() B { return n.body }

// State returns the node's lifecycle state.
func (n *Node[V, B]) State() Lifecycle { return n.state }

// ID returns the registry id, 0 before Build.
func (n *Node[V, B]) ID() uint64 { return n.id }

// Build registers the node, runs its builder and builds the body.
func (n *Node[V, B]) Build(rt *Runtime) {
	n.id = rt.registry.Register(n.label)
	n.scope = &Scope{}
	n.run()
	n.body.Build(rt)
	n.state = Built
	rt.emit(EventBuilt, n.id, n.label)
}

// Rebuild takes over prev, re-running the builder only if the view changed.
func (n *Node[V, B]) Rebuild(rt *Runtime, prev *Node[V, B]) {
	n.RebuildChanged(rt, prev, n.view != prev.view)
}

// RebuildChanged takes over prev's identity and scope. When changed is false
// prev's body is transplanted as is; otherwise the builder runs and the new
// body is diffed against the old one.
func (n *Node[V, B]) RebuildChanged(rt *Runtime, prev *Node[V, B], changed bool) {
	n.id = prev.id
	n.scope = prev.scope
	n.state = Rebuilt

	if !changed {
		n.body = prev.body
		rt.emit(EventSkipped, n.id, n.label)
		return
	}
	n.run()
	n.body.Rebuild(rt, prev.body)
	rt.emit(EventRebuilt, n.id, n.label)
}

// Remove deregisters the node, runs its scope's drop callbacks and then
// removes its body.
func (n *Node[V, B]) Remove(rt *Runtime) {
	rt.registry.Deregister(n.id)
	n.scope.hooks.Dispose()
	rt.emit(EventRemoved, n.id, n.label)
	n.body.Remove(rt)
	n.state = Removed
}

func (n *Node[V, B]) run() {
	n.scope.hooks.Begin()
	n.body = n.builder(n.scope, n.view)
	if err := n.scope.hooks.End(true); err != nil {
		panic(err)
	}
}

// Leaf is a value at the bottom of the tree. It reports an update when its
// value differs from its predecessor's.
type Leaf[V comparable] struct {
	label string
	value V
	id    uint64
}

// NewLeaf returns a leaf.
func NewLeaf[V comparable](label string, value V) *Leaf[V] {
	return &Leaf[V]{label: label, value: value}
}

// Value returns the leaf's value.
func (l *Leaf[V]) Value() V { return l.value }

func (l *Leaf[V]) Build(rt *Runtime) {
	l.id = rt.registry.Register(l.label)
	rt.emit(EventBuilt, l.id, l.label)
}

func (l *Leaf[V]) Rebuild(rt *Runtime, prev *Leaf[V]) {
	l.id = prev.id
	if l.value != prev.value {
		rt.emit(EventUpdated, l.id, l.label)
	}
}

func (l *Leaf[V]) Remove(rt *Runtime) {
	rt.registry.Deregister(l.id)
	rt.emit(EventRemoved, l.id, l.label)
}
