package applier

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/recompose/internal/compose"
)

// RootID is the id of a Tree's root node.
const RootID compose.NodeID = 0

var (
	// ErrUnknownNode is returned for an operation on a node the tree does
	// not hold.
	ErrUnknownNode = errors.New("unknown node")

	// ErrAttached is returned when inserting a node that already has a parent.
	ErrAttached = errors.New("node already attached")

	// ErrDiscipline is returned when an insert does not match the tree's
	// insertion discipline.
	ErrDiscipline = errors.New("insert does not match discipline")

	// ErrRange is returned for a child index out of range.
	ErrRange = errors.New("child index out of range")
)

type node struct {
	value    any
	parent   compose.NodeID
	attached bool
	children []compose.NodeID
}

// Tree is an in-memory target tree. It accepts exactly one insertion
// discipline, chosen at construction.
type Tree struct {
	disc  compose.Discipline
	nodes map[compose.NodeID]*node
	stack []compose.NodeID
}

// NewTree creates a tree with only a root.
func NewTree(d compose.Discipline) *Tree {
	t := &Tree{disc: d}
	t.reset()
	return t
}

func (t *Tree) reset() {
	t.nodes = map[compose.NodeID]*node{RootID: {attached: true}}
	t.stack = []compose.NodeID{RootID}
}

// Discipline implements compose.Applier.
func (t *Tree) Discipline() compose.Discipline { return t.disc }

// Current implements compose.Applier.
func (t *Tree) Current() compose.NodeID { return t.stack[len(t.stack)-1] }

// Down implements compose.Applier. Moving into an unknown node creates it
// detached, which is how a bottom-up build starts.
func (t *Tree) Down(id compose.NodeID) {
	if _, ok := t.nodes[id]; !ok {
		t.nodes[id] = &node{}
	}
	t.stack = append(t.stack, id)
}

// Up implements compose.Applier. Up at the root is a no-op.
func (t *Tree) Up() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// InsertTopDown implements compose.Applier.
func (t *Tree) InsertTopDown(index int, id compose.NodeID, value any) error {
	if t.disc != compose.TopDown {
		return fmt.Errorf("insert_top_down on %s tree: %w", t.disc, ErrDiscipline)
	}
	return t.insert(index, id, value)
}

// InsertBottomUp implements compose.Applier.
func (t *Tree) InsertBottomUp(index int, id compose.NodeID, value any) error {
	if t.disc != compose.BottomUp {
		return fmt.Errorf("insert_bottom_up on %s tree: %w", t.disc, ErrDiscipline)
	}
	return t.insert(index, id, value)
}

func (t *Tree) insert(index int, id compose.NodeID, value any) error {
	parent := t.nodes[t.Current()]
	if index < 0 || index > len(parent.children) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(parent.children), ErrRange)
	}
	n, ok := t.nodes[id]
	if !ok {
		n = &node{}
		t.nodes[id] = n
	}
	if n.attached {
		return fmt.Errorf("node %d: %w", id, ErrAttached)
	}
	n.value = value
	n.parent = t.Current()
	n.attached = true
	parent.children = slices.Insert(parent.children, index, id)
	return nil
}

// Update implements compose.Applier.
func (t *Tree) Update(id compose.NodeID, value any) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("update node %d: %w", id, ErrUnknownNode)
	}
	n.value = value
	return nil
}

// Remove implements compose.Applier. Removed subtrees are released.
func (t *Tree) Remove(index, count int) error {
	parent := t.nodes[t.Current()]
	if index < 0 || count < 0 || index+count > len(parent.children) {
		return fmt.Errorf("remove [%d,%d) of %d: %w", index, index+count, len(parent.children), ErrRange)
	}
	for _, id := range parent.children[index : index+count] {
		t.release(id)
	}
	parent.children = slices.Delete(parent.children, index, index+count)
	return nil
}

func (t *Tree) release(id compose.NodeID) {
	n := t.nodes[id]
	if n == nil {
		return
	}
	for _, c := range n.children {
		t.release(c)
	}
	delete(t.nodes, id)
}

// Shift implements compose.Applier: the count children starting at from
// are moved so that they start at to.
func (t *Tree) Shift(from, to, count int) error {
	parent := t.nodes[t.Current()]
	n := len(parent.children)
	if from < 0 || count < 0 || from+count > n || to < 0 || to+count > n {
		return fmt.Errorf("shift %d->%d (%d) of %d: %w", from, to, count, n, ErrRange)
	}
	moved := slices.Clone(parent.children[from : from+count])
	rest := slices.Delete(slices.Clone(parent.children), from, from+count)
	parent.children = slices.Insert(rest, to, moved...)
	return nil
}

// Clear implements compose.Applier.
func (t *Tree) Clear() error {
	t.reset()
	return nil
}

// Children returns the children of id.
func (t *Tree) Children(id compose.NodeID) []compose.NodeID {
	if n, ok := t.nodes[id]; ok {
		return slices.Clone(n.children)
	}
	return nil
}

// Value returns the value of id.
func (t *Tree) Value(id compose.NodeID) (any, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return n.value, true
}

// Len returns the number of attached nodes, the root excluded.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(int, compose.NodeID, any) { n++ })
	return n
}

// Walk visits every attached node below the root in document order.
func (t *Tree) Walk(fn func(depth int, id compose.NodeID, value any)) {
	t.walk(RootID, 0, fn)
}

func (t *Tree) walk(id compose.NodeID, depth int, fn func(int, compose.NodeID, any)) {
	for _, c := range t.nodes[id].children {
		fn(depth, c, t.nodes[c].value)
		t.walk(c, depth+1, fn)
	}
}

// String renders the tree one node per line, indented by depth.
func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(depth int, _ compose.NodeID, v any) {
		fmt.Fprintf(&b, "%s%v\n", strings.Repeat("  ", depth), v)
	})
	return b.String()
}

// Text returns the values of the leaves in document order, space separated.
func (t *Tree) Text() string {
	var parts []string
	t.Walk(func(_ int, id compose.NodeID, v any) {
		if len(t.nodes[id].children) == 0 {
			parts = append(parts, fmt.Sprint(v))
		}
	})
	return strings.Join(parts, " ")
}

// Values returns every node value in document order.
func (t *Tree) Values() []string {
	out := make([]string, 0)
	t.Walk(func(_ int, _ compose.NodeID, v any) {
		out = append(out, fmt.Sprint(v))
	})
	return out
}
