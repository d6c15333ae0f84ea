package compose

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/recompose/internal/state"
)

// fakeTree is a minimal applier recording every operation.
type fakeTree struct {
	disc     Discipline
	values   map[NodeID]any
	children map[NodeID][]NodeID
	stack    []NodeID
	ops      []string

	failUpdate error
}

func newFakeTree(d Discipline) *fakeTree {
	return &fakeTree{
		disc:     d,
		values:   map[NodeID]any{},
		children: map[NodeID][]NodeID{},
		stack:    []NodeID{0},
	}
}

func (t *fakeTree) Discipline() Discipline { return t.disc }
func (t *fakeTree) Current() NodeID        { return t.stack[len(t.stack)-1] }
func (t *fakeTree) Down(id NodeID)         { t.stack = append(t.stack, id) }
func (t *fakeTree) Up()                    { t.stack = t.stack[:len(t.stack)-1] }

func (t *fakeTree) insert(op string, index int, id NodeID, v any) error {
	t.ops = append(t.ops, fmt.Sprintf("%s %d %v", op, index, v))
	parent := t.Current()
	kids := t.children[parent]
	if index < 0 || index > len(kids) {
		return fmt.Errorf("index %d out of range [0,%d]", index, len(kids))
	}
	t.values[id] = v
	t.children[parent] = slices.Insert(kids, index, id)
	return nil
}

func (t *fakeTree) InsertTopDown(index int, id NodeID, v any) error {
	return t.insert("insert", index, id, v)
}

func (t *fakeTree) InsertBottomUp(index int, id NodeID, v any) error {
	return t.insert("insert", index, id, v)
}

func (t *fakeTree) Update(id NodeID, v any) error {
	t.ops = append(t.ops, fmt.Sprintf("update %v", v))
	if t.failUpdate != nil {
		return t.failUpdate
	}
	t.values[id] = v
	return nil
}

func (t *fakeTree) Remove(index, count int) error {
	t.ops = append(t.ops, fmt.Sprintf("remove %d %d", index, count))
	parent := t.Current()
	kids := t.children[parent]
	if index < 0 || index+count > len(kids) {
		return fmt.Errorf("remove [%d,%d) out of range", index, index+count)
	}
	t.children[parent] = slices.Delete(kids, index, index+count)
	return nil
}

func (t *fakeTree) Shift(from, to, count int) error {
	t.ops = append(t.ops, fmt.Sprintf("shift %d %d %d", from, to, count))
	parent := t.Current()
	kids := slices.Clone(t.children[parent])
	moved := slices.Clone(kids[from : from+count])
	kids = slices.Delete(kids, from, from+count)
	t.children[parent] = slices.Insert(kids, to, moved...)
	return nil
}

func (t *fakeTree) Clear() error {
	t.ops = append(t.ops, "clear")
	t.values = map[NodeID]any{}
	t.children = map[NodeID][]NodeID{}
	t.stack = []NodeID{0}
	return nil
}

// render prints the tree under the root as value[children...].
func (t *fakeTree) render() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t *fakeTree) write(b *strings.Builder, id NodeID) {
	for i, k := range t.children[id] {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprint(b, t.values[k])
		if len(t.children[k]) > 0 {
			b.WriteString("[")
			t.write(b, k)
			b.WriteString("]")
		}
	}
}

func (t *fakeTree) take() []string {
	ops := t.ops
	t.ops = nil
	return ops
}

func newTestComposer(d Discipline, opts ...Option) (*Composer, *fakeTree, *state.Snapshot) {
	snap := state.NewSnapshot()
	tree := newFakeTree(d)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(tree, snap, opts...), tree, snap
}
