package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item = *Node[string, *Leaf[string]]

func newItem(key, view string) item {
	return NewNode(key, view, func(_ *Scope, v string) *Leaf[string] {
		return NewLeaf(key+".leaf", v)
	})
}

func recorder() (*Runtime, *[]string) {
	var events []string
	rt := NewRuntime(WithObserver(func(e Event) {
		events = append(events, e.String())
	}))
	return rt, &events
}

func TestKeyed_RebuildsMatchesRemovesAndBuilds(t *testing.T) {
	rt, events := recorder()
	root := NewRoot[*Keyed[int, item]](rt)

	require.NoError(t, root.Update(NewKeyed(
		Entry[int, item]{1, newItem("k1", "A")},
		Entry[int, item]{2, newItem("k2", "B")},
		Entry[int, item]{3, newItem("k3", "C")},
	)))
	*events = nil

	require.NoError(t, root.Update(NewKeyed(
		Entry[int, item]{2, newItem("k2", "B'")},
		Entry[int, item]{3, newItem("k3", "C")},
		Entry[int, item]{4, newItem("k4", "D")},
	)))

	assert.Equal(t, []string{
		"updated k2.leaf",
		"rebuilt k2",
		"skipped k3",
		"built k4.leaf",
		"built k4",
		"removed k1",
		"removed k1.leaf",
	}, *events)

	cur, ok := root.Current()
	require.True(t, ok)
	assert.Equal(t, []int{2, 3, 4}, cur.Keys())
	assert.Equal(t, "B'", cur.Items[0].Body.Body().Value())
	assert.Equal(t, 6, rt.Registry().Len(), "three nodes with one leaf each")
}

func TestKeyed_MatchIsOrderIndependent(t *testing.T) {
	rt, events := recorder()
	root := NewRoot[*Keyed[string, item]](rt)

	require.NoError(t, root.Update(NewKeyed(
		Entry[string, item]{"a", newItem("a", "1")},
		Entry[string, item]{"b", newItem("b", "2")},
	)))
	before := root.current.Items[0].Body.ID()
	*events = nil

	require.NoError(t, root.Update(NewKeyed(
		Entry[string, item]{"b", newItem("b", "2")},
		Entry[string, item]{"a", newItem("a", "1")},
	)))

	assert.Equal(t, []string{"skipped b", "skipped a"}, *events)
	assert.Equal(t, before, root.current.Items[1].Body.ID(), "identity follows the key")
}

func TestKeyed_DuplicateKeyIsRejected(t *testing.T) {
	rt, _ := recorder()
	root := NewRoot[*Keyed[int, item]](rt)

	err := root.Update(NewKeyed(
		Entry[int, item]{1, newItem("a", "x")},
		Entry[int, item]{1, newItem("b", "y")},
	))

	var kerr *KeyError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, 1, kerr.Key)
	_, built := root.Current()
	assert.False(t, built)
}

func TestNode_UnchangedViewTransplantsBody(t *testing.T) {
	rt, events := recorder()
	calls := 0
	build := func(view string) *Node[string, *Leaf[string]] {
		return NewNode("n", view, func(_ *Scope, v string) *Leaf[string] {
			calls++
			return NewLeaf("leaf", v)
		})
	}

	first := build("x")
	first.Build(rt)
	second := build("x")
	second.Rebuild(rt, first)

	assert.Equal(t, 1, calls)
	assert.Same(t, first.Body(), second.Body())
	assert.Equal(t, Rebuilt, second.State())
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, []string{"built leaf", "built n", "skipped n"}, *events)

	third := build("x")
	third.RebuildChanged(rt, second, true)
	assert.Equal(t, 2, calls, "forced change re-runs the builder")
}

func TestNode_RemoveRunsDropsBeforeChildren(t *testing.T) {
	rt, _ := recorder()
	var order []string

	child := func() *Node[string, *Empty] {
		return NewNode("child", "c", func(s *Scope, _ string) *Empty {
			s.OnDrop(func() { order = append(order, "child") })
			return &Empty{}
		})
	}
	parent := NewNode("parent", "p", func(s *Scope, _ string) *Node[string, *Empty] {
		s.OnDrop(func() { order = append(order, "parent-1") })
		s.OnDrop(func() { order = append(order, "parent-2") })
		return child()
	})

	parent.Build(rt)
	require.Equal(t, 2, rt.Registry().Len())

	parent.Remove(rt)
	assert.Equal(t, []string{"parent-1", "parent-2", "child"}, order)
	assert.Equal(t, Removed, parent.State())
	assert.Zero(t, rt.Registry().Len())
}

func TestNode_ScopeStoragePersistsAcrossRebuilds(t *testing.T) {
	rt, _ := recorder()
	var refs []*int
	build := func(view int) *Node[int, *Empty] {
		return NewNode("counter", view, func(s *Scope, _ int) *Empty {
			p := UseRef(s, func() int { return 0 })
			*p++
			refs = append(refs, p)
			return &Empty{}
		})
	}

	a := build(1)
	a.Build(rt)
	b := build(2)
	b.Rebuild(rt, a)
	c := build(3)
	c.Rebuild(rt, b)

	require.Len(t, refs, 3)
	assert.Same(t, refs[0], refs[2])
	assert.Equal(t, 3, *refs[2])
}

func TestOption_Transitions(t *testing.T) {
	rt, events := recorder()
	root := NewRoot[*Option[*Leaf[int]]](rt)

	require.NoError(t, root.Update(None[*Leaf[int]]()))
	require.NoError(t, root.Update(Some(NewLeaf("v", 1))))
	require.NoError(t, root.Update(Some(NewLeaf("v", 2))))
	require.NoError(t, root.Update(None[*Leaf[int]]()))
	require.NoError(t, root.Update(None[*Leaf[int]]()))

	assert.Equal(t, []string{"built v", "updated v", "removed v"}, *events)
}

func TestTuple_PairwiseRebuild(t *testing.T) {
	rt, events := recorder()
	root := NewRoot[*Tuple3[*Leaf[string], *Leaf[int], *Option[*Leaf[bool]]]](rt)

	require.NoError(t, root.Update(Triple(NewLeaf("s", "a"), NewLeaf("i", 1), None[*Leaf[bool]]())))
	*events = nil
	require.NoError(t, root.Update(Triple(NewLeaf("s", "a"), NewLeaf("i", 2), Some(NewLeaf("b", true)))))

	assert.Equal(t, []string{"updated i", "built b"}, *events)

	root.Clear()
	assert.Zero(t, rt.Registry().Len())
}

func TestTuple2_Pair(t *testing.T) {
	rt, events := recorder()
	root := NewRoot[*Tuple2[*Leaf[string], *Leaf[string]]](rt)

	require.NoError(t, root.Update(Pair(NewLeaf("l", "x"), NewLeaf("r", "y"))))
	require.NoError(t, root.Update(Pair(NewLeaf("l", "x"), NewLeaf("r", "z"))))

	assert.Equal(t, []string{"built l", "built r", "updated r"}, *events)
	assert.Equal(t, []string{"l", "r"}, rt.Registry().Labels())
}
