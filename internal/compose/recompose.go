package compose

import (
	"slices"

	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// drain recomposes the scopes reading ids, then keeps applying and
// recomposing the writes the pass itself produced until the queue is empty.
// The invalidated set is cleared only once everything is drained.
func (c *Composer) drain(ids []state.ID) {
	var invalidated []*Scope
	defer func() {
		for _, sc := range invalidated {
			sc.invalid = false
		}
	}()

	for len(ids) > 0 {
		c.pass.Batches++
		work := c.invalidate(ids)
		invalidated = append(invalidated, work...)

		for _, sc := range work {
			if sc.disposed || !sc.invalid {
				// Removed, or already re-executed by an ancestor.
				continue
			}
			c.pass.Recomposed++
			if c.pass.Recomposed > c.maxPassScopes {
				fail(contractf(ErrCodeQuotaExceeded, sc.index,
					"pass recomposed more than %d scopes", c.maxPassScopes))
			}
			c.recomposeScope(sc)
		}
		ids = c.snap.ApplyPending()
	}
}

// invalidate marks the live scopes reading ids and returns them in the order
// they must be recomposed: ids in enqueue order, readers of one id in table
// order.
func (c *Composer) invalidate(ids []state.ID) []*Scope {
	if c.stale {
		c.reindex()
	}
	var work []*Scope
	for _, id := range ids {
		set := c.readers[id]
		if len(set) == 0 {
			continue
		}
		batch := make([]*Scope, 0, len(set))
		for sc := range set {
			if !sc.invalid && !sc.disposed {
				batch = append(batch, sc)
			}
		}
		slices.SortFunc(batch, func(a, b *Scope) int { return a.index - b.index })
		for _, sc := range batch {
			sc.invalid = true
			c.pass.Invalidated++
		}
		work = append(work, batch...)
	}
	return work
}

// recomposeScope re-enters the restart group of sc through its resume
// closure and propagates the change in its size to its ancestors.
func (c *Composer) recomposeScope(sc *Scope) {
	if c.stale {
		c.reindex()
	}
	path := c.locate(sc)

	for _, id := range path {
		c.applier.Down(id)
	}
	c.table.Seek(sc.index)

	// Take the resume closure out of the slot; the group re-installs its own.
	g := c.table.Ptr(sc.index)
	resume := g.Resume
	g.Resume = nil
	oldLen, oldNodes := g.Length, g.Nodes

	c.scope = sc.parent
	resume()

	g = c.table.Ptr(sc.index)
	dLen, dNodes := g.Length-oldLen, g.Nodes-oldNodes
	if dLen != 0 || dNodes != 0 {
		inNode := false
		for i := len(c.frames) - 1; i >= 1; i-- {
			f := c.frames[i]
			a := c.table.Ptr(f.start)
			a.Length += dLen
			if f.node {
				inNode = true
			} else if !inNode {
				a.Nodes += dNodes
			}
		}
	}

	for range path {
		c.applier.Up()
	}
	c.resetTraversal()
}

// locate rebuilds the ancestor frames and applier node stack of sc's group by
// walking down from the root, skipping sibling subtrees by length. It returns
// the ids of the applier nodes enclosing the group.
func (c *Composer) locate(sc *Scope) []NodeID {
	target := sc.index
	c.frames = append(c.frames[:0], frame{start: -1, end: c.table.Len(), reused: true})
	c.nodes = append(c.nodes[:0], nodeFrame{id: c.applier.Current()})

	var path []NodeID
	i := 0
	for i < target {
		s := c.table.Get(i)
		ext := s.Extent()
		if target < i+ext {
			c.frames = append(c.frames, frame{
				start:    i,
				end:      i + ext,
				nodeBase: c.nodeTop().child,
				node:     s.Kind == slot.KindNode,
				reused:   true,
			})
			if s.Kind == slot.KindNode {
				c.nodeTop().child++
				c.nodes = append(c.nodes, nodeFrame{id: NodeID(s.Node)})
				path = append(path, NodeID(s.Node))
			}
			i++
			continue
		}
		switch s.Kind {
		case slot.KindGroup:
			c.nodeTop().child += s.Nodes
		case slot.KindNode:
			c.nodeTop().child++
		}
		i += ext
	}

	if i != target || target >= c.table.Len() {
		fail(contractf(ErrCodeStaleScope, target, "scope %d is not at a group boundary", sc.id))
	}
	if g := c.table.Get(target); !g.IsGroup(slot.Restart) || g.Value != any(sc) || g.Resume == nil {
		fail(contractf(ErrCodeStaleScope, target, "slot does not hold the group of scope %d", sc.id))
	}
	return path
}
