package compose

import (
	"reflect"

	"github.com/roach88/recompose/internal/slot"
)

// RestartGroup starts or resumes a re-enterable group identified by id and
// runs body inside it. It returns the group's previous length, 0 for a fresh
// group.
//
// Matching order:
//  1. A restart group with the same id at the cursor is reused in place.
//  2. A restart group with the same id among the remaining siblings of the
//     enclosing group is moved to the cursor (keyed reuse).
//  3. Otherwise a fresh group and scope are inserted.
//
// Slots the body no longer emits are removed when the group ends. The states
// read during body become the group scope's read set, replacing the set of
// its previous execution.
func (c *Composer) RestartGroup(id slot.ID, body func(*Composer)) int {
	top := c.mustCompose()
	start := c.table.Cursor()

	var (
		sc      *Scope
		prevLen int
		reused  bool
	)
	if start < top.end {
		if s := c.table.Peek(); s.IsGroup(slot.Restart) && s.ID == id {
			reused = true
		} else if from := c.findSibling(id, slot.Restart); from >= 0 {
			c.moveSibling(from)
			reused = true
		}
	}

	if reused {
		s := c.table.Peek()
		got, err := slot.As[*Scope](s)
		if err != nil {
			fail(err)
		}
		sc = got
		prevLen = s.Length
		c.table.Advance()
	} else {
		sc = c.newScope(c.scope)
		g := slot.Group(id, slot.Restart)
		g.Value = sc
		c.insert(g)
	}

	c.frames = append(c.frames, frame{
		start:    start,
		end:      start + 1 + prevLen,
		nodeBase: c.nodeTop().child,
		reused:   reused,
	})

	parent := c.scope
	c.scope = sc
	sc.index = start
	sc.begin()

	body(c)

	skipped := c.frames[len(c.frames)-1].skipped
	c.endGroup(func() { c.RestartGroup(id, body) })

	sc.commit(c, skipped)
	if err := sc.hooks.End(!skipped); err != nil {
		fail(err)
	}
	if skipped {
		c.pass.Skipped++
	} else {
		sc.invalid = false
		c.pass.Executed++
	}
	c.scope = parent
	return prevLen
}

// ReplaceableGroup runs body in a replace-only region. The region is reused
// only when the group at the cursor has exactly the same id; a replace group
// with a different id is torn down wholesale before the new region is built.
func (c *Composer) ReplaceableGroup(id slot.ID, body func(*Composer)) {
	top := c.mustCompose()
	start := c.table.Cursor()

	prevLen := -1
	if start < top.end {
		s := c.table.Peek()
		if s.IsGroup(slot.Replace) {
			if s.ID == id {
				prevLen = s.Length
			} else {
				c.logger.Debug("replacing group", "slot", start, "old", s.ID.String(), "new", id.String())
				c.removeRegion(start, s.Extent())
			}
		}
	}

	reused := prevLen >= 0
	if reused {
		c.table.Advance()
	} else {
		prevLen = 0
		c.insert(slot.Group(id, slot.Replace))
	}

	c.frames = append(c.frames, frame{
		start:    start,
		end:      start + 1 + prevLen,
		nodeBase: c.nodeTop().child,
		reused:   reused,
	})
	body(c)
	c.endGroup(nil)
}

// endGroup closes the innermost group frame: leftover slots are removed and
// the group's length, node count and resume closure are stored.
func (c *Composer) endGroup(resume func()) {
	f := c.frames[len(c.frames)-1]
	if !f.skipped {
		if cur := c.table.Cursor(); cur < f.end {
			c.removeRegion(cur, f.end-cur)
		}
	}
	f = c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]

	g := c.table.Ptr(f.start)
	g.Length = c.table.Cursor() - f.start - 1
	g.Nodes = c.nodeTop().child - f.nodeBase
	if g.Group == slot.Restart {
		g.Resume = resume
	}
}

// SkipToGroupEnd keeps the rest of the current group's previous content and
// moves the cursor past it. Only a reused group can be skipped.
func (c *Composer) SkipToGroupEnd() {
	f := c.mustCompose()
	if f.start < 0 || !f.reused || f.node {
		fail(contractf(ErrCodeSlotKind, f.start, "only a reused group can be skipped"))
	}
	emitted := c.nodeTop().child - f.nodeBase
	rest := c.table.CountNodes(c.table.Cursor(), f.end)
	c.table.Seek(f.end)
	c.nodeTop().child = f.nodeBase + emitted + rest
	f.skipped = true
}

// Changed compares v with the input stored at the cursor, stores v and
// advances. It reports true on a fresh slot or a different value.
func (c *Composer) Changed(v any) bool {
	top := c.mustCompose()
	if c.table.Cursor() < top.end {
		if p := c.table.PeekPtr(); p.Kind == slot.KindData {
			same := reflect.DeepEqual(p.Value, v)
			if !same {
				p.Value = v
			}
			c.table.Advance()
			return !same
		}
	}
	c.insert(slot.Data(v))
	return true
}

// Skippable runs body in a restart group that is skipped when every input
// equals the one stored by its previous execution and the group's scope has
// not been invalidated. A skipped group emits no applier operations.
func (c *Composer) Skippable(id slot.ID, inputs []any, body func(*Composer)) {
	c.RestartGroup(id, func(c *Composer) {
		changed := false
		for _, in := range inputs {
			if c.Changed(in) {
				changed = true
			}
		}
		if !changed && c.frames[len(c.frames)-1].reused && !c.scope.invalid {
			c.SkipToGroupEnd()
			return
		}
		body(c)
	})
}

// Cache returns the value memoized at the cursor. make runs when there is no
// memoized value or invalid is true. A memoized value of another type is a
// SLOT_KIND contract violation.
func Cache[T any](c *Composer, invalid bool, make func() T) T {
	top := c.mustCompose()
	if c.table.Cursor() < top.end {
		if p := c.table.PeekPtr(); p.Kind == slot.KindData {
			if invalid {
				v := make()
				p.Value = v
				c.table.Advance()
				return v
			}
			v, err := slot.As[T](*p)
			if err != nil {
				fail(err)
			}
			c.table.Advance()
			return v
		}
	}
	v := make()
	c.insert(slot.Data(v))
	return v
}

// findSibling looks for a group with id among the siblings from the cursor to
// the end of the enclosing frame. Returns its index or -1.
func (c *Composer) findSibling(id slot.ID, kind slot.GroupKind) int {
	end := c.frames[len(c.frames)-1].end
	for i := c.table.Cursor(); i < end; {
		s := c.table.Get(i)
		if s.IsGroup(kind) && s.ID == id {
			return i
		}
		i += s.Extent()
	}
	return -1
}

// moveSibling moves the sibling group at from to the cursor and shifts its
// nodes to the matching position in the target tree.
func (c *Composer) moveSibling(from int) {
	cur := c.table.Cursor()
	s := c.table.Get(from)
	before := c.table.CountNodes(cur, from)

	c.table.MoveTo(from, s.Extent())
	c.stale = true

	if s.Nodes > 0 && before > 0 {
		nf := c.nodeTop()
		if err := c.applier.Shift(nf.child+before, nf.child, s.Nodes); err != nil {
			fail(&ApplyError{Op: "shift", Index: nf.child + before, Node: nf.id, Err: err})
		}
	}
	c.logger.Debug("moved group", "id", s.ID.String(), "from", from, "to", cur)
}
