package compose

import (
	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// insert writes s at the cursor. Every open frame grows by one slot.
func (c *Composer) insert(s slot.Slot) {
	if c.table.Cursor() < c.table.Len() {
		c.stale = true
	}
	c.table.Insert(s)
	for i := range c.frames {
		c.frames[i].end++
	}
}

// removeRegion deletes the n slots at p, which must start at the cursor of
// the innermost frame. The nodes the region owns directly are removed from
// the current applier node; scopes inside it are disposed parent first.
func (c *Composer) removeRegion(p, n int) {
	if n <= 0 {
		return
	}
	nf := c.nodeTop()
	if count := c.table.CountNodes(p, p+n); count > 0 {
		if err := c.applier.Remove(nf.child, count); err != nil {
			fail(&ApplyError{Op: "remove", Index: nf.child, Node: nf.id, Err: err})
		}
	}

	scopes := c.collectScopes(p, p+n)
	c.table.Remove(p, n)
	for i := range c.frames {
		c.frames[i].end -= n
	}
	if p < c.table.Len() {
		c.stale = true
	}
	for _, sc := range scopes {
		c.dispose(sc)
	}
}

// collectScopes returns the scopes of the restart groups in [lo, hi) in
// table order, which is parent before child.
func (c *Composer) collectScopes(lo, hi int) []*Scope {
	var out []*Scope
	for i := lo; i < hi; i++ {
		s := c.table.Get(i)
		if !s.IsGroup(slot.Restart) {
			continue
		}
		if sc, ok := s.Value.(*Scope); ok {
			out = append(out, sc)
		}
	}
	return out
}

// disposeRange disposes every scope in [lo, hi) without touching the table.
func (c *Composer) disposeRange(lo, hi int) {
	for _, sc := range c.collectScopes(lo, hi) {
		c.dispose(sc)
	}
}

// dispose runs the scope's drop callbacks and forgets its reads.
func (c *Composer) dispose(sc *Scope) {
	if sc.disposed {
		return
	}
	sc.disposed = true
	sc.hooks.Dispose()
	for id, cell := range sc.reads {
		cell.Untrack(sc.id)
		c.unmap(id, sc)
	}
	sc.reads = nil
	c.logger.Debug("scope disposed", "scope", sc.id)
}

// unmap removes sc from the readers of id.
func (c *Composer) unmap(id state.ID, sc *Scope) {
	set, ok := c.readers[id]
	if !ok {
		return
	}
	delete(set, sc)
	if len(set) == 0 {
		delete(c.readers, id)
	}
}

// reindex recomputes the slot index of every live scope.
func (c *Composer) reindex() {
	for i, s := range c.table.All() {
		if !s.IsGroup(slot.Restart) {
			continue
		}
		if sc, ok := s.Value.(*Scope); ok {
			sc.index = i
		}
	}
	c.stale = false
}
