package compose

import (
	"slices"

	"github.com/roach88/recompose/internal/hooks"
	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// Scope is the persistent context of one restart group: its hook storage,
// the states its last execution read, and the values it provides to
// descendants.
type Scope struct {
	id     state.ReaderID
	parent *Scope
	index  int

	hooks hooks.List

	reads map[state.ID]state.Cell
	next  map[state.ID]state.Cell

	provided map[slot.Tag]any

	invalid  bool
	disposed bool
}

func (c *Composer) newScope(parent *Scope) *Scope {
	return &Scope{
		id:     state.ReaderID(c.scopeIDs.Next()),
		parent: parent,
		reads:  make(map[state.ID]state.Cell),
	}
}

// ID returns the reader id the scope records on the states it reads.
func (s *Scope) ID() state.ReaderID { return s.id }

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Index returns the slot index of the scope's group as of the last traversal.
func (s *Scope) Index() int { return s.index }

// Invalid reports whether a state the scope read was written and the scope
// has not re-executed since.
func (s *Scope) Invalid() bool { return s.invalid }

// Disposed reports whether the scope's group was removed.
func (s *Scope) Disposed() bool { return s.disposed }

// Runs returns the number of executions, skipped ones included.
func (s *Scope) Runs() int { return s.hooks.Runs() }

// Reads returns the ids of the states read by the last execution.
func (s *Scope) Reads() []state.ID {
	out := make([]state.ID, 0, len(s.reads))
	for id := range s.reads {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// begin opens an execution.
func (s *Scope) begin() {
	s.hooks.Begin()
	s.next = make(map[state.ID]state.Cell)
}

// commit closes an execution. A completed execution's reads replace the
// previous set and stale reads are untracked. A skipped execution keeps the
// previous set, since its content still depends on it.
func (s *Scope) commit(c *Composer, skipped bool) {
	next := s.next
	s.next = nil
	if skipped {
		for id, cell := range next {
			s.reads[id] = cell
		}
		return
	}
	for id, cell := range s.reads {
		if _, ok := next[id]; !ok {
			cell.Untrack(s.id)
			c.unmap(id, s)
		}
	}
	s.reads = next
}
