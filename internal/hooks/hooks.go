// Package hooks implements positional persistent storage for a scope.
//
// A List is replayed by call order: the n-th Use call of every execution
// returns the n-th cell. The first execution appends fresh cells; later
// executions return the existing cells unchanged. Hook call order and count
// must therefore be identical across executions of a scope. Violations are
// detected where possible (type mismatch, count mismatch) and reported as
// *OrderError; they are never silently repaired.
package hooks

import (
	"fmt"
	"reflect"
)

// OrderError reports a hook call that does not line up with the previous
// execution of the same scope.
type OrderError struct {
	Index int
	Want  string
	Got   string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("hook %d: called as %s, previously %s", e.Index, e.Want, e.Got)
}

// List is a scope's hook storage.
type List struct {
	cells   []any
	next    int
	runs    int
	drops   []*drop
	dropped bool
}

type drop struct {
	fn func()
}

// Begin rewinds the positional index. Call it at the start of every execution
// of the owning scope.
func (l *List) Begin() {
	l.next = 0
}

// End closes an execution. When the scope's body ran to completion on a
// re-execution, the number of hook calls must match the stored cell count.
func (l *List) End(complete bool) error {
	defer func() { l.runs++ }()
	if !complete || l.runs == 0 {
		return nil
	}
	if l.next != len(l.cells) {
		return &OrderError{
			Index: l.next,
			Want:  fmt.Sprintf("%d hook calls", l.next),
			Got:   fmt.Sprintf("%d hook calls", len(l.cells)),
		}
	}
	return nil
}

// Len returns the number of cells.
func (l *List) Len() int {
	return len(l.cells)
}

// Runs returns how many executions have ended.
func (l *List) Runs() int {
	return l.runs
}

// Use returns the cell at the current position and advances. On the first
// execution that reaches this position, make builds the cell and fresh is
// true. The returned pointer is stable for the lifetime of the list.
func Use[T any](l *List, make func() T) (cell *T, fresh bool, err error) {
	idx := l.next
	l.next++

	if idx < len(l.cells) {
		p, ok := l.cells[idx].(*T)
		if !ok {
			return nil, false, &OrderError{
				Index: idx,
				Want:  reflect.TypeFor[T]().String(),
				Got:   fmt.Sprintf("%T", l.cells[idx]),
			}
		}
		return p, false, nil
	}

	v := make()
	p := &v
	l.cells = append(l.cells, p)
	return p, true, nil
}

// OnDrop registers f to run when the list is disposed. It occupies one
// position; re-executions replace the callback so it sees their closure.
func (l *List) OnDrop(f func()) error {
	d, fresh, err := Use(l, func() drop { return drop{} })
	if err != nil {
		return err
	}
	d.fn = f
	if fresh {
		l.drops = append(l.drops, d)
	}
	return nil
}

// Dispose runs every drop callback in registration order. It runs at most
// once.
func (l *List) Dispose() {
	if l.dropped {
		return
	}
	l.dropped = true
	for _, d := range l.drops {
		if d.fn != nil {
			d.fn()
		}
	}
}

// Disposed reports whether Dispose has run.
func (l *List) Disposed() bool {
	return l.dropped
}
