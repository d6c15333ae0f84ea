package slot

import (
	"fmt"
	"iter"
)

// DefaultMinGrowth is the smallest number of slots added when the gap is
// exhausted.
const DefaultMinGrowth = 32

// BoundsError is raised (by panic) on an out-of-range access. It signals a
// programmer error, never a recoverable condition.
type BoundsError struct {
	Op    string
	Index int
	Len   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("slot table %s: index %d out of range [0,%d)", e.Op, e.Index, e.Len)
}

// Option configures a Table.
type Option func(*Table)

// WithMinGrowth sets the minimum number of slots allocated on growth.
func WithMinGrowth(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.minGrowth = n
		}
	}
}

// WithCapacity preallocates the backing store.
func WithCapacity(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.buf = make([]Slot, n)
			t.gapEnd = n
		}
	}
}

// Table is a gap buffer of slots with a cursor.
//
// Physical layout: buf[0:gapStart] holds logical slots [0, gapStart) and
// buf[gapEnd:] holds the rest. Inserts local to the cursor only move the
// slots between the old gap and the cursor, so a run of inserts at the same
// region is amortized O(1).
type Table struct {
	buf       []Slot
	gapStart  int
	gapEnd    int
	cursor    int
	minGrowth int
}

// New creates an empty table.
func New(opts ...Option) *Table {
	t := &Table{minGrowth: DefaultMinGrowth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of logical slots.
func (t *Table) Len() int {
	return len(t.buf) - (t.gapEnd - t.gapStart)
}

// Cap returns the size of the backing store.
func (t *Table) Cap() int {
	return len(t.buf)
}

// Cursor returns the logical index the next read or insert applies to.
func (t *Table) Cursor() int {
	return t.cursor
}

// AtEnd reports whether the cursor is past the last slot.
func (t *Table) AtEnd() bool {
	return t.cursor >= t.Len()
}

// Seek moves the cursor. Seeking to Len() is allowed and positions the cursor
// for appending.
func (t *Table) Seek(i int) {
	if i < 0 || i > t.Len() {
		panic(&BoundsError{Op: "seek", Index: i, Len: t.Len()})
	}
	t.cursor = i
}

// Advance moves the cursor past the slot under it.
func (t *Table) Advance() {
	if t.AtEnd() {
		panic(&BoundsError{Op: "advance", Index: t.cursor, Len: t.Len()})
	}
	t.cursor++
}

func (t *Table) phys(i int) int {
	if i < t.gapStart {
		return i
	}
	return i + (t.gapEnd - t.gapStart)
}

func (t *Table) check(op string, i int) {
	if i < 0 || i >= t.Len() {
		panic(&BoundsError{Op: op, Index: i, Len: t.Len()})
	}
}

// Get returns the slot at logical index i.
func (t *Table) Get(i int) Slot {
	t.check("get", i)
	return t.buf[t.phys(i)]
}

// Ptr returns a pointer to the slot at logical index i. The pointer is valid
// until the next structural change (insert, remove or move).
func (t *Table) Ptr(i int) *Slot {
	t.check("ptr", i)
	return &t.buf[t.phys(i)]
}

// Set overwrites the slot at logical index i.
func (t *Table) Set(i int, s Slot) {
	t.check("set", i)
	t.buf[t.phys(i)] = s
}

// Peek returns the slot under the cursor without advancing.
func (t *Table) Peek() Slot {
	t.check("peek", t.cursor)
	return t.buf[t.phys(t.cursor)]
}

// PeekPtr returns a pointer to the slot under the cursor. See Ptr for the
// pointer's lifetime.
func (t *Table) PeekPtr() *Slot {
	t.check("peek", t.cursor)
	return &t.buf[t.phys(t.cursor)]
}

// Insert writes s at the cursor, shifting later slots, and advances the
// cursor past it.
func (t *Table) Insert(s Slot) {
	t.openGap(t.cursor, 1)
	t.buf[t.gapStart] = s
	t.gapStart++
	t.cursor++
}

// Remove deletes n slots starting at logical index at. A cursor inside the
// removed range lands on at.
func (t *Table) Remove(at, n int) {
	if n <= 0 {
		return
	}
	if at < 0 || at+n > t.Len() {
		panic(&BoundsError{Op: "remove", Index: at + n - 1, Len: t.Len()})
	}
	t.moveGap(at)
	clear(t.buf[t.gapEnd : t.gapEnd+n])
	t.gapEnd += n
	switch {
	case t.cursor >= at+n:
		t.cursor -= n
	case t.cursor > at:
		t.cursor = at
	}
}

// MoveTo relocates the n slots at [from, from+n) to the cursor. The region
// must start at or after the cursor. The cursor is left on the first moved
// slot.
func (t *Table) MoveTo(from, n int) {
	if n <= 0 || from == t.cursor {
		return
	}
	if from < t.cursor || from+n > t.Len() {
		panic(&BoundsError{Op: "move", Index: from, Len: t.Len()})
	}
	region := make([]Slot, n)
	t.copyOut(region, from, from+n)
	t.Remove(from, n)
	t.openGap(t.cursor, n)
	copy(t.buf[t.gapStart:], region)
	t.gapStart += n
}

// Reset removes every slot and rewinds the cursor. The backing store is kept.
func (t *Table) Reset() {
	clear(t.buf)
	t.gapStart = 0
	t.gapEnd = len(t.buf)
	t.cursor = 0
}

// All iterates the logical sequence of slots.
func (t *Table) All() iter.Seq2[int, Slot] {
	return func(yield func(int, Slot) bool) {
		for i := 0; i < t.Len(); i++ {
			if !yield(i, t.buf[t.phys(i)]) {
				return
			}
		}
	}
}

// Slots returns a copy of the logical sequence.
func (t *Table) Slots() []Slot {
	out := make([]Slot, t.Len())
	t.copyOut(out, 0, t.Len())
	return out
}

// copyOut copies logical slots [lo, hi) into dst.
func (t *Table) copyOut(dst []Slot, lo, hi int) {
	n := 0
	if lo < t.gapStart {
		end := min(hi, t.gapStart)
		n = copy(dst, t.buf[lo:end])
	}
	if hi > t.gapStart {
		start := max(lo, t.gapStart)
		copy(dst[n:], t.buf[t.phys(start):t.phys(hi-1)+1])
	}
}

// openGap leaves a gap of at least n slots starting at logical index at.
func (t *Table) openGap(at, n int) {
	if t.gapEnd-t.gapStart >= n {
		t.moveGap(at)
		return
	}
	size := t.Len()
	newCap := max(len(t.buf)*2, t.minGrowth, size+n)
	buf := make([]Slot, newCap)
	t.copyOut(buf[:at], 0, at)
	tail := size - at
	t.copyOut(buf[newCap-tail:], at, size)
	t.buf = buf
	t.gapStart = at
	t.gapEnd = newCap - tail
}

// moveGap slides the gap so that it starts at logical index to.
func (t *Table) moveGap(to int) {
	gap := t.gapEnd - t.gapStart
	switch {
	case to < t.gapStart:
		n := t.gapStart - to
		copy(t.buf[t.gapEnd-n:t.gapEnd], t.buf[to:t.gapStart])
	case to > t.gapStart:
		n := to - t.gapStart
		copy(t.buf[t.gapStart:t.gapStart+n], t.buf[t.gapEnd:t.gapEnd+n])
	default:
		return
	}
	t.gapStart = to
	t.gapEnd = to + gap
	clear(t.buf[t.gapStart:t.gapEnd])
}
