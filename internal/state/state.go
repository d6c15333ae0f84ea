package state

import (
	"slices"
	"sync"
)

// ReaderID identifies a composition scope that read a state. Zero means
// "not inside a tracked scope".
type ReaderID int64

// Cell is the untyped view of a State that trackers hold on to.
type Cell interface {
	StateID() ID
	Untrack(r ReaderID)
}

// Tracker receives read notifications. The composer implements it and
// attributes each read to the innermost scope being executed.
type Tracker interface {
	TrackRead(c Cell) ReaderID
}

// State is a versioned value cell. It is value-borrowed by every reader but
// only ever mutated by its snapshot's ApplyPending.
type State[T any] struct {
	id   ID
	snap *Snapshot

	mu      sync.RWMutex
	value   T
	version uint64
	readers map[ReaderID]struct{}
}

// New creates a state owned by snap.
func New[T any](snap *Snapshot, v T) *State[T] {
	return &State[T]{
		id:      snap.NewID(),
		snap:    snap,
		value:   v,
		readers: make(map[ReaderID]struct{}),
	}
}

// StateID returns the id used in invalidation batches.
func (s *State[T]) StateID() ID {
	return s.id
}

// Get returns the current value and records the tracker's current scope as a
// reader. A nil tracker reads untracked.
func (s *State[T]) Get(t Tracker) T {
	if t != nil {
		if r := t.TrackRead(s); r != 0 {
			s.mu.Lock()
			s.readers[r] = struct{}{}
			s.mu.Unlock()
		}
	}
	return s.Peek()
}

// Peek returns the current value without recording a reader.
func (s *State[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version returns the number of applied writes.
func (s *State[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set schedules v as the next value. Returns false if the snapshot is closed.
func (s *State[T]) Set(v T) bool {
	return s.Update(func(T) T { return v })
}

// Update schedules f to be applied to the value. f runs on the composition
// goroutine when the snapshot applies its queue, not on the caller's.
func (s *State[T]) Update(f func(T) T) bool {
	return s.snap.Enqueue(Operation{
		StateID: s.id,
		Apply: func() {
			next := f(s.Peek())
			s.mu.Lock()
			s.value = next
			s.version++
			s.mu.Unlock()
		},
	})
}

// Readers returns the ids of the scopes currently reading this state, in
// ascending order.
func (s *State[T]) Readers() []ReaderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReaderID, 0, len(s.readers))
	for r := range s.readers {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Untrack forgets a reader. Called when a scope stops reading the state or
// is removed from the composition.
func (s *State[T]) Untrack(r ReaderID) {
	s.mu.Lock()
	delete(s.readers, r)
	s.mu.Unlock()
}
