package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Next once the snapshot is closed and drained.
var ErrClosed = errors.New("snapshot closed")

// ID identifies a State. Ids are minted by the owning snapshot's clock and
// are never reused.
type ID int64

// Operation is a pending mutation of one state cell.
type Operation struct {
	StateID ID
	Apply   func()
}

// Snapshot owns the pending-mutation queue for every State created from it.
//
// The queue is unbounded so that cascading writes made while applying or
// composing never block. A buffered signal channel of size one coalesces
// wakeups, the same way a burst of writes inside one event coalesces into one
// recomposition pass.
//
// While the snapshot is entered (see Enter) writes are queued without
// signalling; the signal fires when the outermost activation exits.
type Snapshot struct {
	mu     sync.Mutex
	ops    []Operation
	closed bool
	signal chan struct{}

	clock  *Clock
	active atomic.Int32
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ops:    make([]Operation, 0, 16),
		signal: make(chan struct{}, 1),
		clock:  NewClock(),
	}
}

// NewID mints a fresh state id.
func (s *Snapshot) NewID() ID {
	return ID(s.clock.Next())
}

// Enqueue adds op to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the snapshot is closed.
func (s *Snapshot) Enqueue(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.ops = append(s.ops, op)

	if s.active.Load() == 0 {
		s.notify()
	}
	return true
}

// notify signals availability without blocking. Caller holds mu.
func (s *Snapshot) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Enter activates the snapshot for a scoped batch of writes and returns the
// function that ends the activation:
//
//	exit := snap.Enter()
//	defer exit()
//	a.Set(1)
//	b.Set(2)
//
// Activations nest. Calling exit more than once has no effect.
func (s *Snapshot) Enter() func() {
	s.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if s.active.Add(-1) != 0 {
				return
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if len(s.ops) > 0 && !s.closed {
				s.notify()
			}
		})
	}
}

// Active reports whether an activation is in progress.
func (s *Snapshot) Active() bool {
	return s.active.Load() > 0
}

// Pending returns the number of queued operations.
func (s *Snapshot) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// ApplyPending drains the queue, applies every operation in enqueue order
// and returns the affected ids, deduplicated, in first-enqueued order.
//
// Operations enqueued while applying (an Apply that writes another state)
// are left for the next call.
//
// CRITICAL: Called only from the composition goroutine.
func (s *Snapshot) ApplyPending() []ID {
	s.mu.Lock()
	ops := s.ops
	s.ops = make([]Operation, 0, cap(ops))
	s.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	seen := make(map[ID]struct{}, len(ops))
	ids := make([]ID, 0, len(ops))
	for i, op := range ops {
		if op.Apply != nil {
			op.Apply()
		}
		ops[i] = Operation{}
		if _, ok := seen[op.StateID]; ok {
			continue
		}
		seen[op.StateID] = struct{}{}
		ids = append(ids, op.StateID)
	}
	return ids
}

// Wait returns a channel that signals when operations may be available.
// The channel is closed by Close.
func (s *Snapshot) Wait() <-chan struct{} {
	return s.signal
}

// Next blocks until a batch of writes is available, applies it and returns
// the affected ids. Writes are not drained while an activation is in
// progress. Returns ctx.Err() on cancellation and ErrClosed once the snapshot
// is closed and empty.
func (s *Snapshot) Next(ctx context.Context) ([]ID, error) {
	for {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()

		if closed || !s.Active() {
			if ids := s.ApplyPending(); len(ids) > 0 {
				return ids, nil
			}
		}
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.signal:
		}
	}
}

// Close signals that no more writes will be accepted and wakes any waiter.
func (s *Snapshot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.signal)
}
