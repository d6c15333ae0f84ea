package applier

import (
	"fmt"
	"sync"

	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/trace"
)

// Sequencer mints op sequence numbers. state.Clock and
// testutil.DeterministicClock both satisfy it.
type Sequencer interface {
	Next() int64
}

// Recorder forwards every call to an inner applier and records each
// successful structural operation as a trace.Op.
//
// Thread-safety: Ops and Reset may be called from any goroutine; the applier
// methods are called by the composition goroutine only.
type Recorder struct {
	inner compose.Applier
	seq   Sequencer

	mu   sync.Mutex
	pass int64
	ops  []trace.Op
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSequencer sets the sequence source. Default a counter starting at 1.
func WithSequencer(s Sequencer) RecorderOption {
	return func(r *Recorder) {
		if s != nil {
			r.seq = s
		}
	}
}

// NewRecorder wraps inner.
func NewRecorder(inner compose.Applier, opts ...RecorderOption) *Recorder {
	r := &Recorder{inner: inner, seq: &counter{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type counter struct{ n int64 }

func (c *counter) Next() int64 {
	c.n++
	return c.n
}

// BeginPass tags the ops recorded from now on with pass.
func (r *Recorder) BeginPass(pass int64) {
	r.mu.Lock()
	r.pass = pass
	r.mu.Unlock()
}

// Ops returns a copy of the recorded ops.
func (r *Recorder) Ops() []trace.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trace.Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Reset drops the recorded ops.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

func (r *Recorder) record(op trace.Op) {
	r.mu.Lock()
	op.Seq = r.seq.Next()
	op.Pass = r.pass
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *Recorder) Discipline() compose.Discipline { return r.inner.Discipline() }
func (r *Recorder) Current() compose.NodeID        { return r.inner.Current() }
func (r *Recorder) Down(id compose.NodeID)         { r.inner.Down(id) }
func (r *Recorder) Up()                            { r.inner.Up() }

func (r *Recorder) InsertTopDown(index int, id compose.NodeID, value any) error {
	parent := r.inner.Current()
	if err := r.inner.InsertTopDown(index, id, value); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindInsert, Parent: int64(parent), Index: index, Node: int64(id), Value: fmt.Sprint(value)})
	return nil
}

func (r *Recorder) InsertBottomUp(index int, id compose.NodeID, value any) error {
	parent := r.inner.Current()
	if err := r.inner.InsertBottomUp(index, id, value); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindInsert, Parent: int64(parent), Index: index, Node: int64(id), Value: fmt.Sprint(value)})
	return nil
}

func (r *Recorder) Update(id compose.NodeID, value any) error {
	if err := r.inner.Update(id, value); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindUpdate, Node: int64(id), Value: fmt.Sprint(value)})
	return nil
}

func (r *Recorder) Remove(index, count int) error {
	parent := r.inner.Current()
	if err := r.inner.Remove(index, count); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindRemove, Parent: int64(parent), Index: index, Count: count})
	return nil
}

func (r *Recorder) Shift(from, to, count int) error {
	parent := r.inner.Current()
	if err := r.inner.Shift(from, to, count); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindShift, Parent: int64(parent), Index: from, To: to, Count: count})
	return nil
}

func (r *Recorder) Clear() error {
	if err := r.inner.Clear(); err != nil {
		return err
	}
	r.record(trace.Op{Kind: trace.KindClear})
	return nil
}
