package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	reader ReaderID
	cells  []Cell
}

func (f *fakeTracker) TrackRead(c Cell) ReaderID {
	f.cells = append(f.cells, c)
	return f.reader
}

func TestState_WriteIsDeferred(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 1)

	require.True(t, s.Set(2))

	assert.Equal(t, 1, s.Peek(), "write must not mutate synchronously")
	assert.Equal(t, 1, snap.Pending())

	ids := snap.ApplyPending()
	assert.Equal(t, []ID{s.StateID()}, ids)
	assert.Equal(t, 2, s.Peek())
	assert.Equal(t, uint64(1), s.Version())
}

func TestState_UpdateComposes(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 10)

	s.Update(func(v int) int { return v + 1 })
	s.Update(func(v int) int { return v * 2 })
	ids := snap.ApplyPending()

	assert.Equal(t, 22, s.Peek())
	assert.Len(t, ids, 1, "ids are deduplicated within a batch")
}

func TestState_GetRecordsReader(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, "x")
	tr := &fakeTracker{reader: 7}

	assert.Equal(t, "x", s.Get(tr))
	assert.Equal(t, []ReaderID{7}, s.Readers())
	require.Len(t, tr.cells, 1)
	assert.Equal(t, s.StateID(), tr.cells[0].StateID())

	s.Untrack(7)
	assert.Empty(t, s.Readers())
}

func TestState_GetOutsideScopeIsUntracked(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 1)

	s.Get(&fakeTracker{reader: 0})
	s.Get(nil)

	assert.Empty(t, s.Readers())
}

func TestState_IDsAreMonotonic(t *testing.T) {
	snap := NewSnapshot()
	a := New(snap, 0)
	b := New(snap, 0)

	assert.Less(t, a.StateID(), b.StateID())
}

func TestSnapshot_ApplyPendingPreservesEnqueueOrder(t *testing.T) {
	snap := NewSnapshot()
	a := New(snap, 0)
	b := New(snap, 0)
	c := New(snap, 0)

	b.Set(1)
	a.Set(1)
	b.Set(2)
	c.Set(1)

	assert.Equal(t, []ID{b.StateID(), a.StateID(), c.StateID()}, snap.ApplyPending())
	assert.Nil(t, snap.ApplyPending(), "queue is drained")
}

func TestSnapshot_CascadingWriteDeferredToNextDrain(t *testing.T) {
	snap := NewSnapshot()
	a := New(snap, 0)
	b := New(snap, 0)

	a.Update(func(v int) int {
		b.Set(v + 100)
		return v + 1
	})

	assert.Equal(t, []ID{a.StateID()}, snap.ApplyPending())
	assert.Equal(t, 0, b.Peek())
	assert.Equal(t, []ID{b.StateID()}, snap.ApplyPending())
	assert.Equal(t, 100, b.Peek())
}

func TestSnapshot_NextWaitsForWrite(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 0)

	got := make(chan []ID, 1)
	go func() {
		ids, err := snap.Next(context.Background())
		if err == nil {
			got <- ids
		}
	}()

	time.Sleep(10 * time.Millisecond)
	s.Set(5)

	select {
	case ids := <-got:
		assert.Equal(t, []ID{s.StateID()}, ids)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up")
	}
	assert.Equal(t, 5, s.Peek())
}

func TestSnapshot_NextHonoursContext(t *testing.T) {
	snap := NewSnapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := snap.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSnapshot_CloseDrainsThenReportsClosed(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 0)
	s.Set(1)
	snap.Close()

	ids, err := snap.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, err = snap.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	assert.False(t, s.Set(2), "writes after close are rejected")
}

func TestSnapshot_EnterCoalescesSignals(t *testing.T) {
	snap := NewSnapshot()
	a := New(snap, 0)
	b := New(snap, 0)

	exit := snap.Enter()
	a.Set(1)
	b.Set(1)

	select {
	case <-snap.Wait():
		t.Fatal("signal fired during activation")
	default:
	}

	exit()
	exit()
	assert.False(t, snap.Active())

	select {
	case <-snap.Wait():
	case <-time.After(time.Second):
		t.Fatal("exit did not signal pending writes")
	}
	assert.Len(t, snap.ApplyPending(), 2)
}

func TestSnapshot_ConcurrentWriters(t *testing.T) {
	snap := NewSnapshot()
	s := New(snap, 0)

	const writers = 10
	const writesPerWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writesPerWriter; i++ {
				s.Update(func(v int) int { return v + 1 })
			}
		}()
	}
	wg.Wait()

	snap.ApplyPending()
	assert.Equal(t, writers*writesPerWriter, s.Peek())
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	c = NewClockAt(100)
	assert.Equal(t, int64(101), c.Next())
}
