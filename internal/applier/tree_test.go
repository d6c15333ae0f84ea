package applier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
	"github.com/roach88/recompose/internal/trace"
)

func TestTree_TopDownInsertAndShift(t *testing.T) {
	tr := NewTree(compose.TopDown)

	require.NoError(t, tr.InsertTopDown(0, 1, "list"))
	tr.Down(1)
	require.NoError(t, tr.InsertTopDown(0, 2, "a"))
	require.NoError(t, tr.InsertTopDown(1, 3, "b"))
	require.NoError(t, tr.InsertTopDown(2, 4, "c"))

	require.NoError(t, tr.Shift(2, 0, 1))
	assert.Equal(t, []compose.NodeID{4, 2, 3}, tr.Children(1))

	require.NoError(t, tr.Shift(0, 2, 1))
	assert.Equal(t, []compose.NodeID{2, 3, 4}, tr.Children(1))
	tr.Up()

	assert.Equal(t, "list\n  a\n  b\n  c\n", tr.String())
	assert.Equal(t, "a b c", tr.Text())
	assert.Equal(t, 4, tr.Len())
}

func TestTree_DisciplineMismatch(t *testing.T) {
	tr := NewTree(compose.TopDown)
	err := tr.InsertBottomUp(0, 1, "x")
	require.ErrorIs(t, err, ErrDiscipline)

	bu := NewTree(compose.BottomUp)
	err = bu.InsertTopDown(0, 1, "x")
	require.ErrorIs(t, err, ErrDiscipline)
}

func TestTree_RangeAndUnknownErrors(t *testing.T) {
	tr := NewTree(compose.TopDown)

	require.ErrorIs(t, tr.InsertTopDown(1, 1, "x"), ErrRange)
	require.ErrorIs(t, tr.Remove(0, 1), ErrRange)
	require.ErrorIs(t, tr.Shift(0, 0, 1), ErrRange)
	require.ErrorIs(t, tr.Update(9, "x"), ErrUnknownNode)

	require.NoError(t, tr.InsertTopDown(0, 1, "x"))
	require.ErrorIs(t, tr.InsertTopDown(1, 1, "x"), ErrAttached)
}

func TestTree_RemoveReleasesSubtree(t *testing.T) {
	tr := NewTree(compose.TopDown)
	require.NoError(t, tr.InsertTopDown(0, 1, "box"))
	tr.Down(1)
	require.NoError(t, tr.InsertTopDown(0, 2, "inner"))
	tr.Up()

	require.NoError(t, tr.Remove(0, 1))

	_, ok := tr.Value(2)
	assert.False(t, ok)
	assert.Zero(t, tr.Len())
}

func TestTree_BottomUpBuildsDetachedFirst(t *testing.T) {
	tr := NewTree(compose.BottomUp)

	tr.Down(1)
	require.NoError(t, tr.InsertBottomUp(0, 2, "leaf"))
	tr.Up()
	require.NoError(t, tr.InsertBottomUp(0, 1, "parent"))

	assert.Equal(t, []string{"parent", "leaf"}, tr.Values())
}

func TestTree_ClearKeepsOnlyRoot(t *testing.T) {
	tr := NewTree(compose.TopDown)
	require.NoError(t, tr.InsertTopDown(0, 1, "x"))
	require.NoError(t, tr.Clear())

	assert.Zero(t, tr.Len())
	assert.Equal(t, RootID, tr.Current())
}

func TestRecorder_RecordsSuccessfulOps(t *testing.T) {
	rec := NewRecorder(NewTree(compose.TopDown), WithSequencer(state.NewClockAt(100)))
	rec.BeginPass(1)

	require.NoError(t, rec.InsertTopDown(0, 1, "a"))
	require.Error(t, rec.InsertTopDown(5, 2, "b"))
	rec.BeginPass(2)
	require.NoError(t, rec.Update(1, "a2"))
	require.NoError(t, rec.Remove(0, 1))

	ops := rec.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, trace.Op{Seq: 101, Pass: 1, Kind: trace.KindInsert, Node: 1, Value: "a"}, ops[0])
	assert.Equal(t, trace.Op{Seq: 102, Pass: 2, Kind: trace.KindUpdate, Node: 1, Value: "a2"}, ops[1])
	assert.Equal(t, trace.Op{Seq: 103, Pass: 2, Kind: trace.KindRemove, Count: 1}, ops[2])

	rec.Reset()
	assert.Empty(t, rec.Ops())
}

func TestHTML_EscapesValues(t *testing.T) {
	tr := NewTree(compose.TopDown)
	require.NoError(t, tr.InsertTopDown(0, 1, "list"))
	tr.Down(1)
	require.NoError(t, tr.InsertTopDown(0, 2, "<b>&"))
	tr.Up()

	out, err := RenderHTML(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t,
		`<ul class="recompose-tree"><li data-node="1">list<ul><li data-node="2">&lt;b&gt;&amp;</li></ul></li></ul>`,
		out)
}

func TestCompose_DrivesTreeThroughRecorder(t *testing.T) {
	for _, d := range []compose.Discipline{compose.TopDown, compose.BottomUp} {
		t.Run(d.String(), func(t *testing.T) {
			snap := state.NewSnapshot()
			tr := NewTree(d)
			rec := NewRecorder(tr)
			c := compose.New(rec, snap, compose.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			items := state.New(snap, []string{"a", "b", "c"})
			app := func(c *compose.Composer) {
				c.Element("list", func(c *compose.Composer) {
					c.RestartGroup(slot.ID{Tag: "items"}, func(c *compose.Composer) {
						for _, k := range items.Get(c) {
							c.RestartGroup(slot.Keyed("item", k), func(c *compose.Composer) {
								c.Node(k)
							})
						}
					})
				})
			}

			rec.BeginPass(1)
			_, err := c.Compose(app)
			require.NoError(t, err)
			assert.Equal(t, "a b c", tr.Text())
			assert.Equal(t, 4, trace.Count(rec.Ops(), trace.KindInsert, 1))

			items.Set([]string{"c", "a"})
			rec.BeginPass(2)
			_, err = c.RecomposePending()
			require.NoError(t, err)
			assert.Equal(t, "c a", tr.Text())
			require.NoError(t, c.Verify())

			pass2 := trace.InPass(rec.Ops(), 2)
			assert.Equal(t, 1, trace.Count(pass2, trace.KindRemove, -1), fmt.Sprint(pass2))
			assert.Zero(t, trace.Count(pass2, trace.KindInsert, -1))
		})
	}
}
