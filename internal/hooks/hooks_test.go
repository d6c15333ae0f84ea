package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUse_PersistsAcrossExecutions(t *testing.T) {
	var l List
	calls := 0
	mk := func() int { calls++; return 41 }

	l.Begin()
	p, fresh, err := Use(&l, mk)
	require.NoError(t, err)
	assert.True(t, fresh)
	*p = 42
	require.NoError(t, l.End(true))

	l.Begin()
	q, fresh, err := Use(&l, mk)
	require.NoError(t, err)
	require.NoError(t, l.End(true))

	assert.False(t, fresh)
	assert.Same(t, p, q, "the same handle is returned on re-execution")
	assert.Equal(t, 42, *q, "the cell is not reconstructed")
	assert.Equal(t, 1, calls)
}

func TestUse_TypeMismatchFailsClosed(t *testing.T) {
	var l List
	l.Begin()
	_, _, err := Use(&l, func() int { return 0 })
	require.NoError(t, err)
	require.NoError(t, l.End(true))

	l.Begin()
	_, _, err = Use(&l, func() string { return "" })

	var oerr *OrderError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, 0, oerr.Index)
	assert.Equal(t, "string", oerr.Want)
	assert.Equal(t, "*int", oerr.Got)
}

func TestEnd_DetectsSkippedHook(t *testing.T) {
	var l List
	l.Begin()
	Use(&l, func() int { return 0 })
	Use(&l, func() int { return 0 })
	require.NoError(t, l.End(true))

	l.Begin()
	Use(&l, func() int { return 0 })

	assert.Error(t, l.End(true))
}

func TestEnd_IncompleteExecutionIsNotChecked(t *testing.T) {
	var l List
	l.Begin()
	Use(&l, func() int { return 0 })
	require.NoError(t, l.End(true))

	l.Begin()
	assert.NoError(t, l.End(false))
	assert.Equal(t, 2, l.Runs())
}

func TestOnDrop_RunsInRegistrationOrderOnce(t *testing.T) {
	var l List
	var order []string

	l.Begin()
	require.NoError(t, l.OnDrop(func() { order = append(order, "first") }))
	require.NoError(t, l.OnDrop(func() { order = append(order, "second") }))
	require.NoError(t, l.End(true))

	l.Begin()
	require.NoError(t, l.OnDrop(func() { order = append(order, "first'") }))
	require.NoError(t, l.OnDrop(func() { order = append(order, "second'") }))
	require.NoError(t, l.End(true))

	l.Dispose()
	l.Dispose()

	assert.Equal(t, []string{"first'", "second'"}, order, "latest closures run, once")
	assert.True(t, l.Disposed())
}
