package compose

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

type theme string

func TestUseState_CounterPersistsAcrossPasses(t *testing.T) {
	c, tree, _ := newTestComposer(TopDown)
	var inc func(int)
	var handles []*state.State[int]

	app := func(c *Composer) {
		c.RestartGroup(slot.ID{Tag: "counter"}, func(c *Composer) {
			handles = append(handles, UseStateHandle(c, func() int { return 0 }))
			v, set := UseState(c, func() int { return 10 })
			inc = func(d int) { set(v + d) }
			c.Node(v)
		})
	}
	_, err := c.Compose(app)
	require.NoError(t, err)

	inc(1)
	_, err = c.RecomposePending()
	require.NoError(t, err)
	inc(1)
	_, err = c.RecomposePending()
	require.NoError(t, err)

	assert.Equal(t, "12", tree.render())
	require.Len(t, handles, 3)
	assert.Same(t, handles[0], handles[2], "hook storage is the same handle across passes")

	// A full pass re-executes the group but does not reset its state.
	_, err = c.Compose(app)
	require.NoError(t, err)
	assert.Equal(t, "12", tree.render())
}

func TestUseContext_ProviderChangeInvalidatesConsumer(t *testing.T) {
	c, tree, snap := newTestComposer(TopDown)
	current := state.New(snap, theme("light"))
	consumerRuns := 0

	_, err := c.Compose(func(c *Composer) {
		UseProvider(c, current.Get(c))
		c.Skippable(slot.ID{Tag: "consumer"}, nil, func(c *Composer) {
			consumerRuns++
			c.Node(string(MustUseContext[theme](c)))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "light", tree.render())

	current.Set("dark")
	pass, err := c.RecomposePending()
	require.NoError(t, err)

	assert.Equal(t, "dark", tree.render())
	assert.Equal(t, 2, consumerRuns)
	assert.Equal(t, 2, pass.Batches, "provider write is folded into the same pass")
	require.NoError(t, c.Verify())
}

func TestUseContext_NearestProviderWins(t *testing.T) {
	c, tree, _ := newTestComposer(TopDown)

	_, err := c.Compose(func(c *Composer) {
		UseProvider(c, theme("outer"))
		c.RestartGroup(slot.ID{Tag: "inner"}, func(c *Composer) {
			UseProvider(c, theme("inner"))
			v, ok := UseContext[theme](c)
			assert.True(t, ok)
			c.Node(string(v))
			c.RestartGroup(slot.ID{Tag: "leaf"}, func(c *Composer) {
				c.Node(string(MustUseContext[theme](c)))
			})
		})
		c.RestartGroup(slot.ID{Tag: "sibling"}, func(c *Composer) {
			c.Node(string(MustUseContext[theme](c)))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "inner,inner,outer", tree.render())
}

func TestMustUseContext_MissingProvider(t *testing.T) {
	c, _, _ := newTestComposer(TopDown)

	_, err := c.Compose(func(c *Composer) {
		MustUseContext[theme](c)
	})
	assert.Equal(t, ErrCodeMissingContext, CodeOf(err))
	assert.True(t, c.Aborted())
}

func TestUseContext_AbsentReturnsFalse(t *testing.T) {
	c, _, _ := newTestComposer(TopDown)
	var ok bool
	_, err := c.Compose(func(c *Composer) {
		_, ok = UseContext[theme](c)
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUseMemo_RecomputesOnDepsChange(t *testing.T) {
	c, _, snap := newTestComposer(TopDown)
	dep := state.New(snap, 1)
	other := state.New(snap, 0)
	calls := 0

	_, err := c.Compose(func(c *Composer) {
		other.Get(c)
		d := dep.Get(c)
		UseMemo(c, d, func() int { calls++; return d * 2 })
	})
	require.NoError(t, err)

	other.Set(1)
	_, err = c.RecomposePending()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	dep.Set(2)
	_, err = c.RecomposePending()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUseTask_ResultFunneledThroughState(t *testing.T) {
	c, tree, snap := newTestComposer(TopDown)
	result := state.New(snap, "pending")
	release := make(chan struct{})

	_, err := c.Compose(func(c *Composer) {
		c.RestartGroup(slot.ID{Tag: "loader"}, func(c *Composer) {
			UseTask(c, "load", func(ctx context.Context) {
				select {
				case <-release:
					result.Set("done")
				case <-ctx.Done():
				}
			})
			c.Node(result.Get(c))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", tree.render())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Recompose(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", tree.render())
}

func TestUseTask_CancelledWhenScopeRemoved(t *testing.T) {
	c, _, snap := newTestComposer(TopDown)
	show := state.New(snap, true)
	stopped := make(chan struct{})

	_, err := c.Compose(func(c *Composer) {
		if show.Get(c) {
			c.ReplaceableGroup(slot.ID{Tag: "on"}, func(c *Composer) {
				c.RestartGroup(slot.ID{Tag: "task"}, func(c *Composer) {
					UseTask(c, nil, func(ctx context.Context) {
						<-ctx.Done()
						close(stopped)
					})
				})
			})
		}
	})
	require.NoError(t, err)

	show.Set(false)
	_, err = c.RecomposePending()
	require.NoError(t, err)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled on removal")
	}
}

func TestHook_InsideElementUsesEnclosingScope(t *testing.T) {
	c, _, _ := newTestComposer(TopDown)
	var inside *Scope

	_, err := c.Compose(func(c *Composer) {
		c.Element("x", func(c *Composer) {
			UseRef(c, func() int { return 0 })
			inside = c.Scope()
		})
	})
	require.NoError(t, err)
	require.NotNil(t, inside)
	assert.Nil(t, inside.Parent(), "the root scope has no parent")
	assert.Nil(t, c.Scope(), "no scope outside a pass")
}
