package compose

import (
	"context"
	"reflect"

	"github.com/roach88/recompose/internal/hooks"
	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// Hooks give a restart group persistent storage addressed by call order.
// Every hook must be called unconditionally and in the same order on every
// execution of its scope; conditional content belongs in a nested
// ReplaceableGroup.

// current returns the executing scope or fails.
func (c *Composer) current() *Scope {
	c.mustCompose()
	if c.scope == nil {
		fail(contractf(ErrCodeNotComposing, c.table.Cursor(), "hook called outside a restart group"))
	}
	return c.scope
}

func use[T any](c *Composer, make func() T) (*T, bool) {
	sc := c.current()
	p, fresh, err := hooks.Use(&sc.hooks, make)
	if err != nil {
		fail(err)
	}
	return p, fresh
}

// UseRef returns a persistent cell, built by make on the scope's first
// execution. The same pointer is returned on every later execution.
func UseRef[T any](c *Composer, make func() T) *T {
	p, _ := use(c, make)
	return p
}

// UseStateHandle returns a persistent State owned by the composer's snapshot.
func UseStateHandle[T any](c *Composer, make func() T) *state.State[T] {
	p, _ := use(c, func() *state.State[T] {
		return state.New(c.snap, make())
	})
	return *p
}

// UseState returns the current value of a persistent State, tracked as a
// read of the calling scope, and a setter that schedules a write.
func UseState[T any](c *Composer, make func() T) (T, func(T)) {
	s := UseStateHandle(c, make)
	return s.Get(c), func(v T) { s.Set(v) }
}

// UseOnDrop registers f to run when the scope's group is removed. Later
// executions replace the callback.
func UseOnDrop(c *Composer, f func()) {
	sc := c.current()
	if err := sc.hooks.OnDrop(f); err != nil {
		fail(err)
	}
}

// memo is the cell behind UseMemo.
type memo[T any] struct {
	deps  any
	value T
}

// UseMemo returns the value computed by make for deps, recomputing it when
// deps differ from the previous execution's.
func UseMemo[T any](c *Composer, deps any, make func() T) T {
	m, fresh := use(c, func() memo[T] { return memo[T]{} })
	if fresh || !reflect.DeepEqual(m.deps, deps) {
		m.deps = deps
		m.value = make()
	}
	return m.value
}

// provider is the cell behind UseProvider.
type provider[T any] struct {
	state *state.State[T]
}

// UseProvider makes v available to UseContext[T] in this scope and every
// descendant scope. Providers are type keyed; the nearest providing ancestor
// wins. Consumers read the value through a State, so changing v invalidates
// them.
func UseProvider[T any](c *Composer, v T) {
	sc := c.current()
	p, fresh := use(c, func() provider[T] { return provider[T]{} })
	if fresh {
		p.state = state.New(c.snap, v)
		if sc.provided == nil {
			sc.provided = make(map[slot.Tag]any)
		}
		sc.provided[slot.TagOf[T]()] = p.state
		return
	}
	if !reflect.DeepEqual(p.state.Peek(), v) {
		p.state.Set(v)
	}
}

// consumer is the positional cell of UseContext.
type consumer[T any] struct{}

// UseContext returns the value provided for T by the nearest providing scope,
// including the calling scope itself, and whether one was found.
func UseContext[T any](c *Composer) (T, bool) {
	sc := c.current()
	use(c, func() consumer[T] { return consumer[T]{} })

	tag := slot.TagOf[T]()
	for s := sc; s != nil; s = s.parent {
		v, ok := s.provided[tag]
		if !ok {
			continue
		}
		st, ok := v.(*state.State[T])
		if !ok {
			fail(contractf(ErrCodeSlotKind, s.index, "provider for %s holds %T", tag, v))
		}
		if s == sc {
			return st.Peek(), true
		}
		return st.Get(c), true
	}
	var zero T
	return zero, false
}

// MustUseContext is UseContext for values that must be provided. A missing
// provider aborts the pass with MISSING_CONTEXT.
func MustUseContext[T any](c *Composer) T {
	v, ok := UseContext[T](c)
	if !ok {
		fail(contractf(ErrCodeMissingContext, c.table.Cursor(), "no provider for %s", slot.TagOf[T]()))
	}
	return v
}

// task is the cell behind UseTask.
type task struct {
	key    any
	cancel context.CancelFunc
}

// UseTask runs f on its own goroutine. The task is started on the scope's
// first execution and restarted, after cancelling the previous one, whenever
// key changes. Its context is cancelled when the scope is removed.
//
// Tasks must not touch the composition; results come back through state
// writes, which the snapshot funnels onto the composition goroutine.
func UseTask(c *Composer, key any, f func(ctx context.Context)) {
	t, fresh := use(c, func() task { return task{} })
	if fresh || !reflect.DeepEqual(t.key, key) {
		if t.cancel != nil {
			t.cancel()
		}
		ctx, cancel := context.WithCancel(c.ctx)
		t.key = key
		t.cancel = cancel
		go f(ctx)
	}
	UseOnDrop(c, func() { t.cancel() })
}
