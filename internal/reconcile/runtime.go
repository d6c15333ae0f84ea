package reconcile

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/recompose/internal/hooks"
)

// EventKind is a lifecycle transition reported to the Observer.
type EventKind uint8

const (
	EventBuilt EventKind = iota + 1
	EventRebuilt
	EventSkipped
	EventUpdated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventBuilt:
		return "built"
	case EventRebuilt:
		return "rebuilt"
	case EventSkipped:
		return "skipped"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event describes one lifecycle transition of a registered node.
type Event struct {
	Kind  EventKind
	ID    uint64
	Label string
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Label)
}

// Observer receives lifecycle events in the order they happen.
type Observer func(Event)

// KeyError reports a duplicate key in a keyed list.
type KeyError struct {
	Key any
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("duplicate key %v in keyed list", e.Key)
}

// Registry tracks the live nodes of a runtime.
type Registry struct {
	next uint64
	live map[uint64]string
}

// Register adds a node and returns its id.
func (r *Registry) Register(label string) uint64 {
	if r.live == nil {
		r.live = make(map[uint64]string)
	}
	r.next++
	r.live[r.next] = label
	return r.next
}

// Deregister removes a node. Unknown ids are ignored.
func (r *Registry) Deregister(id uint64) {
	delete(r.live, id)
}

// Has reports whether id is live.
func (r *Registry) Has(id uint64) bool {
	_, ok := r.live[id]
	return ok
}

// Len returns the number of live nodes.
func (r *Registry) Len() int {
	return len(r.live)
}

// Labels returns the labels of the live nodes in id order.
func (r *Registry) Labels() []string {
	ids := make([]uint64, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.live[id]
	}
	return out
}

// Runtime carries what every Build/Rebuild/Remove call needs.
type Runtime struct {
	registry *Registry
	observer Observer
	logger   *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		rt.observer = o
	}
}

// WithLogger sets the structured logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// NewRuntime creates a runtime with an empty registry.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		registry: &Registry{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Registry returns the runtime's node registry.
func (rt *Runtime) Registry() *Registry {
	return rt.registry
}

func (rt *Runtime) emit(kind EventKind, id uint64, label string) {
	rt.logger.Debug("reconcile", "event", kind.String(), "id", id, "label", label)
	if rt.observer != nil {
		rt.observer(Event{Kind: kind, ID: id, Label: label})
	}
}

// Apply runs f and converts contract violations raised inside it (duplicate
// keys, hook order) into an error. Other panics propagate.
func (rt *Runtime) Apply(f func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch e := r.(type) {
		case *KeyError:
			err = e
		case *hooks.OrderError:
			err = e
		default:
			panic(r)
		}
	}()
	f()
	return nil
}
