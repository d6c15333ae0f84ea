// Package demo holds small composable apps that exercise the composer end to
// end. Scenarios refer to them by name and drive them through their named
// states.
package demo

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/state"
)

// App is a composable root with named, externally settable states.
type App struct {
	Name   string
	Root   func(*compose.Composer)
	states map[string]func(any) error
}

// Set schedules a write of v to the named state. v is converted from the
// loose types a YAML decoder produces.
func (a *App) Set(name string, v any) error {
	set, ok := a.states[name]
	if !ok {
		return fmt.Errorf("app %s has no state %q (have %v)", a.Name, name, a.States())
	}
	if err := set(v); err != nil {
		return fmt.Errorf("set %s.%s: %w", a.Name, name, err)
	}
	return nil
}

// States returns the app's state names, sorted.
func (a *App) States() []string {
	out := make([]string, 0, len(a.states))
	for n := range a.states {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type builder func(snap *state.Snapshot) *App

var registry = map[string]builder{
	"counter": Counter,
	"toggle":  Toggle,
	"todo":    Todo,
	"theme":   Themed,
}

// New builds the named app with its states on snap.
func New(name string, snap *state.Snapshot) (*App, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown app %q (have %v)", name, Names())
	}
	return b(snap), nil
}

// Names lists the registered apps, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func bind[T any](s *state.State[T], conv func(any) (T, error)) func(any) error {
	return func(v any) error {
		t, err := conv(v)
		if err != nil {
			return err
		}
		s.Set(t)
		return nil
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("want bool, got %T", v)
	}
	return b, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("want string, got %T", v)
	}
	return s, nil
}

func toStrings(v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return slices.Clone(l), nil
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: want string, got %T", i, e)
			}
			out[i] = s
		}
		return out, nil
	case nil:
		return []string{}, nil
	default:
		return nil, fmt.Errorf("want list of strings, got %T", v)
	}
}
