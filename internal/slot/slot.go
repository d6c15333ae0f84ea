package slot

import (
	"fmt"
	"reflect"
)

// Kind distinguishes the slot variants.
type Kind uint8

const (
	// KindGroup marks a group slot that owns the Length slots after it.
	KindGroup Kind = iota + 1
	// KindData marks a single memoized value.
	KindData
	// KindNode marks an applier node. A node owns the slots of its children.
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindData:
		return "data"
	case KindNode:
		return "node"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// GroupKind distinguishes re-enterable groups from replace-only regions.
type GroupKind uint8

const (
	// Restart is a re-enterable, individually invalidatable composable
	// invocation. It carries a resume closure.
	Restart GroupKind = iota + 1
	// Replace is a structurally unstable region (a conditional branch). It is
	// inserted, removed or replaced wholesale, never patched positionally.
	Replace
)

func (g GroupKind) String() string {
	switch g {
	case Restart:
		return "restart"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

// Tag identifies the type of a composable call site.
type Tag string

// TagOf derives a tag from a Go type. Two distinct named types never share
// a tag, even when their short names collide.
func TagOf[T any]() Tag {
	t := reflect.TypeFor[T]()
	return Tag(t.PkgPath() + ":" + t.String())
}

// ID is the identity of a group: a type tag plus an optional explicit key.
// Two passes match a group by ID, never by value equality.
type ID struct {
	Tag Tag
	Key string
}

// Keyed returns an ID carrying an explicit key.
func Keyed(tag Tag, key string) ID {
	return ID{Tag: tag, Key: key}
}

func (id ID) String() string {
	if id.Key == "" {
		return string(id.Tag)
	}
	return fmt.Sprintf("%s#%s", id.Tag, id.Key)
}

// Slot is one cell of the table.
//
// Which fields are meaningful depends on Kind:
//   - KindGroup: ID, Group, Length, Nodes, Resume (restart only), Value
//     (the owning scope of a restart group).
//   - KindData: Value.
//   - KindNode: Node, Value, Length (slots owned by the node's children).
type Slot struct {
	Kind   Kind
	ID     ID
	Group  GroupKind
	Length int
	Nodes  int
	Resume func()
	Node   int64
	Value  any
}

// Group returns a group slot with no children.
func Group(id ID, kind GroupKind) Slot {
	return Slot{Kind: KindGroup, ID: id, Group: kind}
}

// Data returns a data slot holding v.
func Data(v any) Slot {
	return Slot{Kind: KindData, Value: v}
}

// Node returns a node slot for the applier handle h.
func Node(h int64, v any) Slot {
	return Slot{Kind: KindNode, Node: h, Value: v}
}

// IsGroup reports whether s is a group of the given kind.
func (s Slot) IsGroup(kind GroupKind) bool {
	return s.Kind == KindGroup && s.Group == kind
}

// Extent is the number of slots s occupies including everything it owns.
func (s Slot) Extent() int {
	switch s.Kind {
	case KindGroup, KindNode:
		return 1 + s.Length
	default:
		return 1
	}
}

// KindError is returned by typed accessors when a slot does not hold the
// requested kind or payload type.
type KindError struct {
	Want string
	Got  string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("slot kind mismatch: want %s, got %s", e.Want, e.Got)
}

// As returns the payload of s as a T. It fails closed: a slot holding a
// different type yields a *KindError instead of a zero value.
func As[T any](s Slot) (T, error) {
	v, ok := s.Value.(T)
	if !ok {
		var zero T
		return zero, &KindError{
			Want: reflect.TypeFor[T]().String(),
			Got:  fmt.Sprintf("%s %T", s.Kind, s.Value),
		}
	}
	return v, nil
}
