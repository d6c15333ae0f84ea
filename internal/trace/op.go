package trace

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the kind of a structural operation.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindRemove Kind = "remove"
	KindShift  Kind = "shift"
	KindClear  Kind = "clear"
)

// Kinds lists every op kind in a stable order.
var Kinds = []Kind{KindInsert, KindUpdate, KindRemove, KindShift, KindClear}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// Op is one applier operation.
//
// Field use by kind:
//   - insert: Parent, Index, Node, Value
//   - update: Node, Value
//   - remove: Parent, Index, Count
//   - shift:  Parent, Index (from), To, Count
//   - clear:  none
type Op struct {
	Seq    int64  `json:"seq"`
	Pass   int64  `json:"pass"`
	Kind   Kind   `json:"kind"`
	Parent int64  `json:"parent"`
	Index  int    `json:"index"`
	To     int    `json:"to"`
	Count  int    `json:"count"`
	Node   int64  `json:"node"`
	Value  string `json:"value"`
}

// String renders the op on one line, omitting fields its kind does not use.
func (o Op) String() string {
	switch o.Kind {
	case KindInsert:
		return fmt.Sprintf("insert parent=%d index=%d node=%d value=%q", o.Parent, o.Index, o.Node, o.Value)
	case KindUpdate:
		return fmt.Sprintf("update node=%d value=%q", o.Node, o.Value)
	case KindRemove:
		return fmt.Sprintf("remove parent=%d index=%d count=%d", o.Parent, o.Index, o.Count)
	case KindShift:
		return fmt.Sprintf("shift parent=%d from=%d to=%d count=%d", o.Parent, o.Index, o.To, o.Count)
	case KindClear:
		return "clear"
	default:
		return fmt.Sprintf("%s ?", o.Kind)
	}
}

// Text renders ops grouped by pass, one op per line.
func Text(ops []Op) string {
	var b strings.Builder
	pass := int64(-1)
	for _, op := range ops {
		if op.Pass != pass {
			pass = op.Pass
			fmt.Fprintf(&b, "# pass %d\n", pass)
		}
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Count returns the number of ops of kind in pass. A negative pass counts
// across all passes.
func Count(ops []Op, kind Kind, pass int64) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind && (pass < 0 || op.Pass == pass) {
			n++
		}
	}
	return n
}

// InPass returns the ops of one pass.
func InPass(ops []Op, pass int64) []Op {
	out := make([]Op, 0)
	for _, op := range ops {
		if op.Pass == pass {
			out = append(out, op)
		}
	}
	return out
}

// Summary aggregates a trace.
type Summary struct {
	Passes int          `json:"passes"`
	Ops    int          `json:"ops"`
	ByKind map[Kind]int `json:"by_kind"`
}

// Summarize aggregates ops.
func Summarize(ops []Op) Summary {
	s := Summary{ByKind: make(map[Kind]int)}
	passes := make(map[int64]struct{})
	for _, op := range ops {
		s.Ops++
		s.ByKind[op.Kind]++
		passes[op.Pass] = struct{}{}
	}
	s.Passes = len(passes)
	return s
}

// String renders the summary as "N ops in M passes (insert=a, ...)".
func (s Summary) String() string {
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, s.ByKind[Kind(k)])
	}
	return fmt.Sprintf("%d ops in %d passes (%s)", s.Ops, s.Passes, strings.Join(parts, ", "))
}
