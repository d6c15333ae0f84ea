package slot

import "fmt"

// LengthError reports a group or node whose stored counts disagree with the
// slots that follow it.
type LengthError struct {
	Index   int
	Kind    Kind
	Message string
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("slot %d (%s): %s", e.Index, e.Kind, e.Message)
}

// Verify walks the whole table and checks the length invariant: every group
// and node owns exactly the slots that tile [start+1, start+1+Length), and
// every group's Nodes equals the number of nodes it owns directly.
func (t *Table) Verify() error {
	_, err := t.verifyRange(0, t.Len())
	return err
}

// CountNodes returns the number of nodes owned directly by the slots in
// [lo, hi). Groups contribute their stored Nodes, so the walk only visits
// sibling heads.
func (t *Table) CountNodes(lo, hi int) int {
	n := 0
	for i := lo; i < hi; {
		s := t.Get(i)
		switch s.Kind {
		case KindGroup:
			n += s.Nodes
		case KindNode:
			n++
		}
		i += s.Extent()
	}
	return n
}

func (t *Table) verifyRange(i, end int) (int, error) {
	nodes := 0
	for i < end {
		s := t.Get(i)
		switch s.Kind {
		case KindGroup, KindNode:
			if s.Length < 0 {
				return 0, &LengthError{Index: i, Kind: s.Kind, Message: fmt.Sprintf("negative length %d", s.Length)}
			}
			next := i + 1 + s.Length
			if next > end {
				return 0, &LengthError{
					Index:   i,
					Kind:    s.Kind,
					Message: fmt.Sprintf("length %d overruns enclosing region ending at %d", s.Length, end),
				}
			}
			inner, err := t.verifyRange(i+1, next)
			if err != nil {
				return 0, err
			}
			if s.Kind == KindGroup {
				if inner != s.Nodes {
					return 0, &LengthError{
						Index:   i,
						Kind:    s.Kind,
						Message: fmt.Sprintf("nodes %d, owns %d", s.Nodes, inner),
					}
				}
				nodes += inner
			} else {
				nodes++
			}
			i = next
		case KindData:
			i++
		default:
			return 0, &LengthError{Index: i, Kind: s.Kind, Message: "unknown slot kind"}
		}
	}
	return nodes, nil
}
