package compose

// NodeID is an opaque handle for a node in the target tree. The composer
// mints ids for the nodes it creates; the applier owns the root id.
type NodeID int64

// Discipline is the insertion order an applier commits to.
type Discipline uint8

const (
	// TopDown inserts a node into its parent before its children are built.
	// Cheaper when the target notifies per inserted subtree root.
	TopDown Discipline = iota + 1
	// BottomUp builds a node's children first and inserts the finished
	// subtree into its parent last. Cheaper when children notify ancestors.
	BottomUp
)

func (d Discipline) String() string {
	switch d {
	case TopDown:
		return "top_down"
	case BottomUp:
		return "bottom_up"
	default:
		return "unknown"
	}
}

// Applier is the boundary through which the composer emits structural
// operations to whatever owns the target tree.
//
// The applier keeps its own cursor, independent of the slot table: Down and
// Up move it into and out of a node. Indices passed to Insert*, Remove and
// Shift are child positions under the current node.
//
// An applier uses exactly one insertion discipline. With BottomUp, the
// composer calls Down on a node before it has been inserted anywhere; the
// applier must accept a detached node there.
type Applier interface {
	Discipline() Discipline
	Current() NodeID
	Down(id NodeID)
	Up()
	InsertTopDown(index int, id NodeID, value any) error
	InsertBottomUp(index int, id NodeID, value any) error
	Update(id NodeID, value any) error
	Remove(index, count int) error
	Shift(from, to, count int) error
	Clear() error
}
