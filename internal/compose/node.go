package compose

import (
	"reflect"

	"github.com/roach88/recompose/internal/slot"
)

// Node emits a leaf node at the current applier position. A node already at
// the cursor is reused; its value is routed to Applier.Update when it
// differs from the stored one.
func (c *Composer) Node(value any) NodeID {
	return c.Element(value, nil)
}

// Element emits a node and runs body with the applier positioned inside it,
// so that nodes body emits become the node's children. Insertion follows the
// applier's discipline: top-down inserts the node before its children,
// bottom-up inserts the finished subtree last.
func (c *Composer) Element(value any, body func(*Composer)) NodeID {
	top := c.mustCompose()
	start := c.table.Cursor()
	index := c.nodeTop().child

	if start < top.end {
		if p := c.table.PeekPtr(); p.Kind == slot.KindNode {
			id := NodeID(p.Node)
			if !reflect.DeepEqual(p.Value, value) {
				if err := c.applier.Update(id, value); err != nil {
					fail(&ApplyError{Op: "update", Index: index, Node: id, Err: err})
				}
				p.Value = value
			}
			end := start + 1 + p.Length
			c.table.Advance()
			c.nodeTop().child++

			c.applier.Down(id)
			c.enterNode(start, end, id, true, body)
			c.applier.Up()
			return id
		}
	}

	id := NodeID(c.nodeIDs.Next())
	c.insert(slot.Node(int64(id), value))
	c.nodeTop().child++

	switch c.applier.Discipline() {
	case BottomUp:
		c.applier.Down(id)
		c.enterNode(start, start+1, id, false, body)
		c.applier.Up()
		if err := c.applier.InsertBottomUp(index, id, value); err != nil {
			fail(&ApplyError{Op: "insert_bottom_up", Index: index, Node: id, Err: err})
		}
	default:
		if err := c.applier.InsertTopDown(index, id, value); err != nil {
			fail(&ApplyError{Op: "insert_top_down", Index: index, Node: id, Err: err})
		}
		c.applier.Down(id)
		c.enterNode(start, start+1, id, false, body)
		c.applier.Up()
	}
	return id
}

// enterNode runs body inside the node slot at start and closes it: children
// the body no longer emits are removed and the node's length is stored.
func (c *Composer) enterNode(start, end int, id NodeID, reused bool, body func(*Composer)) {
	c.frames = append(c.frames, frame{start: start, end: end, node: true, reused: reused})
	c.nodes = append(c.nodes, nodeFrame{id: id})

	if body != nil {
		body(c)
	}

	f := c.frames[len(c.frames)-1]
	if cur := c.table.Cursor(); cur < f.end {
		c.removeRegion(cur, f.end-cur)
	}
	c.table.Ptr(start).Length = c.table.Cursor() - start - 1

	c.frames = c.frames[:len(c.frames)-1]
	c.nodes = c.nodes[:len(c.nodes)-1]
}
