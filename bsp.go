package wadlevel

import (
	"fmt"
	"iter"
)

// Indicate a leaf in the on-disk child reference.
const childLeafFlag = 0x8000

// Child is a node child: either a leaf naming a subsector or another node.
type Child struct {
	leaf  bool
	index int
}

// LeafChild returns a child referring to subsector id.
func LeafChild(id SubSectorID) Child { return Child{leaf: true, index: int(id)} }

// NodeChild returns a child referring to node id.
func NodeChild(id NodeID) Child { return Child{index: int(id)} }

func childFromRaw(v uint16) Child {
	return Child{leaf: v&childLeafFlag != 0, index: int(v &^ childLeafFlag)}
}

func (c Child) raw() uint16 {
	v := uint16(c.index) &^ childLeafFlag
	if c.leaf {
		v |= childLeafFlag
	}
	return v
}

// IsLeaf reports whether the child is a subsector.
func (c Child) IsLeaf() bool { return c.leaf }

// SubSector returns the subsector of a leaf child.
func (c Child) SubSector() (SubSectorID, bool) { return SubSectorID(c.index), c.leaf }

// Node returns the node of an internal child.
func (c Child) Node() (NodeID, bool) { return NodeID(c.index), !c.leaf }

func (c Child) String() string {
	if c.leaf {
		return fmt.Sprintf("leaf(%d)", c.index)
	}
	return fmt.Sprintf("node(%d)", c.index)
}

// pointOnSide returns 0 when (x, y) is on the right of the directed line through (ox, oy) with
// direction (dx, dy), and 1 when it is on the left or exactly on the line.
func pointOnSide(ox, oy, dx, dy, x, y float64) int {
	left := dy * (x - ox)
	right := (y - oy) * dx
	if right < left {
		return 0
	}
	return 1
}

// PointOnSide returns the side of the partition line (x, y) lies on: 0 front, 1 back. Points on
// the line are back.
func (n *Node) PointOnSide(x, y float64) int {
	return pointOnSide(float64(n.X), float64(n.Y), float64(n.DX), float64(n.DY), x, y)
}

// Tree is a BSP tree over the subsectors of a level. The root is the last node. A Tree is never
// modified after NewTree returns, and all queries may run concurrently.
type Tree struct {
	nodes         []Node
	numSubSectors int
	depth         int
}

// NewTree checks a decoded node array against the subsector array and returns the tree.
//
// Every child reference must be in range, every child box must have min <= max, the nodes
// reachable from the root must form a tree (no node reached twice) and every subsector must be
// the leaf of exactly one child. Point location and traversal rely on these checks to terminate.
func NewTree(nodes []Node, subSectors []SubSector) (*Tree, error) {
	logger.Println("Building BSP tree ...")

	if len(nodes) == 0 {
		return nil, &FormatError{Kind: KindNodes, Index: -1, Err: ErrEmptyLump}
	}
	if len(subSectors) == 0 {
		return nil, &FormatError{Kind: KindSubSectors, Index: -1, Err: ErrEmptyLump}
	}

	for i := range nodes {
		n := &nodes[i]
		for side, c := range n.Children {
			if !n.BBox[side].Valid() {
				return nil, &RangeError{Kind: KindNodes, Index: i, Child: side, Box: n.BBox[side]}
			}
			if c.leaf && !inRange(c.index, len(subSectors)) {
				return nil, integrityErrorf(KindNodes, i, "child %d subsector %d out of range [0,%d)", side, c.index, len(subSectors))
			}
			if !c.leaf && !inRange(c.index, len(nodes)) {
				return nil, integrityErrorf(KindNodes, i, "child %d node %d out of range [0,%d)", side, c.index, len(nodes))
			}
		}
	}

	t := &Tree{nodes: make([]Node, len(nodes)), numSubSectors: len(subSectors)}
	copy(t.nodes, nodes)
	if err := t.check(); err != nil {
		return nil, err
	}

	logger.Printf("Built BSP tree: %v nodes, %v sub sectors, depth %v", len(t.nodes), t.numSubSectors, t.depth)
	return t, nil
}

// check walks the tree from the root once, rejecting revisited nodes and leaves.
func (t *Tree) check() error {
	type entry struct {
		id    NodeID
		depth int
	}
	seenNode := make([]bool, len(t.nodes))
	seenLeaf := make([]bool, t.numSubSectors)
	stack := []entry{{t.Root(), 1}}
	reached := 0
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seenNode[e.id] {
			return &FormatError{Kind: KindNodes, Index: int(e.id), Msg: "node reached twice, tree has a cycle or shared subtree"}
		}
		seenNode[e.id] = true
		reached++
		t.depth = max(t.depth, e.depth)

		for _, c := range t.nodes[e.id].Children {
			if id, ok := c.Node(); ok {
				stack = append(stack, entry{id, e.depth + 1})
				continue
			}
			if seenLeaf[c.index] {
				return integrityErrorf(KindSubSectors, c.index, "leaf of more than one node child")
			}
			seenLeaf[c.index] = true
		}
	}

	for i, ok := range seenLeaf {
		if !ok {
			return integrityErrorf(KindSubSectors, i, "not reachable from the root node")
		}
	}
	if reached < len(t.nodes) {
		logger.Printf("%v nodes not reachable from the root", len(t.nodes)-reached)
	}
	return nil
}

// Root returns the root node, the last entry of the node array.
func (t *Tree) Root() NodeID { return NodeID(len(t.nodes) - 1) }

// NumNodes returns the length of the node array.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Depth() int { return t.depth }

// Node returns a copy of node id.
func (t *Tree) Node(id NodeID) (Node, bool) { return lookup(t.nodes, id) }

// Locate returns the subsector containing (x, y). Every point of the plane, including points
// outside the level, resolves to exactly one subsector. Points on a partition line follow the
// back child.
func (t *Tree) Locate(x, y float64) SubSectorID {
	c := NodeChild(t.Root())
	for !c.leaf {
		n := &t.nodes[c.index]
		c = n.Children[n.PointOnSide(x, y)]
	}
	return SubSectorID(c.index)
}

// Path returns the nodes visited by Locate, root first.
func (t *Tree) Path(x, y float64) []NodeID {
	path := make([]NodeID, 0, t.depth)
	c := NodeChild(t.Root())
	for !c.leaf {
		path = append(path, NodeID(c.index))
		n := &t.nodes[c.index]
		c = n.Children[n.PointOnSide(x, y)]
	}
	return path
}

// BackToFront yields every subsector in painter's order for a viewer at (x, y): at each node
// the child on the far side of the partition is visited before the child on the viewer's side.
// The sequence may be ranged over any number of times.
func (t *Tree) BackToFront(x, y float64) iter.Seq[SubSectorID] {
	return t.walk(x, y, true)
}

// FrontToBack yields every subsector nearest first, the order used to fill the screen with
// occluding walls.
func (t *Tree) FrontToBack(x, y float64) iter.Seq[SubSectorID] {
	return t.walk(x, y, false)
}

func (t *Tree) walk(x, y float64, farFirst bool) iter.Seq[SubSectorID] {
	return func(yield func(SubSectorID) bool) {
		// Each range gets its own stack.
		stack := make([]Child, 1, t.depth+1)
		stack[0] = NodeChild(t.Root())
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if c.leaf {
				if !yield(SubSectorID(c.index)) {
					return
				}
				continue
			}
			n := &t.nodes[c.index]
			side := n.PointOnSide(x, y)
			near, far := n.Children[side], n.Children[side^1]
			if farFirst {
				stack = append(stack, near, far)
			} else {
				stack = append(stack, far, near)
			}
		}
	}
}

// InBox yields the subsectors whose enclosing child boxes all intersect box. The result is a
// superset of the subsectors overlapping box, in no particular order.
func (t *Tree) InBox(box BoundBox) iter.Seq[SubSectorID] {
	return func(yield func(SubSectorID) bool) {
		stack := make([]NodeID, 1, t.depth+1)
		stack[0] = t.Root()
		for len(stack) > 0 {
			n := &t.nodes[stack[len(stack)-1]]
			stack = stack[:len(stack)-1]
			for side := 1; side >= 0; side-- {
				if !n.BBox[side].Intersects(box) {
					continue
				}
				c := n.Children[side]
				if id, ok := c.Node(); ok {
					stack = append(stack, id)
					continue
				}
				if !yield(SubSectorID(c.index)) {
					return
				}
			}
		}
	}
}
