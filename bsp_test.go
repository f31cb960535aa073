package wadlevel_test

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wadlevel"
)

// threeLeafTree splits the plane along y=0 (root, pointing east, so south is front) and the
// north half along x=20 (pointing north, so east is front).
//
//	subsector 0: y < 0
//	subsector 1: y > 0, x > 20
//	subsector 2: y > 0, x < 20
func threeLeafTree() ([]wadlevel.Node, []wadlevel.SubSector) {
	nodes := []wadlevel.Node{
		{
			X: 20, Y: 0, DX: 0, DY: 10,
			BBox: [2]wadlevel.BoundBox{
				{Top: 64, Bottom: 0, Left: 20, Right: 64},
				{Top: 64, Bottom: 0, Left: -64, Right: 20},
			},
			Children: [2]wadlevel.Child{wadlevel.LeafChild(1), wadlevel.LeafChild(2)},
		},
		{
			X: 0, Y: 0, DX: 10, DY: 0,
			BBox: [2]wadlevel.BoundBox{
				{Top: 0, Bottom: -64, Left: -64, Right: 64},
				{Top: 64, Bottom: 0, Left: -64, Right: 64},
			},
			Children: [2]wadlevel.Child{wadlevel.LeafChild(0), wadlevel.NodeChild(0)},
		},
	}
	subSectors := []wadlevel.SubSector{{NumSegs: 1}, {NumSegs: 1}, {NumSegs: 1}}
	return nodes, subSectors
}

func mustTree(t *testing.T, nodes []wadlevel.Node, subSectors []wadlevel.SubSector) *wadlevel.Tree {
	t.Helper()
	tree, err := wadlevel.NewTree(nodes, subSectors)
	require.NoError(t, err)
	return tree
}

func newThreeLeafTree(t *testing.T) *wadlevel.Tree {
	t.Helper()
	nodes, subSectors := threeLeafTree()
	return mustTree(t, nodes, subSectors)
}

func TestPointOnSide(t *testing.T) {
	n := wadlevel.Node{X: 0, Y: 0, DX: 10, DY: 0}
	above := n.PointOnSide(5, 5)
	below := n.PointOnSide(5, -5)
	assert.NotEqual(t, above, below)
	assert.Equal(t, 0, below, "right of an eastward line is front")
	assert.Equal(t, 1, above)
	assert.Equal(t, 1, n.PointOnSide(7, 0), "points on the line are back")
	assert.Equal(t, 1, n.PointOnSide(-100, 0), "the line extends past its direction vector")

	vertical := wadlevel.Node{X: 64, Y: 0, DX: 0, DY: -128}
	assert.Equal(t, 0, vertical.PointOnSide(10, 50))
	assert.Equal(t, 1, vertical.PointOnSide(100, 50))
	assert.Equal(t, 1, vertical.PointOnSide(64, 1000))
}

func TestLocateSingleNode(t *testing.T) {
	nodes := []wadlevel.Node{{
		X: 0, Y: 0, DX: 10, DY: 0,
		BBox: [2]wadlevel.BoundBox{
			{Top: 0, Bottom: -10, Left: 0, Right: 10},
			{Top: 10, Bottom: 0, Left: 0, Right: 10},
		},
		Children: [2]wadlevel.Child{wadlevel.LeafChild(0), wadlevel.LeafChild(1)},
	}}
	tree := mustTree(t, nodes, make([]wadlevel.SubSector, 2))

	assert.NotEqual(t, tree.Locate(5, 5), tree.Locate(5, -5))
	assert.Equal(t, wadlevel.SubSectorID(0), tree.Locate(5, -5))
	assert.Equal(t, wadlevel.SubSectorID(1), tree.Locate(5, 5))
}

func TestLocate(t *testing.T) {
	tree := newThreeLeafTree(t)

	cases := []struct {
		x, y float64
		want wadlevel.SubSectorID
	}{
		{30, 30, 1},
		{-30, 30, 2},
		{0, -30, 0},
		{19.5, 0.5, 2},
		{20.5, 0.5, 1},
		{10, 0, 2},          // on the root line: back, then west of x=20
		{20, 30, 2},         // on the inner line: back
		{10000, 10000, 1},   // outside every box
		{-32768, -32768, 0}, // outside every box
	}
	for _, c := range cases {
		assert.Equal(t, c.want, tree.Locate(c.x, c.y), "(%v,%v)", c.x, c.y)
	}
	assert.Equal(t, []wadlevel.NodeID{1, 0}, tree.Path(30, 30))
	assert.Equal(t, []wadlevel.NodeID{1}, tree.Path(0, -30))
}

func TestLocateInteriorPoints(t *testing.T) {
	tree := newThreeLeafTree(t)

	region := func(x, y float64) wadlevel.SubSectorID {
		switch {
		case y < 0:
			return 0
		case x > 20:
			return 1
		}
		return 2
	}
	for x := -100.0; x <= 100; x += 7.25 {
		for y := -100.0; y <= 100; y += 3.5 {
			if y == 0 || (y > 0 && x == 20) {
				continue
			}
			assert.Equal(t, region(x, y), tree.Locate(x, y), "(%v,%v)", x, y)
		}
	}
}

func TestBackToFront(t *testing.T) {
	tree := newThreeLeafTree(t)

	order := slices.Collect(tree.BackToFront(0, -100))
	assert.Equal(t, []wadlevel.SubSectorID{1, 2, 0}, order)
	assert.Equal(t, []wadlevel.SubSectorID{0, 2, 1}, slices.Collect(tree.FrontToBack(0, -100)))

	// From the north-east room, the south half is farthest and the viewer's room is last.
	assert.Equal(t, []wadlevel.SubSectorID{0, 2, 1}, slices.Collect(tree.BackToFront(30, 30)))
}

func TestTraversalIsRestartable(t *testing.T) {
	tree := newThreeLeafTree(t)
	seq := tree.BackToFront(-30, 30)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []wadlevel.SubSectorID{0, 1, 2}, first)

	// Stopping early leaves nothing behind for the next range.
	for range seq {
		break
	}
	assert.Equal(t, first, slices.Collect(seq))
}

func TestConcurrentQueries(t *testing.T) {
	tree := newThreeLeafTree(t)
	want := slices.Collect(tree.BackToFront(5, 5))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				x := float64(i*7-50) + float64(j)/10
				tree.Locate(x, float64(j-50))
				assert.Equal(t, want, slices.Collect(tree.BackToFront(5, 5)))
			}
		}()
	}
	wg.Wait()
}

func TestInBox(t *testing.T) {
	tree := newThreeLeafTree(t)

	assert.ElementsMatch(t, []wadlevel.SubSectorID{1}, slices.Collect(tree.InBox(wadlevel.BoundBox{Top: 40, Bottom: 30, Left: 30, Right: 40})))
	assert.ElementsMatch(t, []wadlevel.SubSectorID{0}, slices.Collect(tree.InBox(wadlevel.BoundBox{Top: -10, Bottom: -20, Left: -10, Right: 10})))
	assert.ElementsMatch(t, []wadlevel.SubSectorID{0, 1, 2}, slices.Collect(tree.InBox(wadlevel.BoundBox{Top: 10, Bottom: -10, Left: 10, Right: 30})))
	assert.Empty(t, slices.Collect(tree.InBox(wadlevel.BoundBox{Top: 1000, Bottom: 900, Left: 0, Right: 10})))
}

func TestTreeAccessors(t *testing.T) {
	tree := newThreeLeafTree(t)
	assert.Equal(t, wadlevel.NodeID(1), tree.Root())
	assert.Equal(t, 2, tree.NumNodes())
	assert.Equal(t, 2, tree.Depth())

	n, ok := tree.Node(0)
	require.True(t, ok)
	assert.Equal(t, 20, n.X)
	_, ok = tree.Node(2)
	assert.False(t, ok)

	var sb strings.Builder
	require.NoError(t, tree.Print(&sb))
	assert.Equal(t, strings.Join([]string{
		"- node 1 (0,0) -> (+10,+0)",
		"   - subsector 0",
		"   - node 0 (20,0) -> (+0,+10)",
		"      - subsector 1",
		"      - subsector 2",
		"",
	}, "\n"), sb.String())
}

func TestNewTreeErrors(t *testing.T) {
	leaves := [2]wadlevel.Child{wadlevel.LeafChild(0), wadlevel.LeafChild(1)}
	box := wadlevel.BoundBox{Top: 10, Bottom: 0, Left: 0, Right: 10}
	node := func(children [2]wadlevel.Child) wadlevel.Node {
		return wadlevel.Node{DX: 1, BBox: [2]wadlevel.BoundBox{box, box}, Children: children}
	}
	two := make([]wadlevel.SubSector, 2)

	t.Run("empty nodes", func(t *testing.T) {
		_, err := wadlevel.NewTree(nil, two)
		var fe *wadlevel.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, wadlevel.KindNodes, fe.Kind)
		assert.True(t, errors.Is(err, wadlevel.ErrEmptyLump))
	})

	t.Run("empty subsectors", func(t *testing.T) {
		_, err := wadlevel.NewTree([]wadlevel.Node{node(leaves)}, nil)
		var fe *wadlevel.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, wadlevel.KindSubSectors, fe.Kind)
	})

	t.Run("self cycle", func(t *testing.T) {
		nodes := []wadlevel.Node{node([2]wadlevel.Child{wadlevel.NodeChild(0), wadlevel.LeafChild(0)})}
		_, err := wadlevel.NewTree(nodes, two)
		var fe *wadlevel.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 0, fe.Index)
	})

	t.Run("two node cycle", func(t *testing.T) {
		nodes := []wadlevel.Node{
			node([2]wadlevel.Child{wadlevel.NodeChild(1), wadlevel.LeafChild(0)}),
			node([2]wadlevel.Child{wadlevel.NodeChild(0), wadlevel.LeafChild(1)}),
		}
		_, err := wadlevel.NewTree(nodes, two)
		var fe *wadlevel.FormatError
		assert.True(t, errors.As(err, &fe))
	})

	t.Run("shared subtree", func(t *testing.T) {
		nodes := []wadlevel.Node{
			node(leaves),
			node([2]wadlevel.Child{wadlevel.NodeChild(0), wadlevel.NodeChild(0)}),
		}
		_, err := wadlevel.NewTree(nodes, two)
		var fe *wadlevel.FormatError
		assert.True(t, errors.As(err, &fe))
	})

	t.Run("subsector out of range", func(t *testing.T) {
		nodes := []wadlevel.Node{node([2]wadlevel.Child{wadlevel.LeafChild(0), wadlevel.LeafChild(5)})}
		_, err := wadlevel.NewTree(nodes, two)
		var ie *wadlevel.IntegrityError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, wadlevel.KindNodes, ie.Kind)
		assert.Equal(t, 0, ie.Index)
	})

	t.Run("node out of range", func(t *testing.T) {
		nodes := []wadlevel.Node{node([2]wadlevel.Child{wadlevel.NodeChild(3), wadlevel.LeafChild(1)})}
		_, err := wadlevel.NewTree(nodes, two)
		var ie *wadlevel.IntegrityError
		assert.True(t, errors.As(err, &ie))
	})

	t.Run("subsector reached twice", func(t *testing.T) {
		nodes := []wadlevel.Node{node([2]wadlevel.Child{wadlevel.LeafChild(1), wadlevel.LeafChild(1)})}
		_, err := wadlevel.NewTree(nodes, two)
		var ie *wadlevel.IntegrityError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, wadlevel.KindSubSectors, ie.Kind)
		assert.Equal(t, 1, ie.Index)
	})

	t.Run("subsector unreachable", func(t *testing.T) {
		_, err := wadlevel.NewTree([]wadlevel.Node{node(leaves)}, make([]wadlevel.SubSector, 3))
		var ie *wadlevel.IntegrityError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 2, ie.Index)
	})

	t.Run("inverted box", func(t *testing.T) {
		n := node(leaves)
		n.BBox[1] = wadlevel.BoundBox{Top: 0, Bottom: 10, Left: 0, Right: 10}
		_, err := wadlevel.NewTree([]wadlevel.Node{n}, two)
		var re *wadlevel.RangeError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, 0, re.Index)
		assert.Equal(t, 1, re.Child)
	})
}

func TestNewTreeCopiesNodes(t *testing.T) {
	nodes, subSectors := threeLeafTree()
	tree := mustTree(t, nodes, subSectors)
	nodes[1].Children[0] = wadlevel.NodeChild(1)
	assert.Equal(t, wadlevel.SubSectorID(0), tree.Locate(0, -30))
}
