package wadlevel

import (
	"fmt"
	"io"
)

// Print writes the tree to w in an indented format, front child first.
func (t *Tree) Print(w io.Writer) error {
	var printRecursive func(Child, string) error
	printRecursive = func(c Child, prefix string) error {
		if id, ok := c.SubSector(); ok {
			_, err := fmt.Fprintf(w, "%s- subsector %d\n", prefix, id)
			return err
		}
		n := &t.nodes[c.index]
		if _, err := fmt.Fprintf(w, "%s- node %d (%d,%d) -> (%+d,%+d)\n", prefix, c.index, n.X, n.Y, n.DX, n.DY); err != nil {
			return err
		}
		for _, child := range n.Children {
			if err := printRecursive(child, prefix+"   "); err != nil {
				return err
			}
		}
		return nil
	}

	return printRecursive(NodeChild(t.Root()), "")
}
