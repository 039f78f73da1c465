package boundary

import "github.com/1broseidon/tiletree/internal/layout"

// Export allocates a record for every node of t, and for every metadata
// value, and links them first-child/next-sibling. The tree keeps its own
// nodes; the returned records share no memory with it.
func Export(t *layout.Tree) *Tree {
	return &Tree{
		Root:   ExportNode(t.Root()),
		NextID: t.CurrentAnchorID(),
	}
}

// ExportNode exports the subtree rooted at n in pre-order.
func ExportNode(n *layout.Node) *Node {
	rec := &Node{
		ID:       n.ID,
		ParentID: n.ParentID,
		Kind:     KindOf(n),
		Attrs:    FromLayout(n.Attrs),
	}

	var last *Node
	for _, child := range n.Children {
		c := ExportNode(child)
		if last == nil {
			rec.Child = c
		} else {
			last.Next = c
		}
		last = c
	}
	return rec
}
