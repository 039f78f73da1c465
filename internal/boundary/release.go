package boundary

// Release tears down every record reachable from bt, depth-first along the
// first-child/next-sibling links: each node's metadata first, then the node
// itself. It returns the number of records released and clears bt.Root, so a
// released handle cannot be released again through the same Tree. A nil tree
// or root is a no-op.
//
// Release must be called on records produced by Export only; it does not
// guard against shared or cyclic links.
func Release(bt *Tree) int {
	if bt == nil || bt.Root == nil {
		return 0
	}

	released := 0
	stack := []*Node{bt.Root}
	bt.Root = nil

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Next != nil {
			stack = append(stack, n.Next)
		}
		if n.Child != nil {
			stack = append(stack, n.Child)
		}

		if n.Attrs != nil {
			*n.Attrs = Metadata{}
			n.Attrs = nil
			released++
		}
		*n = Node{}
		released++
	}

	return released
}

// Count returns the number of node and metadata records reachable from bt.
func Count(bt *Tree) int {
	if bt == nil || bt.Root == nil {
		return 0
	}
	count := 0
	stack := []*Node{bt.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		if n.Attrs != nil {
			count++
		}
		if n.Next != nil {
			stack = append(stack, n.Next)
		}
		if n.Child != nil {
			stack = append(stack, n.Child)
		}
	}
	return count
}
