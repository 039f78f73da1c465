package layout

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of the tree and reports every
// violation found.
func (t *Tree) Validate() error {
	if t == nil || t.root == nil {
		return errors.New("tree has no root")
	}

	var errs []error
	if t.root.ParentID != 0 {
		errs = append(errs, fmt.Errorf("root %d has parent %d", t.root.ID, t.root.ParentID))
	}

	seen := make(map[uint64]struct{})
	var maxID uint64

	t.root.Walk(func(n *Node) bool {
		if _, dup := seen[n.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate id %d", n.ID))
		}
		seen[n.ID] = struct{}{}
		if n.ID > maxID {
			maxID = n.ID
		}

		switch n.Kind {
		case KindSplit:
			if len(n.Children) < 2 {
				errs = append(errs, fmt.Errorf("split %d has %d children", n.ID, len(n.Children)))
			}
			if n.Attrs != nil {
				errs = append(errs, fmt.Errorf("split %d carries metadata", n.ID))
			}
			if !n.Direction.Valid() {
				errs = append(errs, fmt.Errorf("split %d has %s", n.ID, n.Direction))
			}
		case KindWindow:
			if len(n.Children) != 0 {
				errs = append(errs, fmt.Errorf("window %d has %d children", n.ID, len(n.Children)))
			}
			if n.Attrs == nil {
				errs = append(errs, fmt.Errorf("window %d has no metadata", n.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("node %d has unknown kind %d", n.ID, n.Kind))
		}

		for _, child := range n.Children {
			if child.ParentID != n.ID {
				errs = append(errs, fmt.Errorf("node %d points at parent %d, owned by %d", child.ID, child.ParentID, n.ID))
			}
		}
		return true
	})

	if maxID > t.nextID {
		errs = append(errs, fmt.Errorf("anchor id %d is below node id %d", t.nextID, maxID))
	}

	return errors.Join(errs...)
}
