package boundary

import (
	"errors"
	"fmt"

	"github.com/1broseidon/tiletree/internal/layout"
)

var (
	ErrNilRoot         = errors.New("boundary tree has no root")
	ErrMissingMetadata = errors.New("window record has no metadata")
	ErrUnknownKind     = errors.New("unknown node kind")
	ErrCycle           = errors.New("record reachable more than once")
	ErrDuplicateID     = errors.New("duplicate node id")
	ErrDegenerateSplit = errors.New("split record has fewer than two children")
	ErrLeafChildren    = errors.New("window record has children")
	ErrStaleAnchor     = errors.New("anchor id below a node id")
)

// Import rebuilds an owned layout tree from exported records without
// recursion. The records are left untouched; the caller still owns them.
//
// Every Window record must carry metadata. Metadata on a Split record is
// ignored. Parent ids are rebuilt from the record structure.
func Import(bt *Tree) (*layout.Tree, error) {
	if bt == nil || bt.Root == nil {
		return nil, ErrNilRoot
	}

	type item struct {
		rec    *Node
		parent *layout.Node
	}

	var (
		root  *layout.Node
		maxID uint64
		seen  = make(map[*Node]struct{})
		ids   = make(map[uint64]struct{})
		stack = []item{{rec: bt.Root}}
	)

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rec := it.rec

		if _, ok := seen[rec]; ok {
			return nil, fmt.Errorf("%w: node %d", ErrCycle, rec.ID)
		}
		seen[rec] = struct{}{}

		if _, ok := ids[rec.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		ids[rec.ID] = struct{}{}
		if rec.ID > maxID {
			maxID = rec.ID
		}

		var parentID uint64
		if it.parent != nil {
			parentID = it.parent.ID
		}

		var node *layout.Node
		switch rec.Kind {
		case KindSplitHorizontal:
			node = layout.NewSplit(rec.ID, parentID, layout.Horizontal)
		case KindSplitVertical:
			node = layout.NewSplit(rec.ID, parentID, layout.Vertical)
		case KindWindow:
			if rec.Attrs == nil {
				return nil, fmt.Errorf("%w: node %d", ErrMissingMetadata, rec.ID)
			}
			if rec.Child != nil {
				return nil, fmt.Errorf("%w: node %d", ErrLeafChildren, rec.ID)
			}
			node = &layout.Node{
				ID:       rec.ID,
				ParentID: parentID,
				Kind:     layout.KindWindow,
				Attrs:    rec.Attrs.ToLayout(),
			}
		default:
			return nil, fmt.Errorf("%w: node %d has kind %d", ErrUnknownKind, rec.ID, rec.Kind)
		}

		if it.parent == nil {
			root = node
		} else {
			it.parent.AddChild(node)
		}

		if node.Kind != layout.KindSplit {
			continue
		}

		var children []*Node
		chain := make(map[*Node]struct{})
		for c := rec.Child; c != nil; c = c.Next {
			_, inChain := chain[c]
			_, visited := seen[c]
			if inChain || visited {
				return nil, fmt.Errorf("%w: sibling chain under node %d", ErrCycle, rec.ID)
			}
			chain[c] = struct{}{}
			children = append(children, c)
		}
		if len(children) < 2 {
			return nil, fmt.Errorf("%w: node %d has %d", ErrDegenerateSplit, rec.ID, len(children))
		}
		// Push in reverse so children are attached in sibling order.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{rec: children[i], parent: node})
		}
	}

	if maxID > bt.NextID {
		return nil, fmt.Errorf("%w: anchor %d, node %d", ErrStaleAnchor, bt.NextID, maxID)
	}

	return layout.FromRoot(root, bt.NextID), nil
}
