// Package boundary converts layout trees to and from fixed-size, pointer-linked
// records that can be handed to a caller outside the tree owner's memory.
//
// Children are encoded first-child/next-sibling, so every record has the same
// shape regardless of how many children its node has. Records produced by
// Export are owned by whoever holds the returned Tree until Release is called.
package boundary

import "github.com/1broseidon/tiletree/internal/layout"

// Kind tags stored in Node.Kind.
const (
	KindSplitHorizontal uint64 = 0
	KindSplitVertical   uint64 = 1
	KindWindow          uint64 = 2
)

// Metadata is the exported form of layout.Metadata. Zero geometry means unset.
type Metadata struct {
	Name   string
	ID     uint64
	X      uint64
	Y      uint64
	Width  uint64
	Height uint64
	Focus  bool
	Halted bool
}

// Node is the exported form of layout.Node.
type Node struct {
	ID       uint64
	ParentID uint64 // 0 = none
	Kind     uint64
	Attrs    *Metadata
	Child    *Node // first child
	Next     *Node // next sibling
}

// Tree is the handle a boundary caller holds: the exported root plus the id
// counter the next mutation continues from.
type Tree struct {
	Root   *Node
	NextID uint64
}

// FromLayout converts metadata to its exported form. Nil stays nil.
func FromLayout(m *layout.Metadata) *Metadata {
	if m == nil {
		return nil
	}
	return &Metadata{
		Name:   m.Name,
		ID:     m.ID,
		X:      dimValue(m.X),
		Y:      dimValue(m.Y),
		Width:  dimValue(m.Width),
		Height: dimValue(m.Height),
		Focus:  m.Focus,
		Halted: m.Halted,
	}
}

// ToLayout converts exported metadata back. Zero geometry becomes unset.
func (m *Metadata) ToLayout() *layout.Metadata {
	if m == nil {
		return nil
	}
	return &layout.Metadata{
		Name:   m.Name,
		ID:     m.ID,
		X:      dimPtr(m.X),
		Y:      dimPtr(m.Y),
		Width:  dimPtr(m.Width),
		Height: dimPtr(m.Height),
		Focus:  m.Focus,
		Halted: m.Halted,
	}
}

func dimValue(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

func dimPtr(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return layout.Dim(v)
}

// KindOf returns the record tag for a layout node.
func KindOf(n *layout.Node) uint64 {
	if n.Kind == layout.KindWindow {
		return KindWindow
	}
	if n.Direction == layout.Vertical {
		return KindSplitVertical
	}
	return KindSplitHorizontal
}

// Children returns the sibling chain starting at n.Child.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.Child; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}
