package layout

import (
	"fmt"
	"strings"
)

// Direction is the axis a Split divides its region along.
type Direction uint8

const (
	Horizontal Direction = iota // Children side by side.
	Vertical                    // Children stacked.
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Valid reports whether d is one of the two split axes.
func (d Direction) Valid() bool {
	return d == Horizontal || d == Vertical
}

// ParseDirection converts "horizontal"/"vertical" (or "h"/"v") to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Kind tells a Split node from a Window node.
type Kind uint8

const (
	KindWindow Kind = iota
	KindSplit
)

func (k Kind) String() string {
	if k == KindSplit {
		return "split"
	}
	return "window"
}

// Node is one region of the layout.
//
// A Window carries Attrs and never has children. A Split carries a Direction
// and at least two children, which it owns exclusively. ParentID is a lookup
// back-reference only; 0 marks the root.
type Node struct {
	ID        uint64
	ParentID  uint64
	Kind      Kind
	Direction Direction
	Attrs     *Metadata
	Children  []*Node
}

// NewSplit returns an empty Split node.
func NewSplit(id, parentID uint64, direction Direction) *Node {
	return &Node{
		ID:        id,
		ParentID:  parentID,
		Kind:      KindSplit,
		Direction: direction,
	}
}

// NewWindow returns a leaf Window node holding its own copy of attrs.
func NewWindow(id, parentID uint64, attrs *Metadata) *Node {
	return &Node{
		ID:       id,
		ParentID: parentID,
		Kind:     KindWindow,
		Attrs:    attrs.Clone(),
	}
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == 0
}

// AddChild appends child to the end of n's children.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// RemoveChild detaches the direct child with the given id and returns it.
func (n *Node) RemoveChild(id uint64) (*Node, bool) {
	for i, child := range n.Children {
		if child.ID == id {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return child, true
		}
	}
	return nil, false
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(current) {
			return
		}
		for i := len(current.Children) - 1; i >= 0; i-- {
			stack = append(stack, current.Children[i])
		}
	}
}

// View is a serializable snapshot of a subtree.
type View struct {
	ID        uint64    `json:"id" yaml:"id"`
	ParentID  uint64    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Kind      string    `json:"kind" yaml:"kind"`
	Direction string    `json:"direction,omitempty" yaml:"direction,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Children  []View    `json:"children,omitempty" yaml:"children,omitempty"`
}

// View snapshots the subtree rooted at n.
func (n *Node) View() View {
	v := View{
		ID:       n.ID,
		ParentID: n.ParentID,
		Kind:     n.Kind.String(),
		Metadata: n.Attrs.Clone(),
	}
	if n.Kind == KindSplit {
		v.Direction = n.Direction.String()
	}
	for _, child := range n.Children {
		v.Children = append(v.Children, child.View())
	}
	return v
}
