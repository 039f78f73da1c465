package layout

import (
	"fmt"
	"time"
)

// Tree owns a root node and the counter every later id is minted from.
//
// A Tree is not safe for concurrent use; callers serialize their operations.
type Tree struct {
	root   *Node
	nextID uint64
}

type options struct {
	now  func() time.Time
	seed uint64
}

// Option configures New.
type Option func(*options)

// WithClock replaces the wall clock used to seed the root id.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSeed fixes the root id, and therefore the counter start, to seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// New returns a tree whose root is a Window carrying attrs. The root id and
// the id counter are seeded from the current time in milliseconds.
func New(attrs *Metadata, opts ...Option) *Tree {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	seed := o.seed
	if seed == 0 {
		seed = uint64(o.now().UTC().UnixMilli())
	}

	return &Tree{
		root:   NewWindow(seed, 0, orEmpty(attrs)),
		nextID: seed,
	}
}

// FromRoot wraps an existing node hierarchy. The caller hands over ownership
// of root and guarantees nextID is not below any id in it.
func FromRoot(root *Node, nextID uint64) *Tree {
	return &Tree{root: root, nextID: nextID}
}

// Root returns the root node. The tree keeps ownership.
func (t *Tree) Root() *Node {
	return t.root
}

// CurrentAnchorID returns the id most recently minted.
func (t *Tree) CurrentAnchorID() uint64 {
	return t.nextID
}

func (t *Tree) mint() uint64 {
	t.nextID++
	return t.nextID
}

// AddWindow places a new Window carrying attrs next to the node parentID and
// returns its id.
//
// A Window target is converted in place into a Split along direction: its
// metadata moves to a freshly minted first child and the new window becomes
// the second child. A Split target simply gains the new window as its last
// child.
func (t *Tree) AddWindow(parentID uint64, direction Direction, attrs *Metadata) (uint64, error) {
	if !direction.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}
	return t.addWindow(parentID, &direction, attrs)
}

func (t *Tree) addWindow(parentID uint64, direction *Direction, attrs *Metadata) (uint64, error) {
	stack := []*Node{t.root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.ID != parentID {
			stack = append(stack, current.Children...)
			continue
		}

		switch current.Kind {
		case KindWindow:
			if direction == nil {
				return 0, ErrSplitDirectionRequired
			}

			demoted := &Node{
				ID:       t.mint(),
				ParentID: current.ID,
				Kind:     KindWindow,
				Attrs:    current.Attrs,
				Children: current.Children,
			}
			added := NewWindow(t.mint(), current.ID, orEmpty(attrs))

			split := NewSplit(current.ID, current.ParentID, *direction)
			split.AddChild(demoted)
			split.AddChild(added)

			*current = *split
			return added.ID, nil

		case KindSplit:
			added := NewWindow(t.mint(), current.ID, orEmpty(attrs))
			current.AddChild(added)
			return added.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: %d", ErrParentNotFound, parentID)
}

// RemoveWindow detaches the node windowID, and its subtree, from its parent.
// A Split left with a single child is replaced by that child.
func (t *Tree) RemoveWindow(windowID uint64) error {
	if t.root.ID == windowID {
		return ErrRootRemovalForbidden
	}

	stack := []*Node{t.root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := current.RemoveChild(windowID); ok {
			if current.Kind == KindSplit && len(current.Children) == 1 {
				remaining := current.Children[0]
				remaining.ParentID = current.ParentID
				*current = *remaining
			}
			return nil
		}

		stack = append(stack, current.Children...)
	}

	return fmt.Errorf("%w: %d", ErrWindowNotFound, windowID)
}

// UpdateAttrs replaces the metadata of the Window windowID with a copy of attrs.
func (t *Tree) UpdateAttrs(windowID uint64, attrs *Metadata) error {
	node := t.Find(windowID)
	if node == nil {
		return fmt.Errorf("%w: %d", ErrWindowNotFound, windowID)
	}
	if node.Kind != KindWindow {
		return fmt.Errorf("%w: %d", ErrNotAWindow, windowID)
	}
	node.Attrs = orEmpty(attrs).Clone()
	return nil
}

// Find returns the node carrying id, or nil.
func (t *Tree) Find(id uint64) *Node {
	var found *Node
	t.root.Walk(func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []*Node {
	var nodes []*Node
	t.root.Walk(func(n *Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Windows returns the number of Window nodes.
func (t *Tree) Windows() int {
	count := 0
	t.root.Walk(func(n *Node) bool {
		if n.Kind == KindWindow {
			count++
		}
		return true
	})
	return count
}

func orEmpty(attrs *Metadata) *Metadata {
	if attrs == nil {
		return &Metadata{}
	}
	return attrs
}
