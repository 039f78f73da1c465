// Package api is the fixed-signature surface over a layout tree held in
// boundary form. Every mutation imports the caller's records, mutates an owned
// tree, exports a fresh set of records into the caller's handle and releases
// the previous ones.
package api

import (
	"errors"
	"fmt"

	"github.com/1broseidon/tiletree/internal/boundary"
	"github.com/1broseidon/tiletree/internal/layout"
)

// Direction codes accepted by AddWindow.
const (
	DirectionHorizontal uint32 = 0
	DirectionVertical   uint32 = 1
)

// Fixed error messages. Boundary callers compare against and display these;
// they are never formatted.
const (
	MsgNullTree               = "LayoutTree is null"
	MsgNullMetadata           = "Metadata is null"
	MsgInvalidDirection       = "Invalid direction"
	MsgReconstructionFailure  = "Failed to reconstruct LayoutTree"
	MsgParentNotFound         = "Parent node not found"
	MsgSplitDirectionRequired = "Split direction is required for splitting a window"
	MsgRootRemovalForbidden   = "Cannot remove the root node"
	MsgWindowNotFound         = "Window ID not found"
	MsgNotAWindow             = "Node is not a window"
	MsgUnknown                = "Unknown error"
)

var (
	ErrNullArgument          = errors.New("required argument is null")
	ErrNullTree              = fmt.Errorf("%w: tree", ErrNullArgument)
	ErrNullMetadata          = fmt.Errorf("%w: metadata", ErrNullArgument)
	ErrInvalidDirection      = layout.ErrInvalidDirection
	ErrReconstructionFailure = errors.New("failed to reconstruct layout tree")
)

// AddWindowResult mirrors the C result record.
type AddWindowResult struct {
	Success      bool
	WindowID     uint64
	ErrorMessage string
}

// DirectionFromCode maps a boundary direction code to a layout direction.
func DirectionFromCode(code uint32) (layout.Direction, error) {
	switch code {
	case DirectionHorizontal:
		return layout.Horizontal, nil
	case DirectionVertical:
		return layout.Vertical, nil
	default:
		return 0, fmt.Errorf("%w: code %d", ErrInvalidDirection, code)
	}
}

// DirectionCode is the inverse of DirectionFromCode.
func DirectionCode(d layout.Direction) uint32 {
	if d == layout.Vertical {
		return DirectionVertical
	}
	return DirectionHorizontal
}

// Message returns the fixed message for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDirection):
		return MsgInvalidDirection
	case errors.Is(err, ErrReconstructionFailure):
		return MsgReconstructionFailure
	case errors.Is(err, layout.ErrParentNotFound):
		return MsgParentNotFound
	case errors.Is(err, layout.ErrSplitDirectionRequired):
		return MsgSplitDirectionRequired
	case errors.Is(err, layout.ErrRootRemovalForbidden):
		return MsgRootRemovalForbidden
	case errors.Is(err, layout.ErrWindowNotFound):
		return MsgWindowNotFound
	case errors.Is(err, layout.ErrNotAWindow):
		return MsgNotAWindow
	case errors.Is(err, ErrNullMetadata):
		return MsgNullMetadata
	case errors.Is(err, ErrNullTree):
		return MsgNullTree
	default:
		return MsgUnknown
	}
}

// New creates a tree whose root window carries meta and returns it in
// boundary form. It returns nil when meta is nil.
func New(meta *boundary.Metadata, opts ...layout.Option) *boundary.Tree {
	if meta == nil {
		return nil
	}
	return boundary.Export(layout.New(meta.ToLayout(), opts...))
}

// Free releases every record reachable from bt. Nil is a no-op.
func Free(bt *boundary.Tree) {
	boundary.Release(bt)
}

// AnchorID returns the id most recently minted in bt, or 0 for nil.
func AnchorID(bt *boundary.Tree) uint64 {
	if bt == nil {
		return 0
	}
	return bt.NextID
}

// Snapshot imports bt into an owned tree without touching bt.
func Snapshot(bt *boundary.Tree) (*layout.Tree, error) {
	if bt == nil {
		return nil, ErrNullTree
	}
	tree, err := boundary.Import(bt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReconstructionFailure, err)
	}
	return tree, nil
}

// mutate runs fn against an owned copy of bt and, when fn succeeds, replaces
// bt's records with the mutated tree's export.
func mutate(bt *boundary.Tree, fn func(*layout.Tree) error) error {
	tree, err := Snapshot(bt)
	if err != nil {
		return err
	}
	if err := fn(tree); err != nil {
		return err
	}

	next := boundary.Export(tree)
	boundary.Release(bt)
	bt.Root = next.Root
	bt.NextID = next.NextID
	return nil
}

// AddWindowErr is AddWindow with a Go error instead of a result record.
func AddWindowErr(bt *boundary.Tree, parentID uint64, direction uint32, meta *boundary.Metadata) (uint64, error) {
	if bt == nil {
		return 0, ErrNullTree
	}
	if meta == nil {
		return 0, ErrNullMetadata
	}
	dir, err := DirectionFromCode(direction)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = mutate(bt, func(tree *layout.Tree) error {
		var addErr error
		id, addErr = tree.AddWindow(parentID, dir, meta.ToLayout())
		return addErr
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AddWindow adds a window next to parentID. On success bt holds the new
// records and the result carries the new window's id.
func AddWindow(bt *boundary.Tree, parentID uint64, direction uint32, meta *boundary.Metadata) AddWindowResult {
	switch {
	case bt == nil:
		return AddWindowResult{ErrorMessage: MsgNullTree}
	case meta == nil:
		return AddWindowResult{ErrorMessage: MsgNullMetadata}
	}

	id, err := AddWindowErr(bt, parentID, direction, meta)
	if err != nil {
		return AddWindowResult{ErrorMessage: Message(err)}
	}
	return AddWindowResult{Success: true, WindowID: id}
}

// RemoveWindowErr is RemoveWindow with a Go error.
func RemoveWindowErr(bt *boundary.Tree, windowID uint64) error {
	if bt == nil {
		return ErrNullTree
	}
	return mutate(bt, func(tree *layout.Tree) error {
		return tree.RemoveWindow(windowID)
	})
}

// RemoveWindow removes windowID, collapsing a split left with one child.
// It reports false for a nil tree, unreadable records or any mutation error.
func RemoveWindow(bt *boundary.Tree, windowID uint64) bool {
	return RemoveWindowErr(bt, windowID) == nil
}

// UpdateAttrsErr replaces the metadata of the window windowID.
func UpdateAttrsErr(bt *boundary.Tree, windowID uint64, meta *boundary.Metadata) error {
	if bt == nil {
		return ErrNullTree
	}
	if meta == nil {
		return ErrNullMetadata
	}
	return mutate(bt, func(tree *layout.Tree) error {
		return tree.UpdateAttrs(windowID, meta.ToLayout())
	})
}

// UpdateAttrs reports whether the metadata of windowID was replaced.
func UpdateAttrs(bt *boundary.Tree, windowID uint64, meta *boundary.Metadata) bool {
	return UpdateAttrsErr(bt, windowID, meta) == nil
}
