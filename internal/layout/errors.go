package layout

import "errors"

// Lookup errors
var (
	// ErrParentNotFound indicates no node carries the id passed to AddWindow.
	ErrParentNotFound = errors.New("parent node not found")

	// ErrWindowNotFound indicates no node has a direct child with the id passed
	// to RemoveWindow, or no node carries the id passed to UpdateAttrs.
	ErrWindowNotFound = errors.New("window not found")
)

// Mutation errors
var (
	// ErrSplitDirectionRequired indicates a Window was targeted for splitting
	// without an axis.
	ErrSplitDirectionRequired = errors.New("split direction is required for splitting a window")

	// ErrRootRemovalForbidden indicates RemoveWindow targeted the root.
	ErrRootRemovalForbidden = errors.New("cannot remove the root node")

	// ErrNotAWindow indicates an attribute update targeted a Split.
	ErrNotAWindow = errors.New("node is not a window")

	// ErrInvalidDirection indicates a direction outside horizontal/vertical.
	ErrInvalidDirection = errors.New("invalid direction")
)
