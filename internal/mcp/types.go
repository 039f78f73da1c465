package mcp

import "github.com/1broseidon/tiletree/internal/layout"

// NewTreeInput is the input for the new_tree tool.
type NewTreeInput struct {
	Name string           `json:"name,omitempty" jsonschema:"Tree name. Leave empty to get a generated name."`
	Root *layout.Metadata `json:"root,omitempty" jsonschema:"Metadata for the root window (default: a focused window named after root_name)"`
}

// NewTreeOutput is the output for the new_tree tool.
type NewTreeOutput struct {
	Name    string `json:"name"`
	RootID  uint64 `json:"root_id"`
	Windows int    `json:"windows"`
}

// AddWindowInput is the input for the add_window tool.
type AddWindowInput struct {
	Tree      string           `json:"tree" jsonschema:"Name of the tree to modify"`
	ParentID  uint64           `json:"parent_id" jsonschema:"Id of the node to place the new window next to. A window is split in two; a split gains a child."`
	Direction string           `json:"direction,omitempty" jsonschema:"Split axis when parent_id is a window: horizontal or vertical (default: default_direction from config)"`
	Metadata  *layout.Metadata `json:"metadata" jsonschema:"Metadata for the new window"`
}

// AddWindowOutput is the output for the add_window tool.
type AddWindowOutput struct {
	Tree     string `json:"tree"`
	WindowID uint64 `json:"window_id"`
}

// RemoveWindowInput is the input for the remove_window tool.
type RemoveWindowInput struct {
	Tree     string `json:"tree" jsonschema:"Name of the tree to modify"`
	WindowID uint64 `json:"window_id" jsonschema:"Id of the node to remove along with its subtree. The root cannot be removed."`
}

// RemoveWindowOutput is the output for the remove_window tool.
type RemoveWindowOutput struct {
	Removed bool `json:"removed"`
}

// UpdateAttrsInput is the input for the update_attrs tool.
type UpdateAttrsInput struct {
	Tree     string           `json:"tree" jsonschema:"Name of the tree to modify"`
	WindowID uint64           `json:"window_id" jsonschema:"Id of the window whose metadata is replaced"`
	Metadata *layout.Metadata `json:"metadata" jsonschema:"Replacement metadata"`
}

// UpdateAttrsOutput is the output for the update_attrs tool.
type UpdateAttrsOutput struct {
	Updated bool `json:"updated"`
}

// GetTreeInput is the input for the get_tree tool.
type GetTreeInput struct {
	Tree   string `json:"tree" jsonschema:"Name of the tree to read"`
	Format string `json:"format,omitempty" jsonschema:"json (default) or outline"`
}

// ListTreesInput is the input for the list_trees tool.
type ListTreesInput struct{}

// TreeSummary describes one stored tree.
type TreeSummary struct {
	Name      string `json:"name"`
	RootID    uint64 `json:"root_id"`
	AnchorID  uint64 `json:"anchor_id"`
	Windows   int    `json:"windows"`
	CreatedAt string `json:"created_at"`
}

// ListTreesOutput is the output for the list_trees tool.
type ListTreesOutput struct {
	Trees []TreeSummary `json:"trees"`
}

// FreeTreeInput is the input for the free_tree tool.
type FreeTreeInput struct {
	Tree string `json:"tree" jsonschema:"Name of the tree to release"`
}

// FreeTreeOutput is the output for the free_tree tool.
type FreeTreeOutput struct {
	Freed bool `json:"freed"`
}
