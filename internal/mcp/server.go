package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/session"
)

const (
	ServerName    = "tiletree"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing layout tree operations.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	trees     session.Service
}

// NewServer creates an MCP server over trees, which is either the daemon
// client or an in-process store.
func NewServer(cfg *config.Config, trees session.Service) (*Server, error) {
	if trees == nil {
		return nil, fmt.Errorf("mcp server needs a tree service")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Server{
		config: cfg,
		trees:  trees,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "new_tree",
		Description: "Create a named layout tree holding a single root window. Returns the tree name and the root window id.",
	}, s.handleNewTree)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_window",
		Description: "Add a window next to parent_id. When parent_id is a window it becomes a split along direction, keeping its id; its old content moves to a new first child and the new window is the second child. When parent_id is a split the window is appended. Returns the new window id.",
	}, s.handleAddWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "remove_window",
		Description: "Remove a node and its subtree. A split left with one child is replaced by that child. The root cannot be removed.",
	}, s.handleRemoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_attrs",
		Description: "Replace the metadata (name, surface id, geometry, focus, halted) of a window.",
	}, s.handleUpdateAttrs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_tree",
		Description: "Return the full structure of a tree as JSON, or as an indented outline when format is outline.",
	}, s.handleGetTree)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_trees",
		Description: "List stored trees with their root id, last minted id and window count.",
	}, s.handleListTrees)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "free_tree",
		Description: "Release a tree and forget its name.",
	}, s.handleFreeTree)
}
