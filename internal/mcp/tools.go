package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/output"
)

func (s *Server) handleNewTree(_ context.Context, _ *mcpsdk.CallToolRequest, args NewTreeInput) (*mcpsdk.CallToolResult, NewTreeOutput, error) {
	info, err := s.trees.Create(args.Name, args.Root)
	if err != nil {
		return nil, NewTreeOutput{}, err
	}
	return nil, NewTreeOutput{
		Name:    info.Name,
		RootID:  info.RootID,
		Windows: info.Windows,
	}, nil
}

func (s *Server) handleAddWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args AddWindowInput) (*mcpsdk.CallToolResult, AddWindowOutput, error) {
	if strings.TrimSpace(args.Tree) == "" {
		return nil, AddWindowOutput{}, fmt.Errorf("tree is required")
	}
	if args.Metadata == nil {
		return nil, AddWindowOutput{}, fmt.Errorf("metadata is required")
	}

	direction := s.config.GetDefaultDirection()
	if args.Direction != "" {
		d, err := layout.ParseDirection(args.Direction)
		if err != nil {
			return nil, AddWindowOutput{}, err
		}
		direction = d
	}

	id, err := s.trees.AddWindow(args.Tree, args.ParentID, direction, args.Metadata)
	if err != nil {
		return nil, AddWindowOutput{}, err
	}
	return nil, AddWindowOutput{Tree: args.Tree, WindowID: id}, nil
}

func (s *Server) handleRemoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args RemoveWindowInput) (*mcpsdk.CallToolResult, RemoveWindowOutput, error) {
	if err := s.trees.RemoveWindow(args.Tree, args.WindowID); err != nil {
		return nil, RemoveWindowOutput{Removed: false}, err
	}
	return nil, RemoveWindowOutput{Removed: true}, nil
}

func (s *Server) handleUpdateAttrs(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateAttrsInput) (*mcpsdk.CallToolResult, UpdateAttrsOutput, error) {
	if args.Metadata == nil {
		return nil, UpdateAttrsOutput{}, fmt.Errorf("metadata is required")
	}
	if err := s.trees.UpdateAttrs(args.Tree, args.WindowID, args.Metadata); err != nil {
		return nil, UpdateAttrsOutput{Updated: false}, err
	}
	return nil, UpdateAttrsOutput{Updated: true}, nil
}

// handleGetTree returns text content only; the recursive tree view has no
// fixed output schema.
func (s *Server) handleGetTree(_ context.Context, _ *mcpsdk.CallToolRequest, args GetTreeInput) (*mcpsdk.CallToolResult, any, error) {
	snap, err := s.trees.Get(args.Tree)
	if err != nil {
		return nil, nil, err
	}

	var text string
	switch strings.ToLower(strings.TrimSpace(args.Format)) {
	case "", "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode tree: %w", err)
		}
		text = string(data)
	case "outline":
		text = output.Outline(snap.Root, false)
	default:
		return nil, nil, fmt.Errorf("unknown format %q (want json or outline)", args.Format)
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}, nil, nil
}

func (s *Server) handleListTrees(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListTreesInput) (*mcpsdk.CallToolResult, ListTreesOutput, error) {
	infos, err := s.trees.List()
	if err != nil {
		return nil, ListTreesOutput{}, err
	}

	trees := make([]TreeSummary, 0, len(infos))
	for _, info := range infos {
		trees = append(trees, TreeSummary{
			Name:      info.Name,
			RootID:    info.RootID,
			AnchorID:  info.AnchorID,
			Windows:   info.Windows,
			CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, ListTreesOutput{Trees: trees}, nil
}

func (s *Server) handleFreeTree(_ context.Context, _ *mcpsdk.CallToolRequest, args FreeTreeInput) (*mcpsdk.CallToolResult, FreeTreeOutput, error) {
	if err := s.trees.Free(args.Tree); err != nil {
		return nil, FreeTreeOutput{Freed: false}, err
	}
	return nil, FreeTreeOutput{Freed: true}, nil
}
