//go:build cgo

package main

import (
	"testing"

	"github.com/1broseidon/tiletree/internal/api"
	"github.com/1broseidon/tiletree/internal/boundary"
)

func TestNewNilMetadata(t *testing.T) {
	if tree := layout_tree_new(nil); tree != nil {
		t.Fatal("layout_tree_new(nil) returned a tree")
	}
}

func TestLifecycle(t *testing.T) {
	meta := metadataToC(&boundary.Metadata{Name: "root", Width: 1920, Focus: true})
	tree := layout_tree_new(meta)
	if tree == nil {
		t.Fatal("layout_tree_new returned nil")
	}
	defer layout_tree_free(tree)

	rootID := tree.root.id
	if uint64(tree.root.node_type) != boundary.KindWindow {
		t.Fatalf("root kind = %d, want window", tree.root.node_type)
	}
	if uint64(tree.next_id) != uint64(rootID) {
		t.Fatalf("next_id = %d, root id = %d", tree.next_id, rootID)
	}

	res := addWindow(tree, uint64(rootID), 1, meta)
	if !bool(res.success) {
		t.Fatalf("add_window failed")
	}
	if uint64(res.window_id) != uint64(rootID)+2 {
		t.Fatalf("window_id = %d, want %d", res.window_id, uint64(rootID)+2)
	}
	if uint64(tree.root.node_type) != boundary.KindSplitVertical {
		t.Fatalf("root kind = %d, want vertical split", tree.root.node_type)
	}
	if tree.root.attrs != nil {
		t.Fatal("split record carries metadata")
	}
	if tree.root.child == nil || tree.root.child.next == nil || tree.root.child.next.next != nil {
		t.Fatal("split does not have exactly two children")
	}

	got := metadataFromC(tree.root.child.attrs)
	if got.Name != "root" || got.Width != 1920 || !got.Focus {
		t.Fatalf("demoted child metadata = %+v", got)
	}

	if !removeWindow(tree, uint64(res.window_id)) {
		t.Fatal("remove_window failed")
	}
	if uint64(tree.root.node_type) != boundary.KindWindow || tree.root.child != nil {
		t.Fatal("split did not collapse into a window")
	}
	if name := metadataFromC(tree.root.attrs).Name; name != "root" {
		t.Fatalf("collapsed root name = %q", name)
	}
}

func TestAddWindowMessages(t *testing.T) {
	meta := metadataToC(&boundary.Metadata{Name: "m"})
	tree := layout_tree_new(meta)
	defer layout_tree_free(tree)

	tests := []struct {
		name      string
		parentID  uint64
		direction uint32
		nilTree   bool
		nilMeta   bool
		want      string
	}{
		{name: "null tree", nilTree: true, want: api.MsgNullTree},
		{name: "null metadata", parentID: uint64(tree.root.id), nilMeta: true, want: api.MsgNullMetadata},
		{name: "bad direction", parentID: uint64(tree.root.id), direction: 2, want: api.MsgInvalidDirection},
		{name: "missing parent", parentID: 999, want: api.MsgParentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, m := tree, meta
			if tt.nilTree {
				target = nil
			}
			if tt.nilMeta {
				m = nil
			}

			res := addWindow(target, tt.parentID, tt.direction, m)
			if bool(res.success) {
				t.Fatal("expected failure")
			}
			if res.window_id != 0 {
				t.Fatalf("window_id = %d, want 0", res.window_id)
			}
			if res.error_message != messages[tt.want] {
				t.Fatalf("error_message does not point at %q", tt.want)
			}
		})
	}
}

func TestRemoveRootRejected(t *testing.T) {
	tree := layout_tree_new(metadataToC(&boundary.Metadata{Name: "root"}))
	defer layout_tree_free(tree)

	if removeWindow(tree, uint64(tree.root.id)) {
		t.Fatal("root removal succeeded")
	}
	if removeWindow(nil, 1) {
		t.Fatal("remove on null tree succeeded")
	}
}

func TestUpdateAttrs(t *testing.T) {
	tree := layout_tree_new(metadataToC(&boundary.Metadata{Name: "root"}))
	defer layout_tree_free(tree)

	if !updateAttrs(tree, uint64(tree.root.id), metadataToC(&boundary.Metadata{Name: "renamed", Halted: true})) {
		t.Fatal("update_attrs failed")
	}
	got := metadataFromC(tree.root.attrs)
	if got.Name != "renamed" || !got.Halted {
		t.Fatalf("metadata = %+v", got)
	}
	if updateAttrs(tree, uint64(tree.root.id), nil) {
		t.Fatal("update_attrs with nil metadata succeeded")
	}
}

func TestRecordsSurviveGoCopy(t *testing.T) {
	src := &boundary.Tree{
		Root: &boundary.Node{
			ID:   1,
			Kind: boundary.KindSplitHorizontal,
			Child: &boundary.Node{
				ID: 2, ParentID: 1, Kind: boundary.KindWindow, Attrs: &boundary.Metadata{Name: "a"},
				Next: &boundary.Node{ID: 3, ParentID: 1, Kind: boundary.KindWindow, Attrs: &boundary.Metadata{Name: "b"}},
			},
		},
		NextID: 3,
	}

	root := nodesToC(src.Root)
	tree := newTree(root, 3)
	back, err := treeFromC(tree)
	if err != nil {
		t.Fatalf("treeFromC: %v", err)
	}
	if boundary.Count(back) != boundary.Count(src) {
		t.Fatalf("record count %d, want %d", boundary.Count(back), boundary.Count(src))
	}
	if back.Root.Child.Next.Attrs.Name != "b" {
		t.Fatalf("second child = %+v", back.Root.Child.Next.Attrs)
	}

	// 3 nodes + 2 metadata records.
	if freed := freeTree(tree); freed != 5 {
		t.Fatalf("freeTree = %d, want 5", freed)
	}
}
