// Command liblayouttree builds the layout tree as a C shared library:
//
//	go build -buildmode=c-shared -o liblayouttree.so ./cmd/liblayouttree
//
// Every record handed to C is allocated with calloc and owned by the caller
// until layout_tree_free. Error messages are static and must not be freed.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct CMetadata {
	const char *name;
	uintptr_t id;
	uintptr_t x;
	uintptr_t y;
	uintptr_t width;
	uintptr_t height;
	bool focus;
	bool halted;
} CMetadata;

typedef struct CContainerNode {
	uintptr_t id;
	uintptr_t parent_id;
	uintptr_t node_type;
	const struct CMetadata *attrs;
	struct CContainerNode *child;
	struct CContainerNode *next;
} CContainerNode;

typedef struct CLayoutTree {
	const struct CContainerNode *root;
	uintptr_t next_id;
} CLayoutTree;

typedef struct AddWindowResult {
	bool success;
	uintptr_t window_id;
	const char *error_message;
} AddWindowResult;
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/1broseidon/tiletree/internal/api"
	"github.com/1broseidon/tiletree/internal/boundary"
)

// messages holds one C copy of every fixed error message for the life of the
// process.
var messages = func() map[string]*C.char {
	m := make(map[string]*C.char)
	for _, msg := range []string{
		api.MsgNullTree,
		api.MsgNullMetadata,
		api.MsgInvalidDirection,
		api.MsgReconstructionFailure,
		api.MsgParentNotFound,
		api.MsgSplitDirectionRequired,
		api.MsgRootRemovalForbidden,
		api.MsgWindowNotFound,
		api.MsgNotAWindow,
		api.MsgUnknown,
	} {
		m[msg] = C.CString(msg)
	}
	return m
}()

func cMessage(msg string) *C.char {
	if s, ok := messages[msg]; ok {
		return s
	}
	return messages[api.MsgUnknown]
}

func metadataFromC(m *C.struct_CMetadata) *boundary.Metadata {
	if m == nil {
		return nil
	}
	return &boundary.Metadata{
		Name:   C.GoString(m.name),
		ID:     uint64(m.id),
		X:      uint64(m.x),
		Y:      uint64(m.y),
		Width:  uint64(m.width),
		Height: uint64(m.height),
		Focus:  bool(m.focus),
		Halted: bool(m.halted),
	}
}

func metadataToC(m *boundary.Metadata) *C.struct_CMetadata {
	if m == nil {
		return nil
	}
	c := (*C.struct_CMetadata)(C.calloc(1, C.sizeof_struct_CMetadata))
	c.name = C.CString(m.Name)
	c.id = C.uintptr_t(m.ID)
	c.x = C.uintptr_t(m.X)
	c.y = C.uintptr_t(m.Y)
	c.width = C.uintptr_t(m.Width)
	c.height = C.uintptr_t(m.Height)
	c.focus = C.bool(m.Focus)
	c.halted = C.bool(m.Halted)
	return c
}

// treeFromC copies the caller's records into Go memory. A record reachable
// twice is reported instead of followed.
func treeFromC(t *C.struct_CLayoutTree) (*boundary.Tree, error) {
	bt := &boundary.Tree{NextID: uint64(t.next_id)}
	if t.root == nil {
		return bt, nil
	}

	type item struct {
		src *C.struct_CContainerNode
		dst **boundary.Node
	}
	seen := make(map[*C.struct_CContainerNode]struct{})
	stack := []item{{src: t.root, dst: &bt.Root}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[it.src]; ok {
			return nil, fmt.Errorf("%w: node %d", boundary.ErrCycle, uint64(it.src.id))
		}
		seen[it.src] = struct{}{}

		n := &boundary.Node{
			ID:       uint64(it.src.id),
			ParentID: uint64(it.src.parent_id),
			Kind:     uint64(it.src.node_type),
			Attrs:    metadataFromC(it.src.attrs),
		}
		*it.dst = n

		if it.src.next != nil {
			stack = append(stack, item{src: it.src.next, dst: &n.Next})
		}
		if it.src.child != nil {
			stack = append(stack, item{src: it.src.child, dst: &n.Child})
		}
	}
	return bt, nil
}

func nodesToC(root *boundary.Node) *C.struct_CContainerNode {
	if root == nil {
		return nil
	}

	type item struct {
		src *boundary.Node
		dst **C.struct_CContainerNode
	}
	var out *C.struct_CContainerNode
	stack := []item{{src: root, dst: &out}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := (*C.struct_CContainerNode)(C.calloc(1, C.sizeof_struct_CContainerNode))
		n.id = C.uintptr_t(it.src.ID)
		n.parent_id = C.uintptr_t(it.src.ParentID)
		n.node_type = C.uintptr_t(it.src.Kind)
		n.attrs = metadataToC(it.src.Attrs)
		*it.dst = n

		if it.src.Next != nil {
			stack = append(stack, item{src: it.src.Next, dst: &n.next})
		}
		if it.src.Child != nil {
			stack = append(stack, item{src: it.src.Child, dst: &n.child})
		}
	}
	return out
}

// freeNodes releases every record reachable from root and returns how many
// node and metadata records were freed.
func freeNodes(root *C.struct_CContainerNode) int {
	freed := 0
	stack := []*C.struct_CContainerNode{}
	if root != nil {
		stack = append(stack, root)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.next != nil {
			stack = append(stack, n.next)
		}
		if n.child != nil {
			stack = append(stack, n.child)
		}
		if n.attrs != nil {
			C.free(unsafe.Pointer(n.attrs.name))
			C.free(unsafe.Pointer(n.attrs))
			freed++
		}
		C.free(unsafe.Pointer(n))
		freed++
	}
	return freed
}

// mutate runs fn against a Go copy of t and, when it succeeds, swaps the new
// records into t and frees the old ones.
func mutate(t *C.struct_CLayoutTree, fn func(*boundary.Tree) error) error {
	bt, err := treeFromC(t)
	if err != nil {
		return fmt.Errorf("%w: %w", api.ErrReconstructionFailure, err)
	}
	defer api.Free(bt)

	if err := fn(bt); err != nil {
		return err
	}

	old := t.root
	t.root = nodesToC(bt.Root)
	t.next_id = C.uintptr_t(bt.NextID)
	freeNodes(old)
	return nil
}

func newTree(root *C.struct_CContainerNode, nextID uint64) *C.struct_CLayoutTree {
	t := (*C.struct_CLayoutTree)(C.calloc(1, C.sizeof_struct_CLayoutTree))
	t.root = root
	t.next_id = C.uintptr_t(nextID)
	return t
}

// freeTree releases t and everything reachable from it, returning the number
// of node and metadata records freed.
func freeTree(t *C.struct_CLayoutTree) int {
	if t == nil {
		return 0
	}
	freed := freeNodes(t.root)
	C.free(unsafe.Pointer(t))
	return freed
}

func addWindow(t *C.struct_CLayoutTree, parentID uint64, direction uint32, meta *C.struct_CMetadata) C.struct_AddWindowResult {
	var res C.struct_AddWindowResult
	fail := func(msg string) C.struct_AddWindowResult {
		res.error_message = cMessage(msg)
		return res
	}

	switch {
	case t == nil:
		return fail(api.MsgNullTree)
	case meta == nil:
		return fail(api.MsgNullMetadata)
	}
	if _, err := api.DirectionFromCode(direction); err != nil {
		return fail(api.MsgInvalidDirection)
	}

	var id uint64
	err := mutate(t, func(bt *boundary.Tree) error {
		var addErr error
		id, addErr = api.AddWindowErr(bt, parentID, direction, metadataFromC(meta))
		return addErr
	})
	if err != nil {
		return fail(api.Message(err))
	}

	res.success = true
	res.window_id = C.uintptr_t(id)
	return res
}

func removeWindow(t *C.struct_CLayoutTree, windowID uint64) bool {
	if t == nil {
		return false
	}
	err := mutate(t, func(bt *boundary.Tree) error {
		return api.RemoveWindowErr(bt, windowID)
	})
	return err == nil
}

func updateAttrs(t *C.struct_CLayoutTree, windowID uint64, meta *C.struct_CMetadata) bool {
	if t == nil || meta == nil {
		return false
	}
	err := mutate(t, func(bt *boundary.Tree) error {
		return api.UpdateAttrsErr(bt, windowID, metadataFromC(meta))
	})
	return err == nil
}

//export layout_tree_new
func layout_tree_new(meta *C.struct_CMetadata) *C.struct_CLayoutTree {
	if meta == nil {
		return nil
	}
	bt := api.New(metadataFromC(meta))
	defer api.Free(bt)
	return newTree(nodesToC(bt.Root), bt.NextID)
}

//export layout_tree_free
func layout_tree_free(t *C.struct_CLayoutTree) {
	freeTree(t)
}

//export layout_tree_add_window
func layout_tree_add_window(t *C.struct_CLayoutTree, parentID C.uintptr_t, direction C.uint32_t, meta *C.struct_CMetadata) C.struct_AddWindowResult {
	return addWindow(t, uint64(parentID), uint32(direction), meta)
}

//export layout_tree_remove_window
func layout_tree_remove_window(t *C.struct_CLayoutTree, windowID C.uintptr_t) C.bool {
	return C.bool(removeWindow(t, uint64(windowID)))
}

//export layout_tree_update_attrs
func layout_tree_update_attrs(t *C.struct_CLayoutTree, windowID C.uintptr_t, meta *C.struct_CMetadata) C.bool {
	return C.bool(updateAttrs(t, uint64(windowID), meta))
}

func main() {}
