package layout

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func rootMeta() *Metadata {
	return NewMetadata("Root Tab", 1)
}

func TestNew_SeedsRootAndAnchorFromClock(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	tree := New(rootMeta(), WithClock(func() time.Time { return fixed }))

	if got := tree.Root().ID; got != 1700000000123 {
		t.Fatalf("root id = %d, want 1700000000123", got)
	}
	if got := tree.CurrentAnchorID(); got != tree.Root().ID {
		t.Fatalf("anchor = %d, want root id %d", got, tree.Root().ID)
	}
	if tree.Root().Kind != KindWindow {
		t.Fatalf("root kind = %s, want window", tree.Root().Kind)
	}
	if !tree.Root().IsRoot() {
		t.Fatalf("root has parent %d", tree.Root().ParentID)
	}
}

func TestNew_ClonesInitialMetadata(t *testing.T) {
	meta := rootMeta()
	tree := New(meta, WithSeed(1))
	meta.Name = "mutated"

	if tree.Root().Attrs.Name != "Root Tab" {
		t.Fatalf("root metadata shares caller memory: %q", tree.Root().Attrs.Name)
	}
}

func TestAddWindow_SplitsWindowTarget(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	added := NewMetadata("Second Tab", 2)

	id, err := tree.AddWindow(1, Horizontal, added)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if id != 3 {
		t.Fatalf("AddWindow returned %d, want 3", id)
	}

	root := tree.Root()
	if root.Kind != KindSplit || root.Direction != Horizontal {
		t.Fatalf("root = %s/%s, want split/horizontal", root.Kind, root.Direction)
	}
	if root.ID != 1 {
		t.Fatalf("split id = %d, want 1", root.ID)
	}
	if root.Attrs != nil {
		t.Fatalf("split carries metadata %+v", root.Attrs)
	}
	if len(root.Children) != 2 {
		t.Fatalf("split has %d children, want 2", len(root.Children))
	}

	first, second := root.Children[0], root.Children[1]
	if first.ID != 2 || !first.Attrs.Equal(rootMeta()) {
		t.Fatalf("first child = %d %+v, want 2 with root metadata", first.ID, first.Attrs)
	}
	if second.ID != 3 || !second.Attrs.Equal(added) {
		t.Fatalf("second child = %d %+v, want 3 with added metadata", second.ID, second.Attrs)
	}
	for _, child := range root.Children {
		if child.ParentID != 1 {
			t.Fatalf("child %d parent = %d, want 1", child.ID, child.ParentID)
		}
	}
	if tree.CurrentAnchorID() != 3 {
		t.Fatalf("anchor = %d, want 3", tree.CurrentAnchorID())
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestAddWindow_AppendsToSplit(t *testing.T) {
	tree := New(rootMeta(), WithSeed(10))
	if _, err := tree.AddWindow(10, Vertical, NewMetadata("b", 2)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	id, err := tree.AddWindow(10, Horizontal, NewMetadata("c", 3))
	if err != nil {
		t.Fatalf("AddWindow on split: %v", err)
	}
	if id != 13 {
		t.Fatalf("id = %d, want 13", id)
	}

	root := tree.Root()
	if root.Direction != Vertical {
		t.Fatalf("appending changed split direction to %s", root.Direction)
	}
	if len(root.Children) != 3 || root.Children[2].ID != 13 {
		t.Fatalf("new window not appended last: %+v", root.Children)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestAddWindow_CopiesCallerMetadata(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	meta := NewMetadata("x", 5)
	meta.Width = Dim(640)

	id, err := tree.AddWindow(1, Horizontal, meta)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	*meta.Width = 1

	if got := *tree.Find(id).Attrs.Width; got != 640 {
		t.Fatalf("width = %d, want 640", got)
	}
}

func TestAddWindow_Errors(t *testing.T) {
	tests := []struct {
		name      string
		parentID  uint64
		direction Direction
		want      error
	}{
		{"unknown parent", 999, Horizontal, ErrParentNotFound},
		{"invalid direction", 1, Direction(7), ErrInvalidDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := New(rootMeta(), WithSeed(1))
			_, err := tree.AddWindow(tt.parentID, tt.direction, NewMetadata("m", 1))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tree.CurrentAnchorID() != 1 {
				t.Fatalf("failed call minted ids: anchor = %d", tree.CurrentAnchorID())
			}
		})
	}
}

func TestAddWindow_WindowTargetWithoutDirection(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))

	_, err := tree.addWindow(1, nil, NewMetadata("m", 1))
	if !errors.Is(err, ErrSplitDirectionRequired) {
		t.Fatalf("err = %v, want ErrSplitDirectionRequired", err)
	}
}

func TestRemoveWindow_CollapseRestoresSingleWindow(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	id, err := tree.AddWindow(1, Horizontal, NewMetadata("M", 9))
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	if err := tree.RemoveWindow(id); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}

	root := tree.Root()
	if root.Kind != KindWindow {
		t.Fatalf("root kind = %s, want window", root.Kind)
	}
	if !root.Attrs.Equal(rootMeta()) {
		t.Fatalf("root metadata = %+v, want original", root.Attrs)
	}
	if len(root.Children) != 0 {
		t.Fatalf("collapsed root kept %d children", len(root.Children))
	}
	if !root.IsRoot() {
		t.Fatalf("collapsed root has parent %d", root.ParentID)
	}
	// The restored window is the demoted child, so it keeps that child's id.
	if root.ID != 2 {
		t.Fatalf("root id = %d, want 2", root.ID)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRemoveWindow_RootForbidden(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	if err := tree.RemoveWindow(1); !errors.Is(err, ErrRootRemovalForbidden) {
		t.Fatalf("single window: err = %v", err)
	}

	if _, err := tree.AddWindow(1, Vertical, NewMetadata("a", 2)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if _, err := tree.AddWindow(3, Horizontal, NewMetadata("b", 3)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if err := tree.RemoveWindow(tree.Root().ID); !errors.Is(err, ErrRootRemovalForbidden) {
		t.Fatalf("nested split: err = %v", err)
	}
}

func TestRemoveWindow_NotFound(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	if _, err := tree.AddWindow(1, Vertical, NewMetadata("a", 2)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	if err := tree.RemoveWindow(42); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("err = %v, want ErrWindowNotFound", err)
	}
}

func TestRemoveWindow_DropsWholeSubtree(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	if _, err := tree.AddWindow(1, Horizontal, NewMetadata("a", 2)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if _, err := tree.AddWindow(1, Horizontal, NewMetadata("b", 3)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	// Turn window 3 into a split holding 5 and 6.
	if _, err := tree.AddWindow(3, Vertical, NewMetadata("c", 4)); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	if err := tree.RemoveWindow(3); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	for _, id := range []uint64{3, 5, 6} {
		if tree.Find(id) != nil {
			t.Fatalf("node %d survived removal of its ancestor", id)
		}
	}
	if len(tree.Root().Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(tree.Root().Children))
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestScenario_NestedSplitAndCollapse(t *testing.T) {
	const r = 1000
	orig := rootMeta()
	a := NewMetadata("A", 2)
	b := NewMetadata("B", 3)
	tree := New(orig, WithSeed(r))

	id, err := tree.AddWindow(r, Horizontal, a)
	if err != nil || id != r+2 {
		t.Fatalf("first AddWindow = %d, %v; want %d", id, err, r+2)
	}

	id, err = tree.AddWindow(r+2, Vertical, b)
	if err != nil || id != r+4 {
		t.Fatalf("second AddWindow = %d, %v; want %d", id, err, r+4)
	}

	inner := tree.Find(r + 2)
	if inner.Kind != KindSplit || inner.Direction != Vertical {
		t.Fatalf("node %d = %s/%s, want split/vertical", r+2, inner.Kind, inner.Direction)
	}
	if inner.Children[0].ID != r+3 || !inner.Children[0].Attrs.Equal(a) {
		t.Fatalf("inner first child = %d %+v", inner.Children[0].ID, inner.Children[0].Attrs)
	}
	if inner.Children[1].ID != r+4 || !inner.Children[1].Attrs.Equal(b) {
		t.Fatalf("inner second child = %d %+v", inner.Children[1].ID, inner.Children[1].Attrs)
	}

	if err := tree.RemoveWindow(r + 3); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}

	root := tree.Root()
	if root.Kind != KindSplit || root.Direction != Horizontal || len(root.Children) != 2 {
		t.Fatalf("root = %s/%s with %d children", root.Kind, root.Direction, len(root.Children))
	}
	left, right := root.Children[0], root.Children[1]
	if left.Kind != KindWindow || !left.Attrs.Equal(orig) {
		t.Fatalf("left = %s %+v, want original window", left.Kind, left.Attrs)
	}
	if right.Kind != KindWindow || right.ID != r+4 || !right.Attrs.Equal(b) {
		t.Fatalf("right = %s %d %+v, want window %d with B", right.Kind, right.ID, right.Attrs, r+4)
	}
	if right.ParentID != r {
		t.Fatalf("promoted window parent = %d, want %d", right.ParentID, r)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestInvariants_HoldAcrossRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := New(rootMeta(), WithSeed(1))

	for step := 0; step < 500; step++ {
		nodes := tree.Nodes()
		target := nodes[rng.Intn(len(nodes))]

		if len(nodes) > 1 && rng.Intn(3) == 0 {
			if target.IsRoot() {
				continue
			}
			if err := tree.RemoveWindow(target.ID); err != nil {
				t.Fatalf("step %d: RemoveWindow(%d): %v", step, target.ID, err)
			}
		} else {
			dir := Direction(rng.Intn(2))
			if _, err := tree.AddWindow(target.ID, dir, NewMetadata("w", uint64(step))); err != nil {
				t.Fatalf("step %d: AddWindow(%d): %v", step, target.ID, err)
			}
		}

		if err := tree.Validate(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		roots := 0
		for _, n := range tree.Nodes() {
			if n.IsRoot() {
				roots++
			}
		}
		if roots != 1 {
			t.Fatalf("step %d: %d parentless nodes", step, roots)
		}
	}
}

func TestUpdateAttrs(t *testing.T) {
	tree := New(rootMeta(), WithSeed(1))
	id, err := tree.AddWindow(1, Horizontal, NewMetadata("a", 2))
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	updated := NewMetadata("renamed", 2)
	updated.Halted = true
	if err := tree.UpdateAttrs(id, updated); err != nil {
		t.Fatalf("UpdateAttrs: %v", err)
	}
	if !tree.Find(id).Attrs.Equal(updated) {
		t.Fatalf("attrs = %+v, want %+v", tree.Find(id).Attrs, updated)
	}

	if err := tree.UpdateAttrs(1, updated); !errors.Is(err, ErrNotAWindow) {
		t.Fatalf("split target: err = %v, want ErrNotAWindow", err)
	}
	if err := tree.UpdateAttrs(77, updated); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("missing target: err = %v, want ErrWindowNotFound", err)
	}
}

func TestValidate_ReportsViolations(t *testing.T) {
	split := NewSplit(1, 0, Horizontal)
	split.AddChild(NewWindow(2, 1, rootMeta()))
	tree := FromRoot(split, 2)

	if err := tree.Validate(); err == nil {
		t.Fatal("expected degenerate split to fail validation")
	}

	dup := NewSplit(1, 0, Vertical)
	dup.AddChild(NewWindow(2, 1, rootMeta()))
	dup.AddChild(NewWindow(2, 1, rootMeta()))
	if err := FromRoot(dup, 2).Validate(); err == nil {
		t.Fatal("expected duplicate ids to fail validation")
	}

	stale := NewSplit(1, 0, Vertical)
	stale.AddChild(NewWindow(2, 1, rootMeta()))
	stale.AddChild(NewWindow(3, 1, rootMeta()))
	if err := FromRoot(stale, 2).Validate(); err == nil {
		t.Fatal("expected stale anchor to fail validation")
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"horizontal", Horizontal, false},
		{"H", Horizontal, false},
		{" vertical ", Vertical, false},
		{"v", Vertical, false},
		{"diagonal", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDirection(%q) err = %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseDirection(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
