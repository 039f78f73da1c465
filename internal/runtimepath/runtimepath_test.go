package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got == "" {
		t.Fatal("Dir() returned empty path")
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/tiletree-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasSuffix(socket, "/tiletree.sock") {
		t.Fatalf("SocketPath() = %q, missing suffix", socket)
	}
}

func TestResolveSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := ResolveSocketPath("")
	if err != nil {
		t.Fatalf("ResolveSocketPath(\"\") error: %v", err)
	}
	if want := filepath.Join(td, "tiletree.sock"); got != want {
		t.Fatalf("ResolveSocketPath(\"\") = %q, want %q", got, want)
	}

	got, err = ResolveSocketPath("/var/run//custom.sock")
	if err != nil {
		t.Fatalf("ResolveSocketPath(override) error: %v", err)
	}
	if got != "/var/run/custom.sock" {
		t.Fatalf("ResolveSocketPath(override) = %q", got)
	}
}
