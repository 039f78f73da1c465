package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/session"
)

func startServer(t *testing.T, cfg *config.Config) (*Server, *Client, chan struct{}) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "tt.sock")
	store := session.NewStore(session.WithClock(func() time.Time { return time.UnixMilli(1000) }))
	reloadChan := make(chan struct{}, 1)

	srv, err := NewServer(socket, cfg, store, reloadChan)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClientWithSocket(socket), reloadChan
}

func TestRoundTrip_TreeOperations(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultDirection = "vertical"
	_, c, _ := startServer(t, cfg)

	info, err := c.Create("main", layout.NewMetadata("term", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Name != "main" || info.RootID != 1000 || info.Windows != 1 {
		t.Fatalf("info = %+v", info)
	}

	// Empty direction falls back to the daemon's default_direction.
	id, err := c.AddWindowDirection("main", 1000, "", layout.NewMetadata("editor", 2))
	if err != nil {
		t.Fatalf("AddWindowDirection: %v", err)
	}
	if id != 1002 {
		t.Fatalf("window id = %d, want 1002", id)
	}

	meta := layout.NewMetadata("editor", 2)
	meta.Width = layout.Dim(800)
	if err := c.UpdateAttrs("main", id, meta); err != nil {
		t.Fatalf("UpdateAttrs: %v", err)
	}

	snap, err := c.Get("main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Root.Kind != "split" || snap.Root.Direction != "vertical" || len(snap.Root.Children) != 2 {
		t.Fatalf("root = %+v", snap.Root)
	}
	if got := snap.Root.Children[1].Metadata; got == nil || !got.Equal(meta) {
		t.Fatalf("updated metadata = %+v", got)
	}

	if err := c.RemoveWindow("main", id); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	trees, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(trees) != 1 || trees[0].Windows != 1 {
		t.Fatalf("trees = %+v", trees)
	}

	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || status.Trees != 1 || status.Windows != 1 {
		t.Fatalf("status = %+v", status)
	}

	if err := c.Free("main"); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestRoundTrip_ErrorsKeepTheirIdentity(t *testing.T) {
	_, c, _ := startServer(t, config.DefaultConfig())
	if _, err := c.Create("t", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"missing tree", func() error { return c.Free("nope") }, session.ErrTreeNotFound},
		{"duplicate", func() error { _, err := c.Create("t", nil); return err }, session.ErrTreeExists},
		{"missing parent", func() error {
			_, err := c.AddWindow("t", 42, layout.Horizontal, layout.NewMetadata("x", 0))
			return err
		}, layout.ErrParentNotFound},
		{"bad direction", func() error {
			_, err := c.AddWindowDirection("t", 1000, "diagonal", layout.NewMetadata("x", 0))
			return err
		}, layout.ErrInvalidDirection},
		{"root removal", func() error { return c.RemoveWindow("t", 1000) }, layout.ErrRootRemovalForbidden},
		{"missing window", func() error { return c.UpdateAttrs("t", 7, layout.NewMetadata("x", 0)) }, layout.ErrWindowNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var remote *RemoteError
			if !errors.As(err, &remote) || !strings.HasPrefix(err.Error(), "daemon error: ") {
				t.Fatalf("expected a RemoteError, got %T %v", err, err)
			}
		})
	}
}

func TestReload_AppliesNewLimits(t *testing.T) {
	srv, c, reloadChan := startServer(t, config.DefaultConfig())

	next := config.DefaultConfig()
	next.Limits.MaxTrees = 1
	srv.SetConfigLoader(func() (*config.Config, error) { return next, nil })

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case <-reloadChan:
	default:
		t.Fatal("expected reload notification")
	}
	if srv.GetConfig() != next {
		t.Fatal("server config was not swapped")
	}

	if _, err := c.Create("a", nil); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if _, err := c.Create("b", nil); !errors.Is(err, session.ErrLimitReached) {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestReload_LoaderErrorIsReported(t *testing.T) {
	srv, c, _ := startServer(t, config.DefaultConfig())
	srv.SetConfigLoader(func() (*config.Config, error) { return nil, errors.New("bad yaml") })

	err := c.Reload()
	if err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	srv, _, _ := startServer(t, config.DefaultConfig())

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(`{"command":"SHUFFLE"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ERROR" || !strings.Contains(resp.Error, "SHUFFLE") {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClient_NoDaemon(t *testing.T) {
	c := NewClientWithSocket(filepath.Join(t.TempDir(), "missing.sock"))
	if c.Ping() {
		t.Fatal("expected Ping to fail without a daemon")
	}
	if _, err := c.List(); err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}
