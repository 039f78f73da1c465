package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/session"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	store        *session.Store
	loadConfig   func() (*config.Config, error)
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server bound to socketPath. The store receives
// the config's limits and root name.
func NewServer(socketPath string, cfg *config.Config, store *session.Store, reloadChan chan struct{}) (*Server, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("IPC socket path is empty")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	s := &Server{
		socketPath: socketPath,
		store:      store,
		loadConfig: config.Load,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}
	s.UpdateConfig(cfg)
	return s, nil
}

// SetConfigLoader replaces the loader used by RELOAD (config.Load by default).
func (s *Server) SetConfigLoader(load func() (*config.Config, error)) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.loadConfig = load
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}
	respData = append(respData, '\n')

	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandNewTree:
		return s.handleNewTree(req.Payload)
	case CommandFreeTree:
		return s.handleFreeTree(req.Payload)
	case CommandAddWindow:
		return s.handleAddWindow(req.Payload)
	case CommandRemoveWindow:
		return s.handleRemoveWindow(req.Payload)
	case CommandUpdateAttrs:
		return s.handleUpdateAttrs(req.Payload)
	case CommandGetTree:
		return s.handleGetTree(req.Payload)
	case CommandListTrees:
		return s.handleListTrees()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	s.cfgMu.RLock()
	load := s.loadConfig
	s.cfgMu.RUnlock()

	newCfg, err := load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.UpdateConfig(newCfg)

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	infos, err := s.store.List()
	if err != nil {
		return NewErrResponse(err)
	}
	windows := 0
	for _, info := range infos {
		windows += info.Windows
	}

	status := StatusData{
		Trees:         len(infos),
		Windows:       windows,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		SocketPath:    s.socketPath,
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleNewTree(payload json.RawMessage) *Response {
	var req NewTreePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid new-tree payload: %v", err))
		}
	}

	info, err := s.store.Create(req.Name, req.Metadata)
	if err != nil {
		return NewErrResponse(err)
	}
	log.Printf("IPC: Created tree '%s' (root %d)", info.Name, info.RootID)
	return okOrError(info)
}

func (s *Server) handleFreeTree(payload json.RawMessage) *Response {
	var req TreePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid free-tree payload: %v", err))
	}
	if err := s.store.Free(req.Name); err != nil {
		return NewErrResponse(err)
	}
	log.Printf("IPC: Freed tree '%s'", req.Name)
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleAddWindow(payload json.RawMessage) *Response {
	var req AddWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid add-window payload: %v", err))
	}

	var direction layout.Direction
	if req.Direction == "" {
		s.cfgMu.RLock()
		direction = s.cfg.GetDefaultDirection()
		s.cfgMu.RUnlock()
	} else {
		d, err := layout.ParseDirection(req.Direction)
		if err != nil {
			return NewErrResponse(err)
		}
		direction = d
	}

	id, err := s.store.AddWindow(req.Tree, req.ParentID, direction, req.Metadata)
	if err != nil {
		return NewErrResponse(err)
	}
	return okOrError(AddWindowData{WindowID: id})
}

func (s *Server) handleRemoveWindow(payload json.RawMessage) *Response {
	var req RemoveWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid remove-window payload: %v", err))
	}
	if err := s.store.RemoveWindow(req.Tree, req.WindowID); err != nil {
		return NewErrResponse(err)
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleUpdateAttrs(payload json.RawMessage) *Response {
	var req UpdateAttrsPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid update-attrs payload: %v", err))
	}
	if err := s.store.UpdateAttrs(req.Tree, req.WindowID, req.Metadata); err != nil {
		return NewErrResponse(err)
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetTree(payload json.RawMessage) *Response {
	var req TreePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid get-tree payload: %v", err))
	}
	snap, err := s.store.Get(req.Name)
	if err != nil {
		return NewErrResponse(err)
	}
	return okOrError(snap)
}

func (s *Server) handleListTrees() *Response {
	infos, err := s.store.List()
	if err != nil {
		return NewErrResponse(err)
	}
	return okOrError(TreesData{Trees: infos})
}

func okOrError(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	respData, _ := resp.Marshal()
	respData = append(respData, '\n')
	conn.Write(respData)
}

// Stop gracefully stops the IPC server and waits for in-flight requests.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
	return err
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig swaps in cfg and pushes its limits and root name to the store.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	if s.store != nil {
		s.store.SetLimits(session.Limits{
			MaxTrees:          cfg.GetMaxTrees(),
			MaxWindowsPerTree: cfg.GetMaxWindowsPerTree(),
		})
		s.store.SetRootName(cfg.GetRootName())
	}
}
