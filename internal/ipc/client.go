package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/runtimepath"
	"github.com/1broseidon/tiletree/internal/session"
)

// Client handles IPC communication with the daemon. It implements
// session.Service, so callers can swap it for an in-process store.
type Client struct {
	socketPath string
	timeout    time.Duration
}

var _ session.Service = (*Client)(nil)

// NewClient creates a new IPC client for the default socket
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, &RemoteError{Code: resp.Code, Message: resp.Error}
	}

	return &resp, nil
}

// call sends command with payload and decodes the response data into out
// when out is non-nil.
func (c *Client) call(command CommandType, payload, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ping checks if the daemon is running
func (c *Client) Ping() bool {
	_, err := c.GetStatus()
	return err == nil
}

func (c *Client) Create(name string, meta *layout.Metadata) (session.Info, error) {
	var info session.Info
	err := c.call(CommandNewTree, NewTreePayload{Name: name, Metadata: meta}, &info)
	return info, err
}

func (c *Client) Free(name string) error {
	return c.call(CommandFreeTree, TreePayload{Name: name}, nil)
}

func (c *Client) AddWindow(name string, parentID uint64, direction layout.Direction, meta *layout.Metadata) (uint64, error) {
	return c.AddWindowDirection(name, parentID, direction.String(), meta)
}

// AddWindowDirection is AddWindow with the direction as text. An empty
// direction lets the daemon apply its default_direction.
func (c *Client) AddWindowDirection(name string, parentID uint64, direction string, meta *layout.Metadata) (uint64, error) {
	var data AddWindowData
	err := c.call(CommandAddWindow, AddWindowPayload{
		Tree:      name,
		ParentID:  parentID,
		Direction: direction,
		Metadata:  meta,
	}, &data)
	return data.WindowID, err
}

func (c *Client) RemoveWindow(name string, windowID uint64) error {
	return c.call(CommandRemoveWindow, RemoveWindowPayload{Tree: name, WindowID: windowID}, nil)
}

func (c *Client) UpdateAttrs(name string, windowID uint64, meta *layout.Metadata) error {
	return c.call(CommandUpdateAttrs, UpdateAttrsPayload{Tree: name, WindowID: windowID, Metadata: meta}, nil)
}

func (c *Client) Get(name string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.call(CommandGetTree, TreePayload{Name: name}, &snap)
	return snap, err
}

func (c *Client) List() ([]session.Info, error) {
	var data TreesData
	if err := c.call(CommandListTrees, nil, &data); err != nil {
		return nil, err
	}
	return data.Trees, nil
}
