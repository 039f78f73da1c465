package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/tiletree/internal/api"
	"github.com/1broseidon/tiletree/internal/layout"
	"github.com/1broseidon/tiletree/internal/session"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandNewTree      CommandType = "NEW_TREE"
	CommandFreeTree     CommandType = "FREE_TREE"
	CommandAddWindow    CommandType = "ADD_WINDOW"
	CommandRemoveWindow CommandType = "REMOVE_WINDOW"
	CommandUpdateAttrs  CommandType = "UPDATE_ATTRS"
	CommandGetTree      CommandType = "GET_TREE"
	CommandListTrees    CommandType = "LIST_TREES"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Trees         int    `json:"trees"`
	Windows       int    `json:"windows"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	SocketPath    string `json:"socket_path"`
}

type NewTreePayload struct {
	Name     string           `json:"name,omitempty"`
	Metadata *layout.Metadata `json:"metadata,omitempty"`
}

type TreePayload struct {
	Name string `json:"name"`
}

type AddWindowPayload struct {
	Tree      string           `json:"tree"`
	ParentID  uint64           `json:"parent_id"`
	Direction string           `json:"direction,omitempty"` // empty = daemon default_direction
	Metadata  *layout.Metadata `json:"metadata"`
}

type AddWindowData struct {
	WindowID uint64 `json:"window_id"`
}

type RemoveWindowPayload struct {
	Tree     string `json:"tree"`
	WindowID uint64 `json:"window_id"`
}

type UpdateAttrsPayload struct {
	Tree     string           `json:"tree"`
	WindowID uint64           `json:"window_id"`
	Metadata *layout.Metadata `json:"metadata"`
}

type TreesData struct {
	Trees []session.Info `json:"trees"`
}

// errorCodes maps sentinel errors to stable wire codes so clients can match
// daemon failures with errors.Is.
var errorCodes = []struct {
	code string
	err  error
}{
	{"TREE_NOT_FOUND", session.ErrTreeNotFound},
	{"TREE_EXISTS", session.ErrTreeExists},
	{"LIMIT_REACHED", session.ErrLimitReached},
	{"INVALID_NAME", session.ErrInvalidName},
	{"INVALID_DIRECTION", layout.ErrInvalidDirection},
	{"RECONSTRUCTION_FAILURE", api.ErrReconstructionFailure},
	{"PARENT_NOT_FOUND", layout.ErrParentNotFound},
	{"SPLIT_DIRECTION_REQUIRED", layout.ErrSplitDirectionRequired},
	{"ROOT_REMOVAL_FORBIDDEN", layout.ErrRootRemovalForbidden},
	{"WINDOW_NOT_FOUND", layout.ErrWindowNotFound},
	{"NOT_A_WINDOW", layout.ErrNotAWindow},
	{"NULL_METADATA", api.ErrNullMetadata},
	{"NULL_TREE", api.ErrNullTree},
	{"NULL_ARGUMENT", api.ErrNullArgument},
}

// ErrorCode returns the wire code for err, or "" when it has none.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}

// RemoteError is a failure reported by the daemon.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon error: " + e.Message
}

// Is reports whether the daemon's error code stands for target.
func (e *RemoteError) Is(target error) bool {
	for _, ec := range errorCodes {
		if ec.code == e.Code && errors.Is(ec.err, target) {
			return true
		}
	}
	return false
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// NewErrResponse creates an error response carrying err's wire code.
func NewErrResponse(err error) *Response {
	resp := NewErrorResponse(err.Error())
	resp.Code = ErrorCode(err)
	return resp
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
