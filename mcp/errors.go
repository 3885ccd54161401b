package mcp

import (
	"errors"
	"fmt"
)

// MCP JSON-RPC Error Codes
// These are standard JSON-RPC 2.0 error codes used by the MCP protocol.
// See: https://www.jsonrpc.org/specification#error_object
const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError = -32700

	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest = -32600

	// ErrorCodeMethodNotFound indicates the method does not exist or is not available.
	ErrorCodeMethodNotFound = -32601

	// ErrorCodeInvalidParams indicates invalid method parameters.
	// Tool handlers should prefer NewToolErrorInvalidParams.
	ErrorCodeInvalidParams = -32602

	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	// Tool handlers should prefer NewToolErrorInternal.
	ErrorCodeInternalError = -32603

	// ErrorCodeResourceNotFound is the MCP code for an unknown resource URI.
	ErrorCodeResourceNotFound = -32002
)

var (
	// ErrUnknownTool is returned by CallTool for a name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownParameter is returned by ToolRequest accessors for absent arguments.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// ToolError represents an MCP protocol error that can be returned from tool handlers.
// When returned from a ToolHandler, the error code, message and data are sent to the
// client in the JSON-RPC error response.
//
// Example usage in a tool handler:
//
//	func myHandler(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
//	    text, err := req.String("toon")
//	    if err != nil {
//	        return nil, mcp.NewToolErrorInvalidParams("toon parameter is required")
//	    }
//	    // ... process request
//	}
type ToolError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("MCP Error %d: %s", e.Code, e.Message)
}

// NewToolErrorInvalidParams creates an error for invalid or missing parameters.
// This returns ErrorCodeInvalidParams (-32602).
func NewToolErrorInvalidParams(message string) error {
	return &ToolError{
		Code:    ErrorCodeInvalidParams,
		Message: message,
	}
}

// NewToolErrorInternal creates an error for internal server errors.
// This returns ErrorCodeInternalError (-32603).
func NewToolErrorInternal(message string) error {
	return &ToolError{
		Code:    ErrorCodeInternalError,
		Message: message,
	}
}

// NewToolError creates an MCP error with a specific code. The data parameter
// is serialized to JSON as the error's data member.
//
// Example:
//
//	return nil, mcp.NewToolError(mcp.ErrorCodeInvalidParams, "Parse error at line 2, column 5: boom", diagnostic)
func NewToolError(code int, message string, data interface{}) error {
	return &ToolError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
