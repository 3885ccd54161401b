// Package mcp implements a Model Context Protocol server: tool and resource
// registration, JSON-RPC dispatch, and the HTTP and stdio transports.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MCPProtocolVersionLatest = "2025-06-18"
	MCPProtocolVersionMin    = "2024-11-05"
)

var supportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	"2025-06-18",
}

type registeredTool struct {
	Name         string
	Description  string
	Schema       map[string]interface{}
	OutputSchema map[string]interface{}
	Handler      ToolHandler
	validator    *argumentValidator
}

type ResourceHandler func(ctx context.Context, uri string) (*ResourceResponse, error)

type registeredResource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Handler     ResourceHandler
}

// Server represents an MCP server instance
type Server struct {
	name         string
	version      string
	instructions string
	logger       *zap.SugaredLogger
	middleware   []ToolMiddleware
	tools        map[string]*registeredTool
	resources    map[string]*registeredResource
	mu           sync.RWMutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) {
		s.instructions = instructions
	}
}

// WithToolMiddleware wraps every tool registered afterwards. The first
// middleware given is the outermost.
func WithToolMiddleware(mw ...ToolMiddleware) ServerOption {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// NewServer creates a new MCP server instance
func NewServer(name, version string, opts ...ServerOption) *Server {
	s := &Server{
		name:      name,
		version:   version,
		logger:    zap.NewNop().Sugar(),
		tools:     make(map[string]*registeredTool),
		resources: make(map[string]*registeredResource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the server name reported during initialize.
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version reported during initialize.
func (s *Server) Version() string {
	return s.version
}

// RegisterTool registers a new tool with the server. Registering a name twice
// replaces the earlier tool.
func (s *Server) RegisterTool(tool *ToolBuilder, handler ToolHandler) {
	schema := tool.BuildSchema()
	validator, err := newArgumentValidator(schema)
	if err != nil {
		s.logger.Errorw("tool schema rejected, arguments will not be validated", "tool", tool.name, "error", err)
	}

	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](tool.name, handler)
	}

	s.mu.Lock()
	s.tools[tool.name] = &registeredTool{
		Name:         tool.name,
		Description:  tool.Description(),
		Schema:       schema,
		OutputSchema: tool.BuildOutputSchema(),
		Handler:      handler,
		validator:    validator,
	}
	s.mu.Unlock()
}

func (s *Server) RegisterResource(uri, name, description, mimeType string, handler ResourceHandler) {
	s.mu.Lock()
	s.resources[uri] = &registeredResource{
		URI:         uri,
		Name:        name,
		Description: description,
		MimeType:    mimeType,
		Handler:     handler,
	}
	s.mu.Unlock()
}

// Handle dispatches a single JSON-RPC message. It returns nil for
// notifications, which never get a response.
func (s *Server) Handle(ctx context.Context, req *MCPRequest) *MCPResponse {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, ErrorCodeInvalidRequest, "Invalid Request", map[string]interface{}{
			"details": "JSONRPC field must be '2.0'",
		})
	}
	if req.Method == "" {
		return errorResponse(req.ID, ErrorCodeInvalidRequest, "Invalid Request", map[string]interface{}{
			"details": "method is required",
		})
	}

	if req.IsNotification() {
		s.logger.Debugw("mcp notification", "method", req.Method)
		return nil
	}

	s.logger.Debugw("mcp request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, map[string]interface{}{})
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": s.ListTools()})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return resultResponse(req.ID, map[string]interface{}{"resources": s.ListResources()})
	case "resources/read":
		return s.handleResourcesRead(ctx, req)
	default:
		return errorResponse(req.ID, ErrorCodeMethodNotFound, "Method not found", map[string]interface{}{
			"method": req.Method,
		})
	}
}

func isSupportedProtocolVersion(version string) bool {
	for _, supported := range supportedProtocolVersions {
		if supported == version {
			return true
		}
	}
	return false
}

// negotiateProtocolVersion echoes a supported version and answers anything
// else with the latest one, leaving the client to decide whether to continue.
func negotiateProtocolVersion(requested string) string {
	if isSupportedProtocolVersion(requested) {
		return requested
	}
	return MCPProtocolVersionLatest
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	var params initializeParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
	}

	protocolVersion := negotiateProtocolVersion(params.ProtocolVersion)
	s.logger.Infow("client initialized",
		"client", params.ClientInfo.Name,
		"clientVersion", params.ClientInfo.Version,
		"requestedVersion", params.ProtocolVersion,
		"protocolVersion", protocolVersion,
	)

	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    s.buildCapabilities(protocolVersion),
		ServerInfo: serverInfo{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: s.instructions,
	})
}

func (s *Server) buildCapabilities(protocolVersion string) capabilities {
	switch protocolVersion {
	case "2024-11-05":
		return capabilities{
			Tools:     map[string]interface{}{},
			Resources: map[string]interface{}{},
		}
	default:
		return capabilities{
			Tools: map[string]interface{}{
				"listChanged": false,
			},
			Resources: map[string]interface{}{
				"subscribe":   false,
				"listChanged": false,
			},
		}
	}
}

// ListTools returns all registered tools sorted by name.
func (s *Server) ListTools() []MCPTool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]MCPTool, 0, len(s.tools))
	for _, tool := range s.tools {
		item := MCPTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Schema,
		}
		if tool.OutputSchema != nil {
			item.OutputSchema = tool.OutputSchema
		}
		tools = append(tools, item)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// ListResources returns all registered resources sorted by URI.
func (s *Server) ListResources() []MCPResource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := make([]MCPResource, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, MCPResource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MimeType:    r.MimeType,
		})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })
	return resources
}

// CallTool validates the arguments and runs a tool directly. Unknown names
// return ErrUnknownTool; schema violations return a ToolError.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (*ToolResponse, error) {
	s.mu.RLock()
	tool, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrUnknownTool
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tool.validator != nil {
		if err := tool.validator.validate(args); err != nil {
			return nil, err
		}
	}

	callID := newCallID()
	ctx = withCallID(ctx, callID)
	start := time.Now()

	resp, err := s.runHandler(ctx, name, callID, tool.Handler, args)

	log := s.logger.With("tool", name, "callID", callID, "duration", time.Since(start))
	if err != nil {
		log.Warnw("tool call failed", "error", err)
		return nil, err
	}
	if resp == nil {
		resp = &ToolResponse{}
	}
	log.Debugw("tool call completed")
	return resp, nil
}

// runHandler contains a panicking handler to its own call.
func (s *Server) runHandler(ctx context.Context, name, callID string, handler ToolHandler, args map[string]interface{}) (resp *ToolResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("tool handler panicked",
				"tool", name,
				"callID", callID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp, err = nil, NewToolErrorInternal(fmt.Sprintf("Tool %s panicked: %v", name, r))
		}
	}()
	return handler(ctx, NewToolRequest(name, args))
}

func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
	}

	response, err := s.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var toolErr *ToolError
		switch {
		case errors.As(err, &toolErr):
			return errorResponse(req.ID, toolErr.Code, toolErr.Message, toolErr.Data)
		case errors.Is(err, ErrUnknownTool):
			return errorResponse(req.ID, ErrorCodeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name), nil)
		default:
			return errorResponse(req.ID, ErrorCodeInternalError, fmt.Sprintf("Tool execution failed: %v", err), nil)
		}
	}

	content := response.Content
	if content == nil {
		content = []ToolContent{}
	}
	return resultResponse(req.ID, ToolResult{
		Content:           content,
		StructuredContent: response.StructuredContent,
	})
}

func (s *Server) handleResourcesRead(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params resourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
	}

	s.mu.RLock()
	resource, exists := s.resources[params.URI]
	s.mu.RUnlock()

	if !exists {
		return errorResponse(req.ID, ErrorCodeResourceNotFound, "Resource not found", map[string]interface{}{
			"uri": params.URI,
		})
	}

	response, err := resource.Handler(ctx, params.URI)
	if err != nil {
		s.logger.Warnw("resource read failed", "uri", params.URI, "error", err)
		return errorResponse(req.ID, ErrorCodeInternalError, fmt.Sprintf("Resource read failed: %v", err), nil)
	}
	return resultResponse(req.ID, response)
}

// decodeParams converts loosely typed params into dst, keeping numbers exact.
func decodeParams(params interface{}, dst interface{}) error {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(dst)
}

func resultResponse(id interface{}, result interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

type callIDKey struct{}

func newCallID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func withCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallIDFromContext returns the id assigned to the current tool call.
func CallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
