package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func echoServer(opts ...ServerOption) *Server {
	s := NewServer("test", "0.1.0", opts...)
	s.RegisterTool(
		NewTool("echo", "Echo a message",
			String("msg", "message", Required()),
			Integer("times", "repeat count"),
		),
		func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
			v, _ := req.String("msg")
			return NewToolResponseText(v), nil
		},
	)
	return s
}

// roundTrip pushes a response through JSON so results read like a client sees them.
func roundTrip(t *testing.T, resp *MCPResponse) MCPResponse {
	t.Helper()
	require.NotNil(t, resp)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out MCPResponse
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func initRequest(id int, version string) *MCPRequest {
	params := map[string]any{
		"capabilities": map[string]any{},
		"clientInfo":   map[string]any{"name": "t", "version": "1"},
	}
	if version != "" {
		params["protocolVersion"] = version
	}
	return &MCPRequest{JSONRPC: "2.0", ID: id, Method: "initialize", Params: params}
}

func TestInitializeVersionNegotiation(t *testing.T) {
	s := NewServer("test", "0.1.0", WithInstructions("use toon"))

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"default", "", MCPProtocolVersionLatest},
		{"oldest", "2024-11-05", "2024-11-05"},
		{"middle", "2025-03-26", "2025-03-26"},
		{"unsupported falls back to latest", "1900-01-01", MCPProtocolVersionLatest},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc := roundTrip(t, s.Handle(context.Background(), initRequest(i+1, tt.requested)))
			require.Nil(t, rpc.Error)

			res := rpc.Result.(map[string]any)
			assert.Equal(t, tt.want, res["protocolVersion"])
			assert.Equal(t, "use toon", res["instructions"])
			info := res["serverInfo"].(map[string]any)
			assert.Equal(t, "test", info["name"])
			assert.Equal(t, "0.1.0", info["version"])
		})
	}
}

func TestCapabilitiesByVersion(t *testing.T) {
	s := NewServer("test", "0.1.0")

	rpc := roundTrip(t, s.Handle(context.Background(), initRequest(1, "2024-11-05")))
	caps := rpc.Result.(map[string]any)["capabilities"].(map[string]any)
	assert.Empty(t, caps["tools"])

	rpc = roundTrip(t, s.Handle(context.Background(), initRequest(2, "2025-06-18")))
	caps = rpc.Result.(map[string]any)["capabilities"].(map[string]any)
	assert.Equal(t, false, caps["tools"].(map[string]any)["listChanged"])
	assert.Equal(t, false, caps["resources"].(map[string]any)["subscribe"])
}

func TestHandleEnvelopeErrors(t *testing.T) {
	s := NewServer("test", "0.1.0")
	ctx := context.Background()

	rpc := roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "1.0", ID: 1, Method: "ping"}))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInvalidRequest, rpc.Error.Code)

	rpc = roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2}))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInvalidRequest, rpc.Error.Code)

	rpc = roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "nope/nope"}))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeMethodNotFound, rpc.Error.Code)
	assert.EqualValues(t, 3, rpc.ID)
}

func TestPingAndNotifications(t *testing.T) {
	s := NewServer("test", "0.1.0")
	ctx := context.Background()

	rpc := roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: "abc", Method: "ping"}))
	assert.Nil(t, rpc.Error)
	assert.Equal(t, "abc", rpc.ID)
	assert.Equal(t, map[string]any{}, rpc.Result)

	assert.Nil(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}))
	assert.Nil(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", Method: "tools/list"}))
}

func TestToolsListAndCall(t *testing.T) {
	s := echoServer()
	s.RegisterTool(NewTool("alpha", "first"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return NewToolResponseText("a"), nil
	})
	ctx := context.Background()

	rpc := roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"}))
	require.Nil(t, rpc.Error)
	tools := rpc.Result.(map[string]any)["tools"].([]any)
	require.Len(t, tools, 2)
	assert.Equal(t, "alpha", tools[0].(map[string]any)["name"])
	echo := tools[1].(map[string]any)
	assert.Equal(t, "echo", echo["name"])
	schema := echo["inputSchema"].(map[string]any)
	assert.Equal(t, []any{"msg"}, schema["required"])
	assert.Equal(t, "integer", schema["properties"].(map[string]any)["times"].(map[string]any)["type"])

	rpc = roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "tools/call",
		Params: ToolCallParams{Name: "echo", Arguments: map[string]any{"msg": "hi"}}}))
	require.Nil(t, rpc.Error)
	content := rpc.Result.(map[string]any)["content"].([]any)
	assert.Equal(t, "hi", content[0].(map[string]any)["text"])
}

func TestToolsCallErrors(t *testing.T) {
	s := echoServer()
	s.RegisterTool(NewTool("typed", "typed failure"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return nil, NewToolError(ErrorCodeInvalidParams, "bad thing", map[string]any{"line": 2})
	})
	s.RegisterTool(NewTool("plain", "plain failure"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return nil, errors.New("boom")
	})
	ctx := context.Background()

	call := func(id int, name string, args map[string]any) MCPResponse {
		return roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: id, Method: "tools/call",
			Params: ToolCallParams{Name: name, Arguments: args}}))
	}

	rpc := call(1, "missing", nil)
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInvalidParams, rpc.Error.Code)
	assert.Equal(t, "Unknown tool: missing", rpc.Error.Message)

	rpc = call(2, "typed", nil)
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInvalidParams, rpc.Error.Code)
	assert.Equal(t, "bad thing", rpc.Error.Message)
	assert.EqualValues(t, 2, rpc.Error.Data.(map[string]any)["line"])

	rpc = call(3, "plain", nil)
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInternalError, rpc.Error.Code)
	assert.Equal(t, "Tool execution failed: boom", rpc.Error.Message)

	rpc = roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 4, Method: "tools/call", Params: map[string]any{}}))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInvalidParams, rpc.Error.Code)
}

func TestArgumentValidation(t *testing.T) {
	s := echoServer()
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{}},
		{"wrong type", map[string]any{"msg": 5}},
		{"non integer", map[string]any{"msg": "x", "times": 1.5}},
		{"unknown argument", map[string]any{"msg": "x", "extra": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(ctx, "echo", tt.args)
			var te *ToolError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, ErrorCodeInvalidParams, te.Code)
			assert.NotEmpty(t, te.Data.(map[string]interface{})["errors"])
		})
	}

	resp, err := s.CallTool(ctx, "echo", map[string]any{"msg": "ok", "times": 2})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content[0].Text)
}

func TestCallToolCancelledContext(t *testing.T) {
	called := false
	s := NewServer("test", "0.1.0")
	s.RegisterTool(NewTool("slow", "slow"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		called = true
		return NewToolResponseText("done"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CallTool(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestToolMiddlewareOrderAndCallID(t *testing.T) {
	var order []string
	var callID string

	mw := func(tag string) ToolMiddleware {
		return func(name string, next ToolHandler) ToolHandler {
			return func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
				order = append(order, tag+":"+name)
				return next(ctx, req)
			}
		}
	}

	s := NewServer("test", "0.1.0", WithToolMiddleware(mw("outer"), mw("inner")))
	s.RegisterTool(NewTool("t", "t"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		callID = CallIDFromContext(ctx)
		assert.Equal(t, "t", req.Name())
		return nil, nil
	})

	resp, err := s.CallTool(context.Background(), "t", nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, []string{"outer:t", "inner:t"}, order)
	assert.Len(t, callID, 36)
}

func TestToolCallLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewServer("test", "0.1.0", WithLogger(zap.New(core).Sugar()))
	s.RegisterTool(NewTool("fail", "fail"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return nil, errors.New("boom")
	})

	_, err := s.CallTool(context.Background(), "fail", nil)
	require.Error(t, err)

	warnings := logs.FilterMessage("tool call failed").All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, "fail", fields["tool"])
	assert.NotEmpty(t, fields["callID"])
}

func TestToolPanicIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := echoServer(WithLogger(zap.New(core).Sugar()))
	s.RegisterTool(NewTool("explode", "explode"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		panic("kaboom")
	})

	_, err := s.CallTool(context.Background(), "explode", nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, ErrorCodeInternalError, toolErr.Code)
	assert.Contains(t, toolErr.Message, "kaboom")

	entries := logs.FilterMessage("tool handler panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "explode", entries[0].ContextMap()["tool"])

	resp := roundTrip(t, s.Handle(context.Background(), &MCPRequest{
		JSONRPC: "2.0", ID: 7, Method: "tools/call",
		Params: map[string]any{"name": "explode"},
	}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorCodeInternalError, resp.Error.Code)

	out, err := s.CallTool(context.Background(), "echo", map[string]interface{}{"msg": "still here"})
	require.NoError(t, err)
	assert.Equal(t, "still here", out.Content[0].Text)
}

func TestResources(t *testing.T) {
	s := NewServer("test", "0.1.0")
	s.RegisterResource("test://b", "b", "second", "text/plain", func(ctx context.Context, uri string) (*ResourceResponse, error) {
		return nil, errors.New("unavailable")
	})
	s.RegisterResource("test://a", "a", "first", "application/json", func(ctx context.Context, uri string) (*ResourceResponse, error) {
		return NewResourceResponseText(uri, `{"ok":true}`, "application/json"), nil
	})
	ctx := context.Background()

	rpc := roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "resources/list"}))
	resources := rpc.Result.(map[string]any)["resources"].([]any)
	require.Len(t, resources, 2)
	assert.Equal(t, "test://a", resources[0].(map[string]any)["uri"])

	read := func(id int, uri string) MCPResponse {
		return roundTrip(t, s.Handle(ctx, &MCPRequest{JSONRPC: "2.0", ID: id, Method: "resources/read",
			Params: map[string]any{"uri": uri}}))
	}

	rpc = read(2, "test://a")
	require.Nil(t, rpc.Error)
	contents := rpc.Result.(map[string]any)["contents"].([]any)
	assert.Equal(t, `{"ok":true}`, contents[0].(map[string]any)["text"])

	rpc = read(3, "test://missing")
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeResourceNotFound, rpc.Error.Code)

	rpc = read(4, "test://b")
	require.NotNil(t, rpc.Error)
	assert.Equal(t, ErrorCodeInternalError, rpc.Error.Code)
}
