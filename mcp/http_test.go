package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// helper to perform JSON-RPC request against handler
func doRPC(t *testing.T, h http.HandlerFunc, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	resp := rr.Result()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestHTTPToolCall(t *testing.T) {
	s := echoServer()
	handler := http.HandlerFunc(s.HandleRequest)

	resp, data := doRPC(t, handler, MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call",
		Params: ToolCallParams{Name: "echo", Arguments: map[string]any{"msg": "hello"}}}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if got := gjson.GetBytes(data, "id").Int(); got != 7 {
		t.Fatalf("id = %d", got)
	}
	if got := gjson.GetBytes(data, "result.content.0.text").String(); got != "hello" {
		t.Fatalf("text = %q", got)
	}
}

func TestHTTPNotificationAccepted(t *testing.T) {
	s := echoServer()
	resp, data := doRPC(t, s.HandleRequest, MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty body, got %q", data)
	}
}

func TestHTTPParseError(t *testing.T) {
	s := echoServer()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.HandleRequest(rr, req)

	body := rr.Body.Bytes()
	if code := gjson.GetBytes(body, "error.code").Int(); code != ErrorCodeParseError {
		t.Fatalf("code = %d", code)
	}
	if id := gjson.GetBytes(body, "id"); id.Type != gjson.Null {
		t.Fatalf("expected null id, got %s", id.Raw)
	}
}

func TestHTTPMethodAndContentType(t *testing.T) {
	s := echoServer()

	rr := httptest.NewRecorder()
	s.HandleRequest(rr, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "POST, OPTIONS" {
		t.Fatalf("Allow = %q", allow)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	s.HandleRequest(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text/plain status = %d", rr.Code)
	}

	resp, _ := doRPC(t, s.HandleRequest, MCPRequest{JSONRPC: "2.0", ID: 1, Method: "ping"},
		map[string]string{"Content-Type": "application/json; charset=utf-8"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("charset status = %d", resp.StatusCode)
	}
}

func TestHTTPPreflight(t *testing.T) {
	s := echoServer()
	rr := httptest.NewRecorder()
	s.HandleRequest(rr, httptest.NewRequest(http.MethodOptions, "/mcp", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id") {
		t.Fatal("expected Mcp-Session-Id in allowed headers")
	}
}

func TestHTTPLargeIntegersSurvive(t *testing.T) {
	s := NewServer("test", "0.1.0")
	s.RegisterTool(NewTool("raw", "raw", Any("value", "any value", Required())),
		func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
			v, _ := req.Raw("value")
			return NewToolResponseJSON(v), nil
		})

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"raw","arguments":{"value":9007199254740993}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.HandleRequest(rr, req)

	if got := gjson.GetBytes(rr.Body.Bytes(), "result.content.0.text").String(); got != "9007199254740993" {
		t.Fatalf("text = %q", got)
	}
}
