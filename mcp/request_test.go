package mcp

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToolRequestHelpers(t *testing.T) {
	req := NewToolRequest("tool", map[string]any{
		"s":   "x",
		"i":   5.0,
		"n":   json.Number("7"),
		"b":   true,
		"nil": nil,
		"obj": map[string]any{"k": "v", "indent": 4.0},
	})

	if req.Name() != "tool" {
		t.Fatal("name")
	}
	if v, _ := req.String("s"); v != "x" {
		t.Fatal("string")
	}
	if v := req.StringOr("sx", "d"); v != "d" {
		t.Fatal("string or")
	}
	if v, _ := req.Int("i"); v != 5 {
		t.Fatal("int")
	}
	if v, _ := req.Int("n"); v != 7 {
		t.Fatal("json number int")
	}
	if v := req.IntOr("ix", 7); v != 7 {
		t.Fatal("int or")
	}
	if v, _ := req.Bool("b"); !v {
		t.Fatal("bool")
	}
	if v := req.BoolOr("bx", true); !v {
		t.Fatal("bool or")
	}
	if v, _ := req.Object("obj"); v["k"].(string) != "v" {
		t.Fatal("obj")
	}
	if !req.Has("nil") || req.Has("missing") {
		t.Fatal("has")
	}
	if v, err := req.Raw("nil"); err != nil || v != nil {
		t.Fatal("raw null")
	}

	var bound struct {
		K      string `json:"k"`
		Indent *int   `json:"indent"`
	}
	if err := req.Bind("obj", &bound); err != nil {
		t.Fatal(err)
	}
	if bound.K != "v" || bound.Indent == nil || *bound.Indent != 4 {
		t.Fatalf("bind = %+v", bound)
	}
}

func TestIntSaturates(t *testing.T) {
	tests := []struct {
		val  any
		want int
	}{
		{1e19, math.MaxInt},
		{-1e19, math.MinInt},
		{json.Number("1e19"), math.MaxInt},
		{json.Number("10000000000000000000"), math.MaxInt},
		{json.Number("-1e400"), math.MinInt},
		{json.Number("1e400"), math.MaxInt},
		{3.9, 3},
	}
	for _, tt := range tests {
		req := NewToolRequest("tool", map[string]any{"n": tt.val})
		got, err := req.Int("n")
		if err != nil {
			t.Fatalf("Int(%v): %v", tt.val, err)
		}
		if got != tt.want {
			t.Errorf("Int(%v) = %d, want %d", tt.val, got, tt.want)
		}
	}
}

func TestToolRequestErrors(t *testing.T) {
	req := NewToolRequest("tool", map[string]any{"x": 1.0, "s": "str"})
	if _, err := req.String("missing"); err != ErrUnknownParameter {
		t.Fatal("expected ErrUnknownParameter")
	}
	if _, err := req.String("x"); err == nil {
		t.Fatal("expected type error for string")
	}
	if _, err := req.Int("s"); err == nil {
		t.Fatal("expected type error for int")
	}
	if _, err := req.Object("x"); err == nil {
		t.Fatal("expected not object error")
	}
	var dst struct{ A int }
	if err := req.Bind("s", &dst); err == nil {
		t.Fatal("expected bind error")
	}
	if err := req.Bind("missing", &dst); err != ErrUnknownParameter {
		t.Fatal("expected ErrUnknownParameter from bind")
	}
}

func TestNilArguments(t *testing.T) {
	req := NewToolRequest("tool", nil)
	if req.Has("anything") {
		t.Fatal("expected no arguments")
	}
}

func TestToolResponseHelpers(t *testing.T) {
	r := NewToolResponseText("hi")
	if len(r.Content) != 1 || r.Content[0].Type != "text" {
		t.Fatal("text")
	}

	r = NewToolResponseJSON(map[string]any{"a": 1})
	if r.Content[0].Text != `{"a":1}` {
		t.Fatalf("json = %q", r.Content[0].Text)
	}

	st := NewToolResponseStructured(map[string]any{"k": "v"})
	if st.StructuredContent == nil || st.Content != nil {
		t.Fatal("structured")
	}

	both := NewToolResponseJSONStructured(map[string]any{"valid": true})
	if len(both.Content) != 1 || both.Content[0].Text != `{"valid":true}` || both.StructuredContent == nil {
		t.Fatalf("json structured = %+v", both)
	}

	combined := NewToolResponseMulti(r, st)
	if len(combined.Content) != 1 || combined.StructuredContent == nil {
		t.Fatal("multi")
	}
}

func TestResourceResponseText(t *testing.T) {
	txt := NewResourceResponseText("toon://x", "hello", "text/plain")
	if len(txt.Contents) != 1 || txt.Contents[0].Text != "hello" || txt.Contents[0].MimeType != "text/plain" {
		t.Fatalf("unexpected text resource: %+v", txt)
	}
}

func TestToolErrorString(t *testing.T) {
	err := NewToolErrorInvalidParams("bad")
	if err.Error() != "MCP Error -32602: bad" {
		t.Fatalf("got %q", err.Error())
	}
	if NewToolErrorInternal("x").(*ToolError).Code != ErrorCodeInternalError {
		t.Fatal("internal code")
	}
}
