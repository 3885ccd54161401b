package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ToolHandler represents a function that handles tool calls
type ToolHandler func(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

// ToolMiddleware wraps the handler of the named tool.
type ToolMiddleware func(name string, next ToolHandler) ToolHandler

// ToolRequest provides typed access to tool arguments
type ToolRequest struct {
	name string
	args map[string]interface{}
}

// NewToolRequest creates a new ToolRequest with the given arguments
func NewToolRequest(name string, args map[string]interface{}) *ToolRequest {
	if args == nil {
		args = map[string]interface{}{}
	}
	return &ToolRequest{name: name, args: args}
}

// Name returns the name of the tool being called.
func (r *ToolRequest) Name() string {
	return r.name
}

// Has reports whether the argument was supplied, even as null.
func (r *ToolRequest) Has(name string) bool {
	_, ok := r.args[name]
	return ok
}

// Raw returns the argument exactly as decoded.
func (r *ToolRequest) Raw(name string) (interface{}, error) {
	val, ok := r.args[name]
	if !ok {
		return nil, ErrUnknownParameter
	}
	return val, nil
}

func (r *ToolRequest) String(name string) (string, error) {
	val, ok := r.args[name]
	if !ok {
		return "", ErrUnknownParameter
	}
	if str, ok := val.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("parameter '%s' is not a string", name)
}

func (r *ToolRequest) StringOr(name, defaultValue string) string {
	if val, err := r.String(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) Int(name string) (int, error) {
	val, ok := r.args[name]
	if !ok {
		return 0, ErrUnknownParameter
	}
	return toInt(name, val)
}

func (r *ToolRequest) IntOr(name string, defaultValue int) int {
	if val, err := r.Int(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) Bool(name string) (bool, error) {
	val, ok := r.args[name]
	if !ok {
		return false, ErrUnknownParameter
	}
	if b, ok := val.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("parameter '%s' is not a boolean", name)
}

func (r *ToolRequest) BoolOr(name string, defaultValue bool) bool {
	if val, err := r.Bool(name); err == nil {
		return val
	}
	return defaultValue
}

// Object returns a parameter as a map[string]interface{} (generic object)
func (r *ToolRequest) Object(name string) (map[string]interface{}, error) {
	val, ok := r.args[name]
	if !ok {
		return nil, ErrUnknownParameter
	}
	if obj, ok := val.(map[string]interface{}); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("parameter '%s' is not an object", name)
}

// Bind decodes the argument into dst through JSON, so struct tags apply.
func (r *ToolRequest) Bind(name string, dst interface{}) error {
	val, ok := r.args[name]
	if !ok {
		return ErrUnknownParameter
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("parameter '%s': %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parameter '%s': %w", name, err)
	}
	return nil
}

func toInt(name string, val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return saturateInt(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		// ParseFloat reports overflow as ErrRange and still returns ±Inf.
		if f, err := v.Float64(); err == nil || errors.Is(err, strconv.ErrRange) {
			return saturateInt(f), nil
		}
	}
	return 0, fmt.Errorf("parameter '%s' is not a number", name)
}

// saturateInt converts f to int, pinning values outside the int range to
// its bounds instead of wrapping.
func saturateInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}
