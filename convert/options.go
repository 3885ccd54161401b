// Package convert holds the conversion core shared by the MCP tools, the REST
// API and the CLI: option resolution, JSON input handling, diagnostics, token
// estimation and size statistics.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paularlott/toon-mcp/toon"
)

// Delimiter names accepted from callers.
const (
	DelimiterComma = "comma"
	DelimiterTab   = "tab"
	DelimiterPipe  = "pipe"
)

// OutputFormat selects how decoded values are rendered as JSON.
type OutputFormat string

const (
	OutputJSON       OutputFormat = "json"
	OutputJSONPretty OutputFormat = "json_pretty"
)

// EncodeOptionsInput is the sparse encode configuration received from a
// caller. Nil fields take their defaults.
type EncodeOptionsInput struct {
	Delimiter    *string `json:"delimiter,omitempty"`
	Indent       *int    `json:"indent,omitempty"`
	FoldKeys     *bool   `json:"fold_keys,omitempty"`
	FlattenDepth *int    `json:"flatten_depth,omitempty"`
}

// UnmarshalJSON accepts any JSON number for the integer fields and saturates
// it to the int range, so an oversized indent clamps like any other
// out-of-range value instead of failing the request.
func (in *EncodeOptionsInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Delimiter    *string      `json:"delimiter"`
		Indent       *json.Number `json:"indent"`
		FoldKeys     *bool        `json:"fold_keys"`
		FlattenDepth *json.Number `json:"flatten_depth"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	indent, err := saturatingInt("indent", raw.Indent)
	if err != nil {
		return err
	}
	depth, err := saturatingInt("flatten_depth", raw.FlattenDepth)
	if err != nil {
		return err
	}
	*in = EncodeOptionsInput{
		Delimiter:    raw.Delimiter,
		Indent:       indent,
		FoldKeys:     raw.FoldKeys,
		FlattenDepth: depth,
	}
	return nil
}

func saturatingInt(field string, n *json.Number) (*int, error) {
	if n == nil {
		return nil, nil
	}
	if i, err := n.Int64(); err == nil {
		v := int(i)
		return &v, nil
	}
	f, err := n.Float64()
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	var v int
	switch {
	case f >= math.MaxInt:
		v = math.MaxInt
	case f <= math.MinInt:
		v = math.MinInt
	default:
		v = int(f)
	}
	return &v, nil
}

// DecodeOptionsInput is the sparse decode configuration received from a
// caller. Nil fields take their defaults.
type DecodeOptionsInput struct {
	Strict      *bool `json:"strict,omitempty"`
	CoerceTypes *bool `json:"coerce_types,omitempty"`
	ExpandPaths *bool `json:"expand_paths,omitempty"`
}

// ResolveEncodeOptions fills defaults and clamps out-of-range values. It never
// fails: an unknown delimiter becomes a comma and indent saturates to [0,8].
func ResolveEncodeOptions(in EncodeOptionsInput) *toon.EncodeOptions {
	opts := toon.DefaultEncodeOptions()

	if in.Delimiter != nil {
		opts.Delimiter = ParseDelimiter(*in.Delimiter)
	}
	if in.Indent != nil {
		opts.Indent = clamp(*in.Indent, 0, toon.MaxIndent)
	}
	if in.FoldKeys != nil {
		opts.KeyFolding = *in.FoldKeys
	}
	if in.FlattenDepth != nil {
		// An explicit depth below 2 leaves nothing to fold; 0 means unbounded
		// to the codec, so it maps to 1.
		opts.FlattenDepth = max(*in.FlattenDepth, 1)
	}
	return opts
}

// ResolveDecodeOptions fills defaults for a decode configuration.
func ResolveDecodeOptions(in DecodeOptionsInput) *toon.DecodeOptions {
	opts := toon.DefaultDecodeOptions()

	if in.Strict != nil {
		opts.Strict = *in.Strict
	}
	if in.CoerceTypes != nil {
		opts.CoerceTypes = *in.CoerceTypes
	}
	if in.ExpandPaths != nil {
		opts.ExpandPaths = *in.ExpandPaths
	}
	return opts
}

// ParseDelimiter maps a delimiter name or literal to the codec delimiter.
// Anything unrecognised falls back to a comma.
func ParseDelimiter(name string) string {
	if name == toon.DelimiterTab {
		return toon.DelimiterTab
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DelimiterTab, `\t`:
		return toon.DelimiterTab
	case DelimiterPipe, "|":
		return toon.DelimiterPipe
	default:
		return toon.DelimiterComma
	}
}

// DelimiterName is the inverse of ParseDelimiter.
func DelimiterName(delimiter string) string {
	switch delimiter {
	case toon.DelimiterTab:
		return DelimiterTab
	case toon.DelimiterPipe:
		return DelimiterPipe
	default:
		return DelimiterComma
	}
}

// ParseOutputFormat returns the requested format, defaulting to compact JSON.
func ParseOutputFormat(s string) OutputFormat {
	if OutputFormat(strings.ToLower(strings.TrimSpace(s))) == OutputJSONPretty {
		return OutputJSONPretty
	}
	return OutputJSON
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
