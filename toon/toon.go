// Package toon implements the TOON (Token-Oriented Object Notation) format.
// TOON is a line-oriented, indentation-based text format that encodes the JSON data model
// with explicit structure and minimal quoting.
package toon

import "fmt"

// Delimiters accepted in array headers and rows.
const (
	DelimiterComma = ","
	DelimiterTab   = "\t"
	DelimiterPipe  = "|"
)

const (
	DefaultIndent = 2
	MaxIndent     = 8
)

// EncodeOptions configures TOON encoding behavior.
type EncodeOptions struct {
	Indent       int    // Number of spaces per indentation level
	Delimiter    string // Delimiter for arrays and tabular data
	KeyFolding   bool   // Fold single-key object chains into dotted keys
	FlattenDepth int    // Maximum segments in a folded key, zero for unbounded
}

// DecodeOptions configures TOON decoding behavior.
type DecodeOptions struct {
	Strict      bool // Reject malformed indentation, lengths and escapes
	CoerceTypes bool // Parse bare null, booleans and numbers into typed values
	ExpandPaths bool // Expand unquoted dotted keys into nested objects
}

// DefaultEncodeOptions returns the options used by Encode.
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Indent:    DefaultIndent,
		Delimiter: DelimiterComma,
	}
}

// DefaultDecodeOptions returns the options used by Decode.
func DefaultDecodeOptions() *DecodeOptions {
	return &DecodeOptions{
		Strict:      true,
		CoerceTypes: true,
	}
}

// Encode converts a Go value to TOON format.
func Encode(v interface{}) (string, error) {
	return EncodeWithOptions(v, nil)
}

// EncodeWithOptions converts a Go value to TOON format with custom options.
func EncodeWithOptions(v interface{}, opts *EncodeOptions) (string, error) {
	if opts == nil {
		opts = DefaultEncodeOptions()
	}
	o := *opts
	if o.Delimiter == "" {
		o.Delimiter = DelimiterComma
	}
	switch o.Delimiter {
	case DelimiterComma, DelimiterTab, DelimiterPipe:
	default:
		return "", fmt.Errorf("unsupported delimiter %q", o.Delimiter)
	}
	if o.Indent < 0 || o.Indent > MaxIndent {
		return "", fmt.Errorf("indent %d out of range [0,%d]", o.Indent, MaxIndent)
	}

	normalized, err := normalizeValue(v)
	if err != nil {
		return "", err
	}
	e := newEncoder(o)
	if err := e.encodeRoot(normalized); err != nil {
		return "", err
	}
	return e.String(), nil
}

// Decode parses TOON format and returns the decoded value.
func Decode(data string) (interface{}, error) {
	return DecodeWithOptions(data, nil)
}

// DecodeWithOptions parses TOON format with custom options.
func DecodeWithOptions(data string, opts *DecodeOptions) (interface{}, error) {
	if opts == nil {
		opts = DefaultDecodeOptions()
	}

	d, err := newDecoder(data, *opts)
	if err != nil {
		return nil, err
	}
	return d.decode()
}
