// Package tools registers the TOON conversion tools on an MCP server.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/paularlott/toon-mcp/convert"
	"github.com/paularlott/toon-mcp/mcp"
	"github.com/paularlott/toon-mcp/toon"
)

// Tool names.
const (
	PingTool     = "toon_ping"
	EncodeTool   = "toon_encode"
	DecodeTool   = "toon_decode"
	ValidateTool = "toon_validate"
	StatsTool    = "toon_stats"
)

// Instructions is sent to clients during initialize.
const Instructions = "TOON format encoding/decoding server for LLM cost optimization"

const pong = "pong - toon-mcp server is running"

// Register adds every TOON tool and the options resource to s.
func Register(s *mcp.Server) {
	s.RegisterTool(
		mcp.NewTool(PingTool, "Ping the TOON MCP server to verify connectivity"),
		handlePing,
	)

	s.RegisterTool(
		mcp.NewTool(EncodeTool, "Convert JSON to TOON format for reduced token usage. Achieves 18-40% savings.",
			mcp.Any("json", "JSON to encode (object, array, or JSON string)", mcp.Required()),
			mcp.String("delimiter", `Delimiter: "comma" (default), "tab", or "pipe"`),
			mcp.Integer("indent", "Spaces for indentation (0-8, default: 2). 0 drops nesting and does not round-trip"),
			mcp.Boolean("fold_keys", "Fold single-key object chains into dotted keys"),
			mcp.Integer("flatten_depth", "Maximum number of segments in a folded key"),
		),
		handleEncode,
	)

	s.RegisterTool(
		mcp.NewTool(DecodeTool, "Convert TOON format back to JSON. Supports strict validation and type coercion.",
			mcp.String("toon", "TOON formatted string to decode", mcp.Required()),
			mcp.Boolean("strict", "Enable strict validation (default: true)"),
			mcp.Boolean("coerce_types", "Coerce bare values into numbers, booleans and null (default: true)"),
			mcp.Boolean("expand_paths", "Expand dotted keys into nested objects (default: false)"),
			mcp.String("output_format", `Output format: "json" (default) or "json_pretty"`),
		),
		handleDecode,
	)

	s.RegisterTool(
		mcp.NewTool(ValidateTool, "Validate TOON syntax without full decoding. Returns validity and error details.",
			mcp.String("toon", "TOON formatted string to validate", mcp.Required()),
			mcp.Boolean("strict", "Enable strict validation (default: true)"),
			mcp.Output(
				mcp.Boolean("valid", "Whether the document parsed", mcp.Required()),
				mcp.Object("error", "Details of the first problem found",
					mcp.String("message", "Description of the problem", mcp.Required()),
					mcp.Integer("line", "1-based line"),
					mcp.Integer("column", "1-based column"),
					mcp.String("suggestion", "How to fix it"),
				),
			),
		),
		handleValidate,
	)

	s.RegisterTool(
		mcp.NewTool(StatsTool, "Compare token and byte counts between JSON and TOON. Estimates cost savings.",
			mcp.Any("json", "JSON to analyze (object, array, or JSON string)", mcp.Required()),
			mcp.Object("encode_options", "Options applied to the TOON side",
				mcp.String("delimiter", `Delimiter: "comma" (default), "tab", or "pipe"`),
				mcp.Integer("indent", "Spaces for indentation (0-8, default: 2). 0 drops nesting and does not round-trip"),
				mcp.Boolean("fold_keys", "Fold single-key object chains into dotted keys"),
				mcp.Integer("flatten_depth", "Maximum number of segments in a folded key"),
			),
			mcp.Output(
				formatStatsOutput("json", "Size of the compact JSON form"),
				formatStatsOutput("toon", "Size of the TOON form"),
				mcp.Object("savings", "Relative savings of TOON over JSON", mcp.Required(),
					mcp.Number("bytes_percent", "Byte savings in percent", mcp.Required()),
					mcp.Number("tokens_percent", "Approximate token savings in percent", mcp.Required()),
				),
			),
		),
		handleStats,
	)

	registerOptionsResource(s)
}

func formatStatsOutput(name, description string) mcp.Parameter {
	return mcp.Object(name, description, mcp.Required(),
		mcp.Integer("bytes", "Size in bytes", mcp.Required()),
		mcp.Integer("tokens_approx", "Approximate token count", mcp.Required()),
	)
}

func handlePing(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	return mcp.NewToolResponseText(pong), nil
}

func handleEncode(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	payload, err := req.Raw("json")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("json parameter is required")
	}

	var opts convert.EncodeOptionsInput
	if err := bindEncodeOptions(req, &opts); err != nil {
		return nil, err
	}

	out, err := convert.Encode(payload, opts)
	if err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseText(out), nil
}

func handleDecode(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	text, err := req.String("toon")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("toon parameter is required")
	}

	opts := convert.DecodeOptionsInput{
		Strict:      optionalBool(req, "strict"),
		CoerceTypes: optionalBool(req, "coerce_types"),
		ExpandPaths: optionalBool(req, "expand_paths"),
	}

	value, err := convert.Decode(text, opts)
	if err != nil {
		return nil, toolError(err)
	}

	out, err := convert.FormatJSON(value, convert.ParseOutputFormat(req.StringOr("output_format", "")))
	if err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseText(out), nil
}

func handleValidate(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	text, err := req.String("toon")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("toon parameter is required")
	}
	return mcp.NewToolResponseJSONStructured(convert.Validate(text, optionalBool(req, "strict"))), nil
}

func handleStats(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	payload, err := req.Raw("json")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("json parameter is required")
	}

	var opts convert.EncodeOptionsInput
	if req.Has("encode_options") {
		if err := req.Bind("encode_options", &opts); err != nil {
			return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("Invalid encode_options: %v", err))
		}
	}

	stats, err := convert.ComputeStats(payload, opts)
	if err != nil {
		return nil, toolError(err)
	}
	return mcp.NewToolResponseJSONStructured(stats), nil
}

// bindEncodeOptions reads the encode options spread across the top level
// arguments.
func bindEncodeOptions(req *mcp.ToolRequest, opts *convert.EncodeOptionsInput) error {
	if req.Has("delimiter") {
		d := req.StringOr("delimiter", "")
		opts.Delimiter = &d
	}
	for name, dst := range map[string]**int{"indent": &opts.Indent, "flatten_depth": &opts.FlattenDepth} {
		if !req.Has(name) {
			continue
		}
		n, err := req.Int(name)
		if err != nil {
			return mcp.NewToolErrorInvalidParams(err.Error())
		}
		*dst = &n
	}
	opts.FoldKeys = optionalBool(req, "fold_keys")
	return nil
}

func optionalBool(req *mcp.ToolRequest, name string) *bool {
	b, err := req.Bool(name)
	if err != nil {
		return nil
	}
	return &b
}

// decodeErrorData is the error data attached to a failed decode.
type decodeErrorData struct {
	convert.Diagnostic
	Expected *int `json:"expected,omitempty"`
	Found    *int `json:"found,omitempty"`
}

// toolError maps a conversion failure to the protocol error the caller sees.
func toolError(err error) error {
	var parseErr *toon.ParseError
	var lengthErr *toon.LengthMismatchError

	switch convert.CodeOf(err) {
	case convert.ErrInvalidInput:
		return mcp.NewToolErrorInvalidParams(fmt.Sprintf("Invalid JSON: %v", convert.CauseOf(err)))
	case convert.ErrEncodeFailed:
		return mcp.NewToolErrorInternal(fmt.Sprintf("Encoding failed: %v", convert.CauseOf(err)))
	case convert.ErrSerializationFailed:
		return mcp.NewToolErrorInternal(fmt.Sprintf("Serialization failed: %v", convert.CauseOf(err)))
	}

	data := decodeErrorData{Diagnostic: convert.Diagnose(err)}
	switch {
	case errors.As(err, &parseErr):
		return mcp.NewToolError(mcp.ErrorCodeInvalidParams,
			fmt.Sprintf("Parse error at line %d, column %d: %s", parseErr.Line, parseErr.Column, parseErr.Message), data)
	case errors.As(err, &lengthErr):
		data.Expected, data.Found = &lengthErr.Expected, &lengthErr.Found
		return mcp.NewToolError(mcp.ErrorCodeInvalidParams,
			fmt.Sprintf("Array length mismatch: expected %d, found %d", lengthErr.Expected, lengthErr.Found), data)
	default:
		return mcp.NewToolError(mcp.ErrorCodeInternalError,
			fmt.Sprintf("Decoding failed: %v", convert.CauseOf(err)), data)
	}
}
