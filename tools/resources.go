package tools

import (
	"context"

	"github.com/paularlott/toon-mcp/convert"
	"github.com/paularlott/toon-mcp/mcp"
	"github.com/paularlott/toon-mcp/toon"
)

// OptionsURI is the resource describing every accepted option.
const OptionsURI = "toon://options"

type optionDoc struct {
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	Values      []string `json:"values,omitempty"`
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Description string   `json:"description"`
}

type optionsDoc struct {
	Encode map[string]optionDoc `json:"encode"`
	Decode map[string]optionDoc `json:"decode"`
}

// OptionsDocument returns the defaults and accepted values of every option.
func OptionsDocument() any {
	minIndent, maxIndent := 0, toon.MaxIndent
	enc := toon.DefaultEncodeOptions()
	dec := toon.DefaultDecodeOptions()

	return optionsDoc{
		Encode: map[string]optionDoc{
			"delimiter": {
				Type:        "string",
				Default:     convert.DelimiterName(enc.Delimiter),
				Values:      []string{convert.DelimiterComma, convert.DelimiterTab, convert.DelimiterPipe},
				Description: "Separator for inline arrays and table rows; unknown values fall back to comma",
			},
			"indent": {
				Type:        "integer",
				Default:     enc.Indent,
				Min:         &minIndent,
				Max:         &maxIndent,
				Description: "Spaces per nesting level; out of range values are clamped. At 0 nested keys land on the parent level, so the output does not decode back to the input",
			},
			"fold_keys": {
				Type:        "boolean",
				Default:     enc.KeyFolding,
				Description: "Fold single-key object chains into dotted keys",
			},
			"flatten_depth": {
				Type:        "integer",
				Default:     nil,
				Description: "Maximum segments in a folded key; unset means unbounded",
			},
		},
		Decode: map[string]optionDoc{
			"strict": {
				Type:        "boolean",
				Default:     dec.Strict,
				Description: "Reject malformed indentation, lengths and escapes",
			},
			"coerce_types": {
				Type:        "boolean",
				Default:     dec.CoerceTypes,
				Description: "Parse bare null, booleans and numbers into typed values",
			},
			"expand_paths": {
				Type:        "boolean",
				Default:     dec.ExpandPaths,
				Description: "Expand unquoted dotted keys into nested objects",
			},
			"output_format": {
				Type:        "string",
				Default:     string(convert.OutputJSON),
				Values:      []string{string(convert.OutputJSON), string(convert.OutputJSONPretty)},
				Description: "Rendering of decoded values",
			},
		},
	}
}

func registerOptionsResource(s *mcp.Server) {
	s.RegisterResource(OptionsURI, "TOON options", "Defaults and accepted values for encode and decode options", "application/json",
		func(ctx context.Context, uri string) (*mcp.ResourceResponse, error) {
			text, err := convert.FormatJSON(OptionsDocument(), convert.OutputJSONPretty)
			if err != nil {
				return nil, err
			}
			return mcp.NewResourceResponseText(uri, text, "application/json"), nil
		})
}
