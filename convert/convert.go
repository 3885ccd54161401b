package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/paularlott/toon-mcp/toon"
)

// ParseInput resolves a payload that is either a structured value or a string
// holding serialized JSON. Strings that fail to parse are rejected with an
// ErrInvalidInput error before any codec work happens.
func ParseInput(payload any) (any, error) {
	s, ok := payload.(string)
	if !ok {
		return payload, nil
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, InvalidInput(err)
	}
	if dec.More() {
		return nil, InvalidInput(errTrailingData)
	}
	return v, nil
}

var errTrailingData = errors.New("trailing data after JSON value")

// Encode converts a payload to TOON using the resolved options.
func Encode(payload any, in EncodeOptionsInput) (string, error) {
	value, err := ParseInput(payload)
	if err != nil {
		return "", err
	}

	out, err := toon.EncodeWithOptions(value, ResolveEncodeOptions(in))
	if err != nil {
		return "", EncodeFailed(err)
	}
	return out, nil
}

// Decode parses TOON text into a structured value. Codec failures keep their
// original type in the chain so Diagnose can classify them.
func Decode(text string, in DecodeOptionsInput) (any, error) {
	v, err := toon.DecodeWithOptions(text, ResolveDecodeOptions(in))
	if err != nil {
		return nil, DecodeFailed(err)
	}
	return v, nil
}

// FormatJSON renders v as JSON without HTML escaping.
func FormatJSON(v any, format OutputFormat) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if format == OutputJSONPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", SerializationFailed(err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ValidationResult reports whether a TOON document parsed cleanly.
type ValidationResult struct {
	Valid bool        `json:"valid"`
	Error *Diagnostic `json:"error,omitempty"`
}

// Validate decodes text to check it and discards the value. Only strictness
// is configurable; everything else uses the decode defaults.
func Validate(text string, strict *bool) ValidationResult {
	if _, err := Decode(text, DecodeOptionsInput{Strict: strict}); err != nil {
		d := Diagnose(err)
		return ValidationResult{Error: &d}
	}
	return ValidationResult{Valid: true}
}
