package convert

import (
	"errors"
	"fmt"

	"github.com/paularlott/toon-mcp/toon"
)

// Diagnostic is the normalized description of a decode failure. Line and
// Column are set together or not at all.
type Diagnostic struct {
	Message    string `json:"message"`
	Line       *int   `json:"line,omitempty"`
	Column     *int   `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Position returns the 1-based line and column, if known.
func (d Diagnostic) Position() (line, column int, ok bool) {
	if d.Line == nil || d.Column == nil {
		return 0, 0, false
	}
	return *d.Line, *d.Column, true
}

// Diagnose maps any codec failure onto a Diagnostic. Classified errors are
// unwrapped first; unknown failures keep only their message.
func Diagnose(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}

	var parseErr *toon.ParseError
	var lengthErr *toon.LengthMismatchError
	switch {
	case errors.As(err, &parseErr):
		line, column := parseErr.Line, parseErr.Column
		return Diagnostic{
			Message:    parseErr.Message,
			Line:       &line,
			Column:     &column,
			Suggestion: parseErr.Suggestion,
		}
	case errors.As(err, &lengthErr):
		return Diagnostic{
			Message:    fmt.Sprintf("length mismatch: expected %d, found %d", lengthErr.Expected, lengthErr.Found),
			Suggestion: fmt.Sprintf("expected %d items but found %d", lengthErr.Expected, lengthErr.Found),
		}
	default:
		return Diagnostic{Message: CauseOf(err).Error()}
	}
}
