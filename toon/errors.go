package toon

import "fmt"

// ParseError reports malformed input at a 1-based line and column.
type ParseError struct {
	Line       int
	Column     int
	Message    string
	Suggestion string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// LengthMismatchError reports a declared array length or row width that
// differs from what the input actually holds.
type LengthMismatchError struct {
	Expected int
	Found    int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("array length mismatch: expected %d, found %d", e.Expected, e.Found)
}

func newParseError(ln *line, column int, message, suggestion string) *ParseError {
	return &ParseError{
		Line:       ln.num,
		Column:     column,
		Message:    message,
		Suggestion: suggestion,
	}
}
