package toon

import (
	"errors"
	"testing"
)

func TestParseErrorPositions(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		line       int
		column     int
		message    string
		suggestion bool
	}{
		{"unterminated string", `name: "abc`, 1, 7, "unterminated string", true},
		{"unterminated string on later line", "a: 1\nb: 2\nc: \"x", 3, 4, "unterminated string", true},
		{"misaligned indentation", "a:\n  b: 1\n   c: 2", 3, 4, "indentation of 3 spaces is not a multiple of 2", true},
		{"tab indentation", "a:\n\tb: 1", 2, 1, "tab character in indentation", true},
		{"missing colon", "a: 1\nfoo", 2, 4, `missing colon after key "foo"`, true},
		{"invalid header", "items[x]: 1", 1, 6, "invalid array header", true},
		{"invalid escape", `s: "a\qb"`, 1, 6, `invalid escape sequence \q`, true},
		{"trailing characters", `s: "a"b`, 1, 7, "unexpected characters after closing quote", true},
		{"list item outside array", "a: 1\n- b", 2, 1, "list item outside of an array", true},
		{"unexpected indentation", "a: 1\n  b: 2", 2, 3, "unexpected indentation", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if pe.Line != tt.line || pe.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", pe.Line, pe.Column, tt.line, tt.column)
			}
			if pe.Message != tt.message {
				t.Errorf("message = %q, want %q", pe.Message, tt.message)
			}
			if tt.suggestion && pe.Suggestion == "" {
				t.Error("expected a suggestion")
			}
		})
	}
}

func TestLengthMismatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		found    int
	}{
		{"inline too short", "arr[3]: 1,2", 3, 2},
		{"inline too long", "arr[2]: 1,2,3", 2, 3},
		{"table rows", "t[3]{a}:\n  1\n  2", 3, 2},
		{"table row width", "t[1]{a,b}:\n  1", 2, 1},
		{"list items", "l[1]:\n  - a\n  - b", 1, 2},
		{"declared items missing", "l[2]:", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			var lm *LengthMismatchError
			if !errors.As(err, &lm) {
				t.Fatalf("expected *LengthMismatchError, got %T: %v", err, err)
			}
			if lm.Expected != tt.expected || lm.Found != tt.found {
				t.Errorf("got expected=%d found=%d, want %d/%d", lm.Expected, lm.Found, tt.expected, tt.found)
			}
		})
	}
}

func TestErrorStrings(t *testing.T) {
	pe := &ParseError{Line: 2, Column: 5, Message: "boom"}
	if pe.Error() != "line 2, column 5: boom" {
		t.Errorf("ParseError.Error() = %q", pe.Error())
	}
	lm := &LengthMismatchError{Expected: 3, Found: 2}
	if lm.Error() != "array length mismatch: expected 3, found 2" {
		t.Errorf("LengthMismatchError.Error() = %q", lm.Error())
	}
}
