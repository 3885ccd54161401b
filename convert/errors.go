package convert

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a conversion failure.
type ErrorCode string

const (
	ErrInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrEncodeFailed        ErrorCode = "ENCODE_FAILED"
	ErrDecodeFailed        ErrorCode = "DECODE_FAILED"
	ErrSerializationFailed ErrorCode = "SERIALIZATION_FAILED"
)

// Error is a classified conversion failure wrapping the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap creates an Error of the given class around cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInput reports a payload string that is not valid JSON.
func InvalidInput(cause error) *Error {
	return Wrap(ErrInvalidInput, "invalid JSON", cause)
}

// EncodeFailed reports a codec failure while producing TOON.
func EncodeFailed(cause error) *Error {
	return Wrap(ErrEncodeFailed, "encoding failed", cause)
}

// DecodeFailed reports a codec failure while parsing TOON.
func DecodeFailed(cause error) *Error {
	return Wrap(ErrDecodeFailed, "decoding failed", cause)
}

// SerializationFailed reports a value that could not be rendered as JSON.
func SerializationFailed(cause error) *Error {
	return Wrap(ErrSerializationFailed, "serialization failed", cause)
}

// CodeOf returns the class of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// CauseOf returns the wrapped cause of a classified error, or err itself.
func CauseOf(err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Cause != nil {
		return ce.Cause
	}
	return err
}
