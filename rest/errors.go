package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/paularlott/toon-mcp/convert"
	"github.com/paularlott/toon-mcp/toon"
)

// handlerWithError lets route handlers return errors instead of writing
// error responses themselves.
type handlerWithError func(http.ResponseWriter, *http.Request) error

// apiError is the body of every failed request.
type apiError struct {
	Error   string        `json:"error"`
	Details *errorDetails `json:"details,omitempty"`
}

type errorDetails struct {
	Line       *int   `json:"line,omitempty"`
	Column     *int   `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// requestError is a malformed request body or a missing field.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// errorHandler writes the error returned by fn as an apiError. Server side
// failures are logged in full and reported with a generic message.
func errorHandler(logger *zap.SugaredLogger, fn handlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"path", r.URL.Path,
				"requestID", middleware.GetReqID(r.Context()),
				"error", err,
			)
			writeJSON(w, status, apiError{Error: http.StatusText(status)})
			return
		}

		logger.Debugw("request rejected", "path", r.URL.Path, "status", status, "error", err)
		writeJSON(w, status, toAPIError(err))
	}
}

func statusOf(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}

	switch convert.CodeOf(err) {
	case convert.ErrInvalidInput, convert.ErrDecodeFailed:
		return http.StatusBadRequest
	case convert.ErrEncodeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toAPIError(err error) apiError {
	var parseErr *toon.ParseError
	var lengthErr *toon.LengthMismatchError

	switch {
	case errors.As(err, &parseErr):
		diag := convert.Diagnose(err)
		return apiError{
			Error: diag.Message,
			Details: &errorDetails{
				Line:       diag.Line,
				Column:     diag.Column,
				Suggestion: diag.Suggestion,
			},
		}
	case errors.As(err, &lengthErr):
		return apiError{
			Error: fmt.Sprintf("Array length mismatch: expected %d, found %d", lengthErr.Expected, lengthErr.Found),
		}
	case convert.CodeOf(err) == convert.ErrInvalidInput:
		return apiError{Error: fmt.Sprintf("Invalid JSON: %v", convert.CauseOf(err))}
	default:
		return apiError{Error: err.Error()}
	}
}
