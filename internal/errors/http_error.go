package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Wrap keeps err as the cause while only Message reaches the client.
func Wrap(code int, message string, err error) *HTTPError {
	return &HTTPError{Code: code, Message: message, Err: err}
}

// Helper for common errors
var (
	ErrUnauthorized       = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrBadRequest         = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
	ErrNotFound           = func(msg string) *HTTPError { return NewHTTPError(http.StatusNotFound, msg) }
	ErrConflict           = func(msg string) *HTTPError { return NewHTTPError(http.StatusConflict, msg) }
	ErrTooManyRequests    = func(msg string) *HTTPError { return NewHTTPError(http.StatusTooManyRequests, msg) }
	ErrServiceUnavailable = func(msg string) *HTTPError { return NewHTTPError(http.StatusServiceUnavailable, msg) }
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// WriteError renders err as {"error": message}. Errors that are not an
// HTTPError are logged and hidden behind a 500.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			slog.Error("request failed", "status", httpErr.Code, "err", err)
		}
		WriteJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
		return
	}
	slog.Error("unhandled error", "err", err)
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
