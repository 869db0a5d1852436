// Package errors defines the platform's sentinel error taxonomy and the
// mapping from errors to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRetrievalUnavailable means the curriculum store could not be
	// reached or timed out. Callers fall back to a generic lesson rather
	// than surfacing this to the end user.
	ErrRetrievalUnavailable = errors.New("curriculum store unavailable")

	ErrInvalidSubject = errors.New("invalid subject")
	ErrInvalidGrade   = errors.New("invalid grade")
	ErrInvalidInput   = errors.New("invalid input")
	ErrChunkNotFound  = errors.New("curriculum chunk not found")
	ErrChunkExists    = errors.New("curriculum chunk already exists")
	ErrInternal       = errors.New("internal error")
	ErrTimeout        = errors.New("operation timed out")
)

// AppError wraps a sentinel error with a message and an explicit HTTP status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status a handler should return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrChunkNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrChunkExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSubject), errors.Is(err, ErrInvalidGrade), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRetrievalUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
