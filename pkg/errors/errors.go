// Package errors defines the error type shared by the server and the kiosk
// and its mapping onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the server and the kiosk.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Machine-readable codes carried in the "error.code" field of responses.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConflict           = "CONFLICT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// kind ties a sentinel to its response code, status and the message shown
// when nothing more specific is known.
type kind struct {
	code     string
	status   int
	sentinel error
	message  string
}

var (
	kindNotFound     = kind{CodeNotFound, http.StatusNotFound, ErrNotFound, "resource not found"}
	kindInvalidInput = kind{CodeInvalidInput, http.StatusBadRequest, ErrInvalidInput, "invalid input"}
	kindConflict     = kind{CodeConflict, http.StatusConflict, ErrConflict, "request conflicts with current state"}
	kindUnavailable  = kind{CodeServiceUnavailable, http.StatusServiceUnavailable, ErrServiceUnavail, "service temporarily unavailable"}
	kindInternal     = kind{CodeInternal, http.StatusInternalServerError, ErrInternal, "an internal error occurred"}

	kinds = []kind{kindNotFound, kindInvalidInput, kindConflict, kindUnavailable, kindInternal}
)

// AppError is an error that knows how it should be rendered over HTTP.
// Message is safe to show to clients; Err is for logs and errors.Is.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(k kind, message string, cause error) *AppError {
	if cause == nil {
		cause = k.sentinel
	}
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: cause}
}

// NotFound creates a 404 error for the resource with the given id.
func NotFound(resource, id string) *AppError {
	return newAppError(kindNotFound, fmt.Sprintf("%s with id %s not found", resource, id), nil)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(kindInvalidInput, message, nil)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return newAppError(kindConflict, message, nil)
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return newAppError(kindUnavailable, message, nil)
}

// Internal creates a 500 error with a generic message. The cause is kept
// for logs only.
func Internal(err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return newAppError(kindInternal, kindInternal.message, err)
}

// From returns err as an *AppError. An *AppError in the chain is returned
// as is. A wrapped sentinel gets its kind's generic message, except invalid
// input, whose text is meant for the caller. Anything else is Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		msg := k.message
		if k == kindInvalidInput {
			msg = err.Error()
		}
		return newAppError(k, msg, err)
	}
	return Internal(err)
}

// HTTPStatus returns the HTTP status code for err. An *AppError anywhere in
// the chain wins; otherwise the first matching sentinel decides, and
// anything unknown is a 500.
func HTTPStatus(err error) int {
	return From(err).Status
}
