package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/zensushi/zen/pkg/errors"
	"github.com/zensushi/zen/pkg/logger"
	"github.com/zensushi/zen/pkg/validator"
)

// Codes produced by this package in addition to the apperrors ones.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidParameter = "INVALID_PARAMETER"
)

// Response is the error/data envelope used by every endpoint that is not
// part of the fixed ordering wire contract.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as the error envelope. 5xx errors are logged with
// the request-scoped logger, or fallback when the request has none.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	appErr := apperrors.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		logInternal(r, l, err)
	}
	writeErrorBody(w, r, appErr.Status, ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

// writeErrorBody stamps the request's correlation id on body and writes it.
func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	body.RequestID = logger.CorrelationIDFromContext(r.Context())
	WriteJSON(w, status, Response{Error: &body})
}

func logInternal(r *http.Request, l *slog.Logger, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a 400 response. Validator errors carry
// field-level details; anything else is reported as INVALID_INPUT.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidation,
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{Code: apperrors.CodeInvalidInput, Message: message})
}

// ParseIntParam parses a positive integer path parameter. If invalid, it
// writes a 400 INVALID_PARAMETER response and returns false.
func ParseIntParam(w http.ResponseWriter, name, param string) (int, bool) {
	n, err := strconv.Atoi(param)
	if err != nil || n <= 0 {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    CodeInvalidParameter,
				Message: "invalid " + name + ": " + param,
			},
		})
		return 0, false
	}
	return n, true
}
