package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/zensushi/zen/pkg/errors"
)

const maxErrorBody = 1 << 20

// StatusError is a non-2xx response without a usable error envelope, or
// any 5xx. The circuit breaker counts it as a failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Body)
}

// errorEnvelope is the {"error":{...}} body written by httputil.
type errorEnvelope struct {
	Error *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response.
// A 4xx with the standard error envelope becomes an *apperrors.AppError
// that keeps the server's code and matches the sentinel for its status;
// everything else becomes a *StatusError.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) != nil || env.Error == nil {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{StatusCode: resp.StatusCode, Body: env.Error.Code + ": " + env.Error.Message}
	}

	message := serviceName + ": " + env.Error.Message
	if env.Error.RequestID != "" {
		message += " (request " + env.Error.RequestID + ")"
	}

	var appErr *apperrors.AppError
	switch resp.StatusCode {
	case http.StatusNotFound:
		appErr = apperrors.NotFound(serviceName, env.Error.Message)
	case http.StatusBadRequest:
		appErr = apperrors.InvalidInput(message)
	case http.StatusConflict:
		appErr = apperrors.Conflict(message)
	case http.StatusServiceUnavailable:
		appErr = apperrors.ServiceUnavailable(message)
	default:
		return &apperrors.AppError{Code: env.Error.Code, Message: message, Status: resp.StatusCode}
	}
	if env.Error.Code != "" {
		appErr.Code = env.Error.Code
	}
	return appErr
}
