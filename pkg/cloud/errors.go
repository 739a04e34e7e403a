package cloud

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies remote classifier failures.
type ErrorType string

const (
	// ErrorTypeAuth means the API key was rejected. Not retryable.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeModel means the configured model does not exist. Not
	// retryable without a config change.
	ErrorTypeModel ErrorType = "model"
	// ErrorTypeEndpoint covers connection failures, timeouts, and 5xx
	// responses from the provider.
	ErrorTypeEndpoint ErrorType = "endpoint"
	// ErrorTypeRateLimit means the provider throttled the request.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeMalformed means the provider answered but the body could
	// not be used (empty choices, invalid JSON payload).
	ErrorTypeMalformed ErrorType = "malformed"
	// ErrorTypeUnknown is everything else.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a structured remote-classifier error. The adapter maps every
// *Error to the pipeline's ServiceUnavailable condition; Type and Retryable
// only steer logging and caller-side retry decisions.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured remote-classifier error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes a provider SDK error into a structured *Error
// so retryability and logging stay consistent across providers.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var cloudErr *Error
	if errors.As(err, &cloudErr) {
		return cloudErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication"):
		return classified(ErrorTypeAuth, "authentication failed", false)

	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")):
		return classified(ErrorTypeModel, "model not found", false)

	case strings.Contains(errStr, "404"):
		return classified(ErrorTypeEndpoint, "endpoint not found", false)

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return classified(ErrorTypeEndpoint, "connection failed", true)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled"):
		return classified(ErrorTypeEndpoint, "request timeout", true)

	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "overloaded"):
		return classified(ErrorTypeRateLimit, "rate limited", true)

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504"):
		return classified(ErrorTypeEndpoint, "server error", true)
	}

	return classified(ErrorTypeUnknown, "remote classifier error", false)
}

// IsRetryable returns true if the error declares itself retryable.
func IsRetryable(err error) bool {
	var cloudErr *Error
	if errors.As(err, &cloudErr) {
		return cloudErr.Retryable
	}
	return false
}
