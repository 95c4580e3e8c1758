package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnknownField is returned for names that are not in the field registry.
var ErrUnknownField = errors.New("unknown field")

// ValidationError represents input coercion errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// FailureKind classifies why a prediction call did not produce a payload.
type FailureKind string

const (
	FailureTransport   FailureKind = "transport"
	FailureStatus      FailureKind = "status"
	FailureDecode      FailureKind = "decode"
	FailureUnavailable FailureKind = "unavailable"
)

// maxBodyExcerpt bounds the response text copied into status errors.
const maxBodyExcerpt = 200

// PredictionError is returned by predictors for every failed call. Its text
// always carries the failure signal verbatim: the status code or the
// underlying transport error.
type PredictionError struct {
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *PredictionError) Error() string {
	switch e.Kind {
	case FailureStatus:
		msg := fmt.Sprintf("HTTP %d", e.StatusCode)
		if body := strings.TrimSpace(e.Body); body != "" {
			if len(body) > maxBodyExcerpt {
				cut := maxBodyExcerpt
				for cut > 0 && !utf8.RuneStart(body[cut]) {
					cut--
				}
				body = body[:cut] + "..."
			}
			msg += ": " + body
		}
		return msg
	case FailureDecode:
		return fmt.Sprintf("invalid response body: %v", e.Err)
	case FailureUnavailable:
		return fmt.Sprintf("prediction service unavailable: %v", e.Err)
	default:
		if e.Err == nil {
			return "transport failure"
		}
		return e.Err.Error()
	}
}

// Unwrap exposes the underlying error
func (e *PredictionError) Unwrap() error {
	return e.Err
}

// NewStatusError builds the error for a non-2xx reply.
func NewStatusError(code int, body string) *PredictionError {
	return &PredictionError{Kind: FailureStatus, StatusCode: code, Body: body}
}

// NewTransportError wraps a network level failure.
func NewTransportError(err error) *PredictionError {
	return &PredictionError{Kind: FailureTransport, Err: err}
}

// NewDecodeError wraps a body that is not JSON.
func NewDecodeError(err error) *PredictionError {
	return &PredictionError{Kind: FailureDecode, Err: err}
}

// NewUnavailableError wraps a fail-fast rejection from the circuit breaker.
func NewUnavailableError(err error) *PredictionError {
	return &PredictionError{Kind: FailureUnavailable, Err: err}
}
