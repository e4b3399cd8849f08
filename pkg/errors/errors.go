package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeProviderError = "PROVIDER_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

// Kind classifies a provider failure independently of the provider that produced it.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindRateLimited       Kind = "rate_limited"
	KindUnavailable       Kind = "unavailable"
	KindMalformedResponse Kind = "malformed_response"
	// KindRejected is a 4xx the provider gave for a request it would not serve,
	// such as an oversized prompt.
	KindRejected Kind = "rejected"
)

func (k Kind) String() string {
	return string(k)
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k Kind) Retryable() bool {
	return k == KindUnavailable || k == KindRateLimited
}

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// ProviderError is the only error shape adapters let escape. StatusCode holds the
// upstream HTTP status when one was observed, 0 otherwise.
type ProviderError struct {
	*AppError
	Kind     Kind
	Provider string
	Detail   string
}

func NewProviderError(kind Kind, provider, detail string) *ProviderError {
	return &ProviderError{
		AppError: &AppError{
			Message: fmt.Sprintf("%s %s: %s", provider, kind, detail),
			Code:    CodeProviderError,
			Context: map[string]any{
				"provider": provider,
				"kind":     string(kind),
			},
		},
		Kind:     kind,
		Provider: provider,
		Detail:   detail,
	}
}

// WithStatus records the upstream HTTP status.
func (e *ProviderError) WithStatus(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	e.Context["status"] = statusCode
	return e
}

func (e *ProviderError) WithCause(cause error) *ProviderError {
	e.Cause = cause
	return e
}

// Unwrap is declared on ProviderError so errors.As can reach the cause through
// the embedded pointer.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// FromStatus builds a ProviderError for a non-2xx upstream response.
func FromStatus(provider string, statusCode int, detail string) *ProviderError {
	return NewProviderError(KindFromStatus(statusCode), provider, detail).WithStatus(statusCode)
}

// KindFromStatus maps an upstream HTTP status to a failure kind.
func KindFromStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindUnauthorized
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode == http.StatusRequestTimeout || statusCode >= 500:
		return KindUnavailable
	case statusCode >= 400:
		return KindRejected
	default:
		return KindMalformedResponse
	}
}

// AsProviderError unwraps err to a *ProviderError when it carries one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind Kind) bool {
	pe, ok := AsProviderError(err)
	return ok && pe.Kind == kind
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// AsValidationError unwraps err to a *ValidationError when it carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
