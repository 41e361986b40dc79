package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeReadOnly represents an attempt to issue a mutating request
	ErrTypeReadOnly ErrorType = "read_only"
	// ErrTypeAuth represents authentication and token errors
	ErrTypeAuth ErrorType = "authentication"
	// ErrTypeRateLimit represents upstream or client-side rate limiting
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeAPI represents classified upstream API errors
	ErrTypeAPI ErrorType = "api"
	// ErrTypeValidation represents input validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeConnection represents transport-level connection failures
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeTimeout represents transport-level timeouts
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`

	// StatusCode carries the upstream HTTP status for api-type errors,
	// 0 when unknown.
	StatusCode int `json:"status_code,omitempty"`
	// RetryAfter carries the upstream wait hint in whole seconds for
	// rate-limit errors. Negative means no hint was provided.
	RetryAfter int `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// ReadOnlyViolation creates an error for a refused mutating request.
// These indicate a programming error and are never retried.
func ReadOnlyViolation(method string) *AppError {
	return &AppError{
		Type:    ErrTypeReadOnly,
		Message: fmt.Sprintf("read-only client refused %s request", method),
	}
}

// AuthError creates a new authentication error
func AuthError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeAuth,
		Message: msg,
	}
}

// RateLimitError creates a new rate limit error. retryAfter is the wait
// hint in whole seconds; pass a negative value when no hint is available.
func RateLimitError(msg string, retryAfter int) *AppError {
	return &AppError{
		Type:       ErrTypeRateLimit,
		Message:    msg,
		RetryAfter: retryAfter,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// APIError creates a new upstream API error carrying the HTTP status
func APIError(statusCode int, msg string) *AppError {
	return &AppError{
		Type:       ErrTypeAPI,
		Message:    msg,
		StatusCode: statusCode,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// TimeoutError creates a new timeout error
func TimeoutError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Message: msg,
		Cause:   cause,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// IsRetryable reports whether the error is a transport-level failure the
// retry layer may attempt again. Classified HTTP errors, including 5xx,
// are not retryable.
func IsRetryable(err error) bool {
	return IsType(err, ErrTypeConnection) || IsType(err, ErrTypeTimeout)
}

// StatusCode returns the upstream HTTP status carried by the error, or 0
func StatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return 0
}

// RetryAfterHint returns the rate-limit wait hint in seconds and whether
// one was provided.
func RetryAfterHint(err error) (int, bool) {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Type != ErrTypeRateLimit || appErr.RetryAfter < 0 {
		return 0, false
	}
	return appErr.RetryAfter, true
}
