package common

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ErrorCode represents a standardized API error code.
type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodeUpstreamFatal    ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardizedError is the sanitized error shape returned to API clients.
// Internal error detail never reaches the wire; the API handlers send only
// Code and UserMessage (as "message").
type StandardizedError struct {
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
	UserMessage   string    `json:"user_message"`
	StatusCode    int       `json:"-"`
	InternalError error     `json:"-"`
	RetryableFlag bool      `json:"retryable"`
}

// Error implements the error interface.
func (e *StandardizedError) Error() string {
	if e.InternalError != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.InternalError)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *StandardizedError) Unwrap() error {
	return e.InternalError
}

// IsRetryable returns true if the caller may reasonably retry the request.
func (e *StandardizedError) IsRetryable() bool {
	return e.RetryableFlag
}

// ErrorMapping defines an error code's fixed HTTP status and messages.
type ErrorMapping struct {
	Code        ErrorCode
	StatusCode  int
	Message     string
	UserMessage string
	Retryable   bool
}

// ErrorRegistry maps Go errors to standardized, HTTP-status-bearing errors.
// Handlers use it as the single catch-all boundary so that internal error
// kinds never leak to the client.
type ErrorRegistry struct {
	mu       sync.RWMutex
	mappings map[ErrorCode]ErrorMapping
	patterns []patternMapping
}

type patternMapping struct {
	pattern string
	code    ErrorCode
}

// NewErrorRegistry creates a registry pre-populated with the service's
// standard error taxonomy.
func NewErrorRegistry() *ErrorRegistry {
	registry := &ErrorRegistry{
		mappings: make(map[ErrorCode]ErrorMapping),
	}
	registry.registerDefaults()
	return registry
}

func (r *ErrorRegistry) registerDefaults() {
	r.Register(ErrorMapping{
		Code:        ErrCodeValidation,
		StatusCode:  http.StatusBadRequest,
		Message:     "request validation failed",
		UserMessage: "The request was malformed or missing a required field.",
		Retryable:   false,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeUnauthorized,
		StatusCode:  http.StatusUnauthorized,
		Message:     "request not authenticated",
		UserMessage: "Authentication is required for this endpoint.",
		Retryable:   false,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeForbidden,
		StatusCode:  http.StatusForbidden,
		Message:     "request not authorized",
		UserMessage: "You are not authorized to perform this action.",
		Retryable:   false,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeNotFound,
		StatusCode:  http.StatusNotFound,
		Message:     "resource not found",
		UserMessage: "The requested CVE could not be found.",
		Retryable:   false,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeRateLimited,
		StatusCode:  http.StatusTooManyRequests,
		Message:     "rate limit exceeded",
		UserMessage: "Too many requests. Please slow down.",
		Retryable:   true,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeUpstreamFatal,
		StatusCode:  http.StatusBadGateway,
		Message:     "upstream dependency unavailable",
		UserMessage: "An upstream data source is unavailable. Please try again later.",
		Retryable:   true,
	})
	r.Register(ErrorMapping{
		Code:        ErrCodeInternal,
		StatusCode:  http.StatusInternalServerError,
		Message:     "an unexpected error occurred",
		UserMessage: "Something went wrong. Please try again later.",
		Retryable:   true,
	})

	r.RegisterPattern("context deadline exceeded", ErrCodeUpstreamFatal)
	r.RegisterPattern("connection refused", ErrCodeUpstreamFatal)
	r.RegisterPattern("no such host", ErrCodeUpstreamFatal)
	r.RegisterPattern("not found", ErrCodeNotFound)
}

// Register adds or replaces a mapping for a code.
func (r *ErrorRegistry) Register(mapping ErrorMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[mapping.Code] = mapping
}

// RegisterPattern associates a case-insensitive substring of an error's
// message with a code, used as a fallback when the error isn't already a
// StandardizedError.
func (r *ErrorRegistry) RegisterPattern(pattern string, code ErrorCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, patternMapping{pattern: strings.ToLower(pattern), code: code})
}

// Map maps any error to a StandardizedError, defaulting to ErrCodeInternal.
func (r *ErrorRegistry) Map(err error) *StandardizedError {
	if err == nil {
		return nil
	}
	if stdErr, ok := err.(*StandardizedError); ok {
		return stdErr
	}

	errStr := strings.ToLower(err.Error())
	r.mu.RLock()
	for _, pm := range r.patterns {
		if strings.Contains(errStr, pm.pattern) {
			mapping := r.mappings[pm.code]
			r.mu.RUnlock()
			return r.build(mapping, err)
		}
	}
	mapping := r.mappings[ErrCodeInternal]
	r.mu.RUnlock()
	return r.build(mapping, err)
}

// MapWithCode maps an error to a specific, known error code.
func (r *ErrorRegistry) MapWithCode(err error, code ErrorCode) *StandardizedError {
	if err == nil {
		return nil
	}
	r.mu.RLock()
	mapping, exists := r.mappings[code]
	r.mu.RUnlock()
	if !exists {
		return r.Map(err)
	}
	return r.build(mapping, err)
}

func (r *ErrorRegistry) build(mapping ErrorMapping, err error) *StandardizedError {
	return &StandardizedError{
		Code:          mapping.Code,
		Message:       mapping.Message,
		UserMessage:   mapping.UserMessage,
		StatusCode:    mapping.StatusCode,
		InternalError: err,
		RetryableFlag: mapping.Retryable,
	}
}

// GetMapping returns the registered mapping for a code.
func (r *ErrorRegistry) GetMapping(code ErrorCode) (ErrorMapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mapping, exists := r.mappings[code]
	return mapping, exists
}

var globalErrorRegistry = NewErrorRegistry()

// GetGlobalErrorRegistry returns the process-wide error registry.
func GetGlobalErrorRegistry() *ErrorRegistry {
	return globalErrorRegistry
}

// MapError maps an error using the global registry.
func MapError(err error) *StandardizedError {
	return globalErrorRegistry.Map(err)
}

// MapErrorWithCode maps an error to a specific code using the global registry.
func MapErrorWithCode(err error, code ErrorCode) *StandardizedError {
	return globalErrorRegistry.MapWithCode(err, code)
}
