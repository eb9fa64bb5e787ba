package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnavailable    = errors.New("unavailable")
)

// Error codes carried by APIError and surfaced to REST, MCP and CLI clients.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeUnavailable  = "UNAVAILABLE"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is a cart failure with the HTTP status it maps to.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same call may succeed later unchanged:
// the storefront API was unreachable, overloaded or rate limiting.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case CodeUpstream, CodeUnavailable, CodeRateLimited:
		return true
	}
	return false
}

// Severity tells the shopper whether to retry or fix the input (recoverable)
// or give up on the operation as asked.
func (e *APIError) Severity() MessageSeverity {
	if e.Retryable() || e.Code == CodeValidation {
		return SeverityRecoverable
	}
	return SeverityUnrecoverable
}

// causedBy wraps cause under sentinel so both stay reachable via errors.Is.
func causedBy(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// NewNotFoundError reports a missing product, cart or cart line.
func NewNotFoundError(resource string) *APIError {
	return &APIError{CodeNotFound, resource + " not found", http.StatusNotFound, ErrNotFound}
}

// NewValidationError rejects a bad field value before or after it reaches
// the storefront API.
func NewValidationError(field, reason string) *APIError {
	return &APIError{CodeValidation, fmt.Sprintf("invalid %s: %s", field, reason), http.StatusBadRequest, ErrInvalidRequest}
}

// NewUnauthorizedError reports a rejected login or bearer token.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{CodeUnauthorized, reason, http.StatusUnauthorized, ErrUnauthorized}
}

// NewUpstreamError reports a failed call to service.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{CodeUpstream, service + " request failed", http.StatusBadGateway, causedBy(ErrUpstreamError, err)}
}

// NewUnavailableError reports that service is shedding load, typically
// because its circuit breaker is open.
func NewUnavailableError(service string, err error) *APIError {
	return &APIError{CodeUnavailable, service + " temporarily unavailable, please retry later",
		http.StatusServiceUnavailable, causedBy(ErrUnavailable, err)}
}

// NewRateLimitError reports a 429 from service.
func NewRateLimitError(service string) *APIError {
	return &APIError{CodeRateLimited, service + " rate limit exceeded, please retry later",
		http.StatusTooManyRequests, ErrRateLimited}
}

// NewInternalError hides err behind a generic message.
func NewInternalError(err error) *APIError {
	return &APIError{CodeInternal, "an internal error occurred", http.StatusInternalServerError, err}
}

// AsAPIError extracts an APIError from err's chain, wrapping anything else
// as an internal error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalError(err)
}
