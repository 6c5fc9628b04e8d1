package unifiedllm

import (
	"errors"
	"fmt"
)

// SDKError carries a message and the underlying cause. Every error this
// package returns embeds one.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *SDKError) Unwrap() error { return e.Cause }

// ProviderError is a failure reported by the model backend. The more specific
// types below embed it.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	ErrorCode  string
	Retryable  bool
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProviderError) transient() bool { return e.Retryable }

type (
	AuthenticationError struct{ ProviderError }
	AccessDeniedError   struct{ ProviderError }
	NotFoundError       struct{ ProviderError }
	InvalidRequestError struct{ ProviderError }
	RateLimitError      struct{ ProviderError }
	ServerError         struct{ ProviderError }
	ContentFilterError  struct{ ProviderError }
	ContextLengthError  struct{ ProviderError }
	QuotaExceededError  struct{ ProviderError }
)

// Failures that never reached a provider response.
type (
	RequestTimeoutError struct{ SDKError }
	AbortError          struct{ SDKError }
	NetworkError        struct{ SDKError }
	ConfigurationError  struct{ SDKError }
)

func (*RequestTimeoutError) transient() bool { return true }
func (*NetworkError) transient() bool        { return true }
func (*AbortError) transient() bool          { return false }
func (*ConfigurationError) transient() bool  { return false }

// ErrorFromStatusCode classifies an HTTP error response. Rate limits, 5xx
// and unrecognized statuses are retryable; a 429 with the
// insufficient_quota code is not.
func ErrorFromStatusCode(statusCode int, message, provider, errorCode string, cause error) error {
	base := ProviderError{
		SDKError:   SDKError{Message: message, Cause: cause},
		Provider:   provider,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}

	switch {
	case statusCode == 429 && errorCode == "insufficient_quota":
		return &QuotaExceededError{base}
	case statusCode == 429:
		base.Retryable = true
		return &RateLimitError{base}
	case statusCode >= 500:
		base.Retryable = true
		return &ServerError{base}
	case statusCode == 400, statusCode == 422:
		return &InvalidRequestError{base}
	case statusCode == 401:
		return &AuthenticationError{base}
	case statusCode == 403:
		return &AccessDeniedError{base}
	case statusCode == 404:
		return &NotFoundError{base}
	case statusCode == 408:
		return &RequestTimeoutError{base.SDKError}
	case statusCode == 413:
		return &ContextLengthError{base}
	}
	base.Retryable = true
	return &base
}

// IsRetryable reports whether err looks transient. It looks through wrapping,
// and errors from outside this package count as transient. Nothing in this
// module retries; the answer only feeds the logs.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var t interface{ transient() bool }
	if errors.As(err, &t) {
		return t.transient()
	}
	return true
}
