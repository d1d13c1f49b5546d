package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of provider failure classes. The
// recoverable/non-recoverable split drives the orchestrator's fallback
// decision, so new kinds must be added here and nowhere else.
type ErrorKind int

const (
	// KindInvalidInput means the caller's data cannot be analyzed (non-recoverable)
	KindInvalidInput ErrorKind = iota

	// KindContextOverflow means the content exceeds the provider's window (non-recoverable)
	KindContextOverflow

	// KindTimeout means the attempt exceeded its deadline
	KindTimeout

	// KindRateLimited means the provider reported a quota/rate signal
	KindRateLimited

	// KindUnavailable means the provider could not be reached or failed generically
	KindUnavailable

	// KindInternalError means an unexpected failure inside the provider adapter
	KindInternalError

	// KindMalformedResponse means the provider replied with output we could not use
	KindMalformedResponse
)

// String returns the stable wire name of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindContextOverflow:
		return "CONTEXT_OVERFLOW"
	case KindTimeout:
		return "TIMEOUT"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindInternalError:
		return "INTERNAL_ERROR"
	case KindMalformedResponse:
		return "MALFORMED_RESPONSE"
	default:
		return fmt.Sprintf("ERROR_KIND(%d)", int(k))
	}
}

// Recoverable reports whether retrying against a different provider has a
// reasonable chance of success
func (k ErrorKind) Recoverable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindUnavailable, KindInternalError, KindMalformedResponse:
		return true
	case KindInvalidInput, KindContextOverflow:
		return false
	}
	return false
}

// AnalysisError is the structured failure every provider returns instead
// of panicking or leaking transport errors
type AnalysisError struct {
	// RequestID echoes the id of the request that failed
	RequestID string `json:"request_id"`

	// Provider is the name of the provider that failed
	Provider string `json:"provider"`

	// Kind classifies the failure
	Kind ErrorKind `json:"kind"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Suggestion optionally tells the caller how to recover
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Is matches two analysis errors by kind
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewAnalysisError creates a typed provider failure
func NewAnalysisError(requestID, provider string, kind ErrorKind, message string) *AnalysisError {
	return &AnalysisError{
		RequestID: requestID,
		Provider:  provider,
		Kind:      kind,
		Message:   message,
	}
}

// WithSuggestion attaches a recovery hint and returns the error
func (e *AnalysisError) WithSuggestion(s string) *AnalysisError {
	e.Suggestion = s
	return e
}

// ConfigError signals an operational misconfiguration in the selection
// layer: no provider configured or none of the configured providers are
// available. It is deliberately a separate type from AnalysisError so a
// misconfigured deployment is never mistaken for a flaky backend.
type ConfigError struct {
	Message   string
	Primary   string
	Secondary string
	Available []string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("selection misconfigured: %s (primary=%q secondary=%q available=%v)",
		e.Message, e.Primary, e.Secondary, e.Available)
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// AsAnalysisError extracts an *AnalysisError from err when present
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
