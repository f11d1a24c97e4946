package provider

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by Generate wraps exactly one of these
// inside an *UpstreamError, so callers can branch with errors.Is.
var (
	// ErrNotConfigured means no credential was found for the provider.
	// The network is never touched.
	ErrNotConfigured = errors.New("provider credential not configured")

	// ErrTransport means the request never produced an HTTP response
	// (DNS, connection refused, TLS, timeout).
	ErrTransport = errors.New("upstream unreachable")

	// ErrRejected means the upstream answered with an error status or
	// an empty result.
	ErrRejected = errors.New("upstream rejected request")

	// ErrEmptyResult is the ErrRejected case where the exchange succeeded
	// but carried no choices or candidates.
	ErrEmptyResult = fmt.Errorf("%w: empty result", ErrRejected)

	// ErrShape means a nominally successful response did not contain the
	// expected text at the documented path.
	ErrShape = errors.New("unexpected upstream response shape")
)

// UpstreamError is the typed failure returned by every adapter.
type UpstreamError struct {
	Provider   string
	Kind       error  // one of the Err* kinds above
	StatusCode int    // upstream HTTP status, 0 when there was none
	Message    string // upstream error message, safe to show in details
	Err        error  // underlying cause, may be nil
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func transportError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Kind: ErrTransport, Err: err}
}

func rejectedError(provider string, status int, message string) *UpstreamError {
	return &UpstreamError{Provider: provider, Kind: ErrRejected, StatusCode: status, Message: message}
}

// extractionError turns a non-text Extraction into the matching error kind.
func extractionError(provider string, ex Extraction) *UpstreamError {
	if ex.Kind == ExtractEmpty {
		return &UpstreamError{Provider: provider, Kind: ErrEmptyResult, Message: ex.Reason}
	}
	return &UpstreamError{Provider: provider, Kind: ErrShape, Message: ex.Reason}
}
