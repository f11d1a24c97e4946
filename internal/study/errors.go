package study

import "errors"

var (
	// ErrMissingField means a required field was absent or blank after trimming.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField means a field was present but out of range or not one
	// of the allowed values.
	ErrInvalidField = errors.New("invalid field")

	// ErrMalformedArtifact means the model's answer could not be parsed into
	// the requested study artifact.
	ErrMalformedArtifact = errors.New("malformed study artifact")
)

// FieldError is a client-facing validation failure. Message is safe to
// return in a response body.
type FieldError struct {
	Field   string
	Message string
	Err     error // ErrMissingField or ErrInvalidField
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
