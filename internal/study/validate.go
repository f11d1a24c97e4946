package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldMessages maps a struct field name to the message returned when it
// fails validation. Fields are named the same way across request types.
var fieldMessages = map[string]string{
	"Question":    "Question is required",
	"Prompt":      "Prompt is required",
	"Mode":        "Invalid mode",
	"Source":      "Invalid source",
	"Topic":       "Topic is required",
	"Text":        "Text is required",
	"FlashCount":  "flashCount must be between 1 and 50",
	"Length":      "Invalid length",
	"Temperature": "Invalid temperature",
	"Email":       "A valid email is required",
}

// invalidBody is returned for anything that is not a JSON object of the
// expected shape.
func invalidBody(err error) *FieldError {
	return &FieldError{
		Field:   "body",
		Message: "Invalid request body",
		Err:     fmt.Errorf("%w: %v", ErrMissingField, err),
	}
}

// Decode reads one JSON request body into v, trims it and validates it.
//
// v may implement Normalize() to trim its fields and Validate() error to
// replace tag-based validation. Every failure is a *FieldError.
func Decode(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return invalidBody(err)
	}

	if n, ok := v.(interface{ Normalize() }); ok {
		n.Normalize()
	}

	if custom, ok := v.(interface{ Validate() error }); ok {
		return custom.Validate()
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalidBody(err)
	}

	// Errors come back in struct field order; report the first.
	fe := fieldErrs[0]
	msg, ok := fieldMessages[fe.StructField()]
	if !ok {
		msg = fmt.Sprintf("Invalid %s", fe.Field())
	}

	kind := ErrInvalidField
	switch fe.Tag() {
	case "required", "required_if":
		kind = ErrMissingField
	}

	return &FieldError{Field: fe.Field(), Message: msg, Err: kind}
}
