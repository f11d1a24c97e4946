package waitlist

import "errors"

var (
	// ErrAlreadyListed means the email is already on the waitlist.
	ErrAlreadyListed = errors.New("email already on waitlist")

	// ErrAccountExists means a user account already uses the email.
	ErrAccountExists = errors.New("account already exists for email")

	// ErrNotListed means the email has no waitlist entry.
	ErrNotListed = errors.New("email not on waitlist")

	// ErrNotConfigured means no database was configured.
	ErrNotConfigured = errors.New("database not configured")
)
