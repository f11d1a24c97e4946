// Package waitlist stores pre-launch signups and answers whether a signed-in
// user has been let in.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of a waitlist entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInvited  Status = "invited"
	StatusAccepted Status = "accepted"
)

// GrantsAccess reports whether the status lets the user into the app.
func (s Status) GrantsAccess() bool {
	return s == StatusInvited || s == StatusAccepted
}

// Entry is one row of the waitlist table.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinRequest is the body of the waitlist endpoint.
type JoinRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Normalize trims and lower-cases the address so lookups are
// case-insensitive.
func (r *JoinRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// NormalizeEmail is the canonical form every email is stored and queried in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store is the persistence the Service needs.
type Store interface {
	// AccountExists reports whether a registered user has this email.
	AccountExists(ctx context.Context, email string) (bool, error)
	// Insert adds an entry and returns ErrAlreadyListed on a duplicate email.
	Insert(ctx context.Context, e *Entry) error
	// StatusOf returns the entry's status or ErrNotListed.
	StatusOf(ctx context.Context, email string) (Status, error)
}

// Service implements the waitlist and access-check operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService wraps a Store. A nil store gives a Service whose every call
// returns ErrNotConfigured.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Configured reports whether the Service has a store behind it.
func (s *Service) Configured() bool {
	return s != nil && s.store != nil
}

// Join puts email on the waitlist as pending. It refuses emails that
// already belong to an account or are already listed.
func (s *Service) Join(ctx context.Context, email string) (*Entry, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	email = NormalizeEmail(email)

	exists, err := s.store.AccountExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	entry := &Entry{
		ID:        uuid.New(),
		Email:     email,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, ErrAlreadyListed) {
			return nil, err
		}
		return nil, fmt.Errorf("inserting waitlist entry: %w", err)
	}

	slog.Info("waitlist entry created", "entry_id", entry.ID)
	return entry, nil
}

// Access returns the email's waitlist status and whether it grants access.
// An unlisted email is pending with no access. Any store error is returned
// with hasAccess false; callers must not grant access on error.
func (s *Service) Access(ctx context.Context, email string) (Status, bool, error) {
	if !s.Configured() {
		return "", false, ErrNotConfigured
	}

	status, err := s.store.StatusOf(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, ErrNotListed):
		return StatusPending, false, nil
	case err != nil:
		return "", false, fmt.Errorf("looking up waitlist status: %w", err)
	}

	return status, status.GrantsAccess(), nil
}
