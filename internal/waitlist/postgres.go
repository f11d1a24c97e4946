package waitlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// uniqueViolationCode is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolationCode = "23505"

// Open connects to PostgreSQL through the pgx stdlib driver and checks the
// connection. The pool is sized for a small number of lookups per request.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, ErrNotConfigured
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// PostgresStore implements Store against the hosted database. Accounts live
// in the auth service's auth.users table; the waitlist lives in public.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open connection pool owned by the caller.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AccountExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth.users WHERE lower(email) = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying auth.users: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Insert(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waitlist (id, email, status, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Email, string(e.Status), e.CreatedAt,
	)
	return mapError(err)
}

func (s *PostgresStore) StatusOf(ctx context.Context, email string) (Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM waitlist WHERE lower(email) = $1`,
		email,
	).Scan(&status)
	if err != nil {
		return "", mapError(err)
	}
	return Status(status), nil
}

// mapError turns driver errors into package sentinels, keeping the original
// for logs.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotListed
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrAlreadyListed, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
