package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/howard-nolan/studyproxy/internal/auth"
	"github.com/howard-nolan/studyproxy/internal/config"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-that-is-long-enough-for-hs256"

// memStore is an in-memory waitlist.Store.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]bool
	statuses map[string]waitlist.Status
	err      error
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]bool{}, statuses: map[string]waitlist.Status{}}
}

func (m *memStore) AccountExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.accounts[email], nil
}

func (m *memStore) Insert(_ context.Context, e *waitlist.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.statuses[e.Email]; ok {
		return waitlist.ErrAlreadyListed
	}
	m.statuses[e.Email] = e.Status
	return nil
}

func (m *memStore) StatusOf(_ context.Context, email string) (waitlist.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	s, ok := m.statuses[email]
	if !ok {
		return "", waitlist.ErrNotListed
	}
	return s, nil
}

func newAccessServer(t *testing.T, store waitlist.Store) *Server {
	t.Helper()
	verifier, err := auth.NewVerifier(testJWTSecret, "authenticated")
	require.NoError(t, err)

	return newTestServer(t, &fakeProvider{}, func(_ *config.Config, d *Deps) {
		d.Waitlist = waitlist.NewService(store)
		d.Verifier = verifier
	})
}

func accessToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": email,
		"aud":   "authenticated",
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func checkAccess(t *testing.T, srv http.Handler, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/check-access", strings.NewReader(""))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestWaitlist_Join(t *testing.T) {
	store := newMemStore()
	srv := newAccessServer(t, store)

	rec := do(t, srv, http.MethodPost, "/api/waitlist", `{"email":"  Ada@Example.com "}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"email": "ada@example.com", "status": "pending"}, decode(t, rec))
	assert.Equal(t, waitlist.StatusPending, store.statuses["ada@example.com"])
}

func TestWaitlist_Conflicts(t *testing.T) {
	store := newMemStore()
	store.statuses["listed@example.com"] = waitlist.StatusPending
	store.accounts["member@example.com"] = true
	srv := newAccessServer(t, store)

	rec := do(t, srv, http.MethodPost, "/api/waitlist", `{"email":"listed@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This email is already on the waitlist", decode(t, rec)["error"])

	rec = do(t, srv, http.MethodPost, "/api/waitlist", `{"email":"member@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An account with this email already exists", decode(t, rec)["error"])
}

func TestWaitlist_InvalidEmail(t *testing.T) {
	srv := newAccessServer(t, newMemStore())

	for _, body := range []string{`{}`, `{"email":"   "}`, `{"email":"not-an-email"}`} {
		rec := do(t, srv, http.MethodPost, "/api/waitlist", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "A valid email is required", decode(t, rec)["error"])
	}
}

func TestWaitlist_StoreError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	srv := newAccessServer(t, store)

	rec := do(t, srv, http.MethodPost, "/api/waitlist", `{"email":"a@example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWaitlist_NotConfigured(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	rec := do(t, srv, http.MethodPost, "/api/waitlist", `{"email":"a@example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database not configured", decode(t, rec)["error"])
}

func TestCheckAccess(t *testing.T) {
	store := newMemStore()
	store.statuses["invited@example.com"] = waitlist.StatusInvited
	store.statuses["accepted@example.com"] = waitlist.StatusAccepted
	store.statuses["pending@example.com"] = waitlist.StatusPending
	srv := newAccessServer(t, store)
	exp := time.Now().Add(time.Hour)

	tests := []struct {
		email  string
		access bool
		status string
	}{
		{"invited@example.com", true, "invited"},
		{"Accepted@Example.com", true, "accepted"},
		{"pending@example.com", false, "pending"},
		{"unknown@example.com", false, "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			rec := checkAccess(t, srv, "Bearer "+accessToken(t, tt.email, exp))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, map[string]any{"hasAccess": tt.access, "status": tt.status}, decode(t, rec))
		})
	}
}

func TestCheckAccess_Unauthorized(t *testing.T) {
	srv := newAccessServer(t, newMemStore())

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"no header", "", "Authorization header required"},
		{"wrong scheme", "Basic abc", "Invalid token"},
		{"garbage token", "Bearer abc.def.ghi", "Invalid token"},
		{"expired", "Bearer " + accessToken(t, "a@example.com", time.Now().Add(-time.Hour)), "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := checkAccess(t, srv, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, map[string]any{"hasAccess": false, "error": tt.msg}, decode(t, rec))
		})
	}
}

func TestCheckAccess_DeniesOnDatabaseError(t *testing.T) {
	store := newMemStore()
	store.statuses["invited@example.com"] = waitlist.StatusInvited
	store.err = errors.New("too many connections")
	srv := newAccessServer(t, store)

	rec := checkAccess(t, srv, "Bearer "+accessToken(t, "invited@example.com", time.Now().Add(time.Hour)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"hasAccess": false, "error": "Failed to verify access"}, decode(t, rec))
}

func TestCheckAccess_NotConfigured(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{}, func(_ *config.Config, d *Deps) {
		d.Waitlist = waitlist.NewService(newMemStore())
	})

	rec := checkAccess(t, srv, "Bearer whatever")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"hasAccess": false, "error": "Authentication not configured"}, decode(t, rec))
}
