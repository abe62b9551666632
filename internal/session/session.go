// Package session holds the authenticated user of the running client.
// A Session is created at start, populated on login and cleared on logout;
// components that need the current user get it injected.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// Session is the explicit replacement for a process-wide "current user".
type Session struct {
	mu        sync.RWMutex
	user      *domain.User
	token     string
	expiresAt time.Time
	now       func() time.Time
	store     *FileStore
}

// New creates an empty, unauthenticated session.
// A non-nil store makes Login/Logout persist across restarts.
func New(store *FileStore) *Session {
	return &Session{now: time.Now, store: store}
}

// Restore loads a previously persisted session, if any.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	state, err := s.store.Load()
	if err != nil {
		return err
	}
	if state == nil || state.Token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := state.User
	s.user = &user
	s.token = state.Token
	s.expiresAt = state.ExpiresAt
	return nil
}

// Login binds user and token to the session.
// If the token is a JWT its expiry is read from the claims without verification;
// the backend remains the authority on validity.
func (s *Session) Login(user domain.User, token string) error {
	if token == "" {
		return errors.New("empty auth token")
	}
	if user.UniqueID == "" {
		user.UniqueID = user.Mobile
	}
	if user.UniqueID == "" {
		return errors.New("user unique id is required")
	}

	expiresAt := tokenExpiry(token)

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	if s.store != nil {
		return s.store.Save(State{User: user, Token: token, ExpiresAt: expiresAt})
	}
	return nil
}

// Logout clears the session and any persisted copy.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.store != nil {
		return s.store.Clear()
	}
	return nil
}

// Token returns the bearer token when the session is authenticated and not expired.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

// User returns the logged in user.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// UniqueID returns the backend user identifier or ErrNotAuthenticated.
func (s *Session) UniqueID() (string, error) {
	u, ok := s.User()
	if !ok {
		return "", domain.ErrNotAuthenticated
	}
	return u.UniqueID, nil
}

// IsAuthenticated reports whether a usable token is present.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
