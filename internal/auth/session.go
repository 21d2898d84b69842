// Package auth holds the account session of the sync daemon.
//
// The session is an access token issued elsewhere; its "sub" claim is the
// owner attached to every remote row. The daemon never logs in on its own,
// the token is supplied through configuration or PUT /api/session.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
)

var (
	// ErrUnauthorized is returned by [Session.Owner] when no token is set or
	// the token has expired.
	ErrUnauthorized = errors.New("no valid session")

	// ErrInvalidToken is returned by [Session.SetToken] for tokens that
	// cannot be parsed or verified.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is safe for concurrent use.
type Session struct {
	signKey string
	now     func() time.Time

	mu        sync.RWMutex
	token     string
	claims    utils.SessionClaims
	listeners []func(valid bool)
}

// NewSession returns an empty session. When signKey is set every token's
// HMAC signature is verified.
func NewSession(signKey string) *Session {
	return &Session{signKey: signKey, now: time.Now}
}

// SetToken replaces the current token. An invalid token leaves the current
// session untouched.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims, err := utils.ParseSessionToken(token, s.signKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(true)
	}
	return nil
}

// Clear drops the current token.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.claims = utils.SessionClaims{}
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(false)
	}
}

// OnChange registers fn to be called after every SetToken and Clear.
func (s *Session) OnChange(fn func(valid bool)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Owner returns the account id of the session.
func (s *Session) Owner() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrUnauthorized
	}
	if s.expiredLocked() {
		return "", fmt.Errorf("%w: token expired at %s", ErrUnauthorized, s.claims.ExpiresAt.Format(time.RFC3339))
	}
	return s.claims.Owner, nil
}

// Valid reports whether [Session.Owner] would succeed.
func (s *Session) Valid() bool {
	_, err := s.Owner()
	return err == nil
}

// Token returns the raw token, empty when none is set.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Status describes the session without exposing the token.
func (s *Session) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return models.SessionStatus{}
	}
	return models.SessionStatus{
		Valid:     !s.expiredLocked(),
		Owner:     s.claims.Owner,
		ExpiresAt: s.claims.ExpiresAt,
	}
}

func (s *Session) expiredLocked() bool {
	return !s.claims.ExpiresAt.IsZero() && !s.now().Before(s.claims.ExpiresAt)
}
