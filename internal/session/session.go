// Package session keeps track of logged-in browsers.
//
// Sessions are opaque random tokens handed out after a correct access code.
// Handlers never see the storage directly; they go through Store, which is
// injected at startup (memory by default, badger when sessions should
// survive restarts).
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned for unknown or invalidated tokens.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the token exists but its lifetime is over.
	ErrSessionExpired = errors.New("session expired")
)

type Session struct {
	Token         string    `json:"token"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (s *Session) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store is the session storage abstraction handed to the auth service and middleware.
type Store interface {
	// Create issues a new authenticated session.
	Create(ctx context.Context) (*Session, error)

	// Validate returns the session for token.
	// Returns ErrSessionNotFound or ErrSessionExpired when it cannot be used.
	Validate(ctx context.Context, token string) (*Session, error)

	// Invalidate removes the session. Unknown tokens are not an error.
	Invalidate(ctx context.Context, token string) error

	// SweepExpired removes expired sessions and returns how many were removed.
	SweepExpired(ctx context.Context) (int, error)

	Close() error
}

func newSession(now time.Time, ttl time.Duration) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:         token,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}, nil
}

// generateToken returns 32 random bytes, hex encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
