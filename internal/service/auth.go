package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/templui/travelmap/internal/metrics"
	"github.com/templui/travelmap/internal/session"
)

const SessionCookieName = "session_token"

var (
	ErrInvalidAccessCode = errors.New("invalid access code")
)

// AuthService gates the whole app behind one shared access code.
type AuthService struct {
	accessCodeHash []byte
	sessions       session.Store
	isProduction   bool
}

// NewAuthService hashes the configured access code once at startup.
func NewAuthService(accessCode string, sessions session.Store, isProduction bool) (*AuthService, error) {
	if strings.TrimSpace(accessCode) == "" {
		return nil, errors.New("access code must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash access code: %w", err)
	}

	return &AuthService{
		accessCodeHash: hash,
		sessions:       sessions,
		isProduction:   isProduction,
	}, nil
}

// Login checks code and issues a new session on success.
func (s *AuthService) Login(ctx context.Context, code string) (*session.Session, error) {
	err := bcrypt.CompareHashAndPassword(s.accessCodeHash, []byte(strings.TrimSpace(code)))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidAccessCode
	}

	sess, err := s.sessions.Create(ctx)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	slog.Info("login accepted", "expires_at", sess.ExpiresAt)
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Invalidate(ctx, token)
}

// Authenticate resolves a cookie token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrSessionNotFound
	}
	return s.sessions.Validate(ctx, token)
}

func (s *AuthService) SetSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
