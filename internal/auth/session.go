// Package auth implements cookie-session authentication: opaque random
// tokens handed to the client, SHA-256 token digests stored server-side.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

const (
	// SessionCookieName is the HTTP cookie carrying the session token.
	SessionCookieName = "auth_session"

	sessionTTL   = 30 * 24 * time.Hour
	renewWithin  = 15 * 24 * time.Hour
	tokenEntropy = 32
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid session")
)

// Store is the persistence surface session management needs.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, id string) (core.Session, error)
	UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, password string) (core.User, error) {
	if len(username) < 3 || len(username) > 32 {
		return core.User{}, errors.New("username must be 3-32 characters")
	}
	if len(password) < 6 || len(password) > 255 {
		return core.User{}, errors.New("password must be 6-255 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateUser(ctx, username, string(hash))
}

// Login verifies credentials and returns the user. The caller creates the
// session afterwards so registration can share the same path.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// CreateSession mints a fresh token for the user and persists its digest.
// The returned token goes into the cookie; only its hash hits storage.
func (s *Service) CreateSession(ctx context.Context, userID string) (token string, session core.Session, err error) {
	raw := make([]byte, tokenEntropy)
	if _, err := rand.Read(raw); err != nil {
		return "", core.Session{}, fmt.Errorf("generate session token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(raw)

	session = core.Session{
		ID:        sessionID(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", core.Session{}, err
	}
	return token, session, nil
}

// ValidateToken resolves a cookie token to its user. Expired sessions are
// deleted on sight; sessions inside the renewal window get a fresh expiry.
func (s *Service) ValidateToken(ctx context.Context, token string) (core.User, core.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, core.Session{}, ErrInvalidSession
		}
		return core.User{}, core.Session{}, fmt.Errorf("load session: %w", err)
	}

	now := time.Now()
	if now.After(session.ExpiresAt) {
		_ = s.store.DeleteSession(ctx, session.ID)
		return core.User{}, core.Session{}, ErrInvalidSession
	}
	if session.ExpiresAt.Sub(now) < renewWithin {
		session.ExpiresAt = now.Add(sessionTTL)
		if err := s.store.UpdateSessionExpiry(ctx, session.ID, session.ExpiresAt); err != nil {
			return core.User{}, core.Session{}, fmt.Errorf("renew session: %w", err)
		}
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return core.User{}, core.Session{}, ErrInvalidSession
	}
	return user, session, nil
}

// Invalidate removes one session by its cookie token.
func (s *Service) Invalidate(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, sessionID(token))
}

// InvalidateUser removes every session belonging to a user.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	return s.store.DeleteUserSessions(ctx, userID)
}

func sessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
