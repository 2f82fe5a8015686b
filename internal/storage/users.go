package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

// ErrUsernameTaken is returned when registering a username that exists.
var ErrUsernameTaken = errors.New("username already taken")

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		s.ID, s.UserID, s.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (core.Session, error) {
	var (
		s         core.Session
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.UserID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	return s, nil
}

func (r *Repository) UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ?`, expiresAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("update session expiry: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *Repository) GetUserSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	var (
		s        core.UserSettings
		currency string
		created  int64
		updated  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, base_currency, created_at, updated_at
		 FROM user_settings WHERE user_id = ?`, userID).
		Scan(&s.ID, &s.UserID, &currency, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, ErrNotFound
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}
	s.BaseCurrency = core.NormalizeCurrency(currency)
	s.CreatedAt = time.Unix(created, 0)
	s.UpdatedAt = time.Unix(updated, 0)
	return s, nil
}

func (r *Repository) CreateDefaultUserSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	now := time.Now()
	s := core.UserSettings{
		ID:           uuid.NewString(),
		UserID:       userID,
		BaseCurrency: core.BaseCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (id, user_id, base_currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, string(s.BaseCurrency), now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return r.GetUserSettings(ctx, userID)
		}
		return core.UserSettings{}, fmt.Errorf("create user settings: %w", err)
	}
	return s, nil
}

// GetOrCreateUserSettings returns the user's settings, creating the USD
// default row on first access.
func (r *Repository) GetOrCreateUserSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	s, err := r.GetUserSettings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return r.CreateDefaultUserSettings(ctx, userID)
	}
	return s, err
}

func (r *Repository) UpdateUserSettings(ctx context.Context, userID string, baseCurrency core.Currency) (core.UserSettings, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_settings SET base_currency = ?, updated_at = ? WHERE user_id = ?`,
		string(baseCurrency), now.Unix(), userID)
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("update user settings: %w", err)
	}
	return r.GetUserSettings(ctx, userID)
}
