package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

type fakeStore struct {
	users    map[string]core.User // by id
	byName   map[string]core.User
	sessions map[string]core.Session
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]core.User),
		byName:   make(map[string]core.User),
		sessions: make(map[string]core.Session),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	if _, ok := f.byName[username]; ok {
		return core.User{}, storage.ErrUsernameTaken
	}
	f.nextID++
	u := core.User{ID: string(rune('a' + f.nextID)), Username: username, PasswordHash: passwordHash}
	f.users[u.ID] = u
	f.byName[username] = u
	return u, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, s core.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (core.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return core.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) UpdateSessionExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	s, ok := f.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.ExpiresAt = expiresAt
	f.sessions[id] = s
	return nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteUserSessions(ctx context.Context, userID string) error {
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password"); err == nil {
		t.Error("expected error for short username")
	}
	if _, err := svc.Register(ctx, "valid_user", "short"); err == nil {
		t.Error("expected error for short password")
	}

	user, err := svc.Register(ctx, "valid_user", "password123")
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if user.Username != "valid_user" {
		t.Errorf("Username = %q, want valid_user", user.Username)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")) != nil {
		t.Error("stored hash does not verify against the password")
	}
}

func TestLoginRound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "secret-pass")
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}

	user, err := svc.Login(ctx, "alice", "secret-pass")
	if err != nil {
		t.Fatalf("Login() = %v", err)
	}
	if user.ID != registered.ID {
		t.Error("login resolved a different user")
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "alice", "secret-pass")
	token, session, err := svc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() = %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
	if session.ID == token {
		t.Fatal("session id must not be the raw token")
	}

	got, gotSession, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken() = %v", err)
	}
	if got.ID != user.ID || gotSession.ID != session.ID {
		t.Error("validation resolved the wrong user or session")
	}

	if err := svc.Invalidate(ctx, token); err != nil {
		t.Fatalf("Invalidate() = %v", err)
	}
	if _, _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("ValidateToken after invalidate = %v, want ErrInvalidSession", err)
	}
}

func TestValidateTokenExpiredSessionIsDeleted(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "alice", "secret-pass")
	token, session, _ := svc.CreateSession(ctx, user.ID)

	expired := session
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	store.sessions[session.ID] = expired

	if _, _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("ValidateToken = %v, want ErrInvalidSession", err)
	}
	if _, ok := store.sessions[session.ID]; ok {
		t.Error("expired session should have been deleted")
	}
}

func TestValidateTokenRenewsNearExpiry(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "alice", "secret-pass")
	token, session, _ := svc.CreateSession(ctx, user.ID)

	nearExpiry := session
	nearExpiry.ExpiresAt = time.Now().Add(24 * time.Hour)
	store.sessions[session.ID] = nearExpiry

	_, renewed, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken() = %v", err)
	}
	if !renewed.ExpiresAt.After(time.Now().Add(20 * 24 * time.Hour)) {
		t.Errorf("expiry %v was not pushed out by renewal", renewed.ExpiresAt)
	}
}

func TestInvalidateUserDropsAllSessions(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	user, _ := svc.Register(ctx, "alice", "secret-pass")
	t1, _, _ := svc.CreateSession(ctx, user.ID)
	t2, _, _ := svc.CreateSession(ctx, user.ID)

	if err := svc.InvalidateUser(ctx, user.ID); err != nil {
		t.Fatalf("InvalidateUser() = %v", err)
	}
	for _, token := range []string{t1, t2} {
		if _, _, err := svc.ValidateToken(ctx, token); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("ValidateToken = %v, want ErrInvalidSession", err)
		}
	}
}
