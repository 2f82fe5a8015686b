package http

import (
	"errors"
	"log/slog"
	"net/http"

	"kopilka/internal/auth"
	"kopilka/internal/storage"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = sanitizeInput(req.Username)

	user, err := s.sessions.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			respondError(w, http.StatusConflict, "username already taken")
			return
		}
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Default settings row so the client always has a base currency.
	if _, err := s.repo.GetOrCreateUserSettings(r.Context(), user.ID); err != nil {
		slog.WarnContext(r.Context(), "Failed to create default settings", "error", err, "user_id", user.ID)
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		respondInternal(w, r, err, "Session creation failed")
		return
	}
	respondData(w, http.StatusCreated, map[string]any{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := s.sessions.Login(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondInternal(w, r, err, "Login failed")
		return
	}

	if err := s.startSession(w, r, user.ID); err != nil {
		respondInternal(w, r, err, "Session creation failed")
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := s.sessions.Invalidate(r.Context(), cookie.Value); err != nil {
			slog.WarnContext(r.Context(), "Session invalidation failed", "error", err)
		}
	}
	clearSessionCookie(w)
	respondData(w, http.StatusOK, map[string]any{"loggedOut": true})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) error {
	token, session, err := s.sessions.CreateSession(r.Context(), userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
