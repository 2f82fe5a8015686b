// Package http exposes the budget tracker's JSON API. Handlers translate
// requests into storage/service calls and shape envelope responses; all
// aggregation logic lives in the budget and rates packages.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kopilka/internal/auth"
	"kopilka/internal/budget"
	"kopilka/internal/cache"
	"kopilka/internal/core"
	"kopilka/internal/rates"
	"kopilka/internal/storage"
)

// RatePublisher broadcasts saved rate tables; nil disables broadcasting.
type RatePublisher interface {
	PublishRateUpdate(ctx context.Context, date string, rates map[string]float64) error
}

type Server struct {
	http.Server

	repo      *storage.Repository
	budget    *budget.Service
	rates     *rates.Store
	sessions  *auth.Service
	publisher RatePublisher

	rateLimiter  *rateLimiter
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// The cache manager periodically sweeps the rate cache's expired entries.
func NewServer(addr string, repo *storage.Repository, budgetSvc *budget.Service, rateStore *rates.Store, sessions *auth.Service, publisher RatePublisher, cacheManager *cache.Manager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:         repo,
		budget:       budgetSvc,
		rates:        rateStore,
		sessions:     sessions,
		publisher:    publisher,
		rateLimiter:  newRateLimiter(),
		cacheManager: cacheManager,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/register", s.secure(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.secure(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.secure(s.handleLogout))

	mux.HandleFunc("GET /api/balance-sources", s.secure(s.authed(s.handleListBalanceSources)))
	mux.HandleFunc("POST /api/balance-sources", s.secure(s.authed(s.handleSaveBalanceSources)))
	mux.HandleFunc("DELETE /api/balance-sources/{id}", s.secure(s.authed(s.handleDeleteBalanceSource)))

	mux.HandleFunc("POST /api/user-months", s.secure(s.authed(s.handleCreateUserMonth)))
	mux.HandleFunc("GET /api/months/{year}/{month}", s.secure(s.authed(s.handleMonthData)))
	mux.HandleFunc("GET /api/timeline", s.secure(s.authed(s.handleTimeline)))

	mux.HandleFunc("POST /api/income-entries", s.secure(s.authed(s.handleCreateIncomeEntry)))
	mux.HandleFunc("PUT /api/income-entries/{id}", s.secure(s.authed(s.handleUpdateIncomeEntry)))
	mux.HandleFunc("DELETE /api/income-entries/{id}", s.secure(s.authed(s.handleDeleteIncomeEntry)))
	mux.HandleFunc("POST /api/expense-entries", s.secure(s.authed(s.handleCreateExpenseEntry)))
	mux.HandleFunc("PUT /api/expense-entries/{id}", s.secure(s.authed(s.handleUpdateExpenseEntry)))
	mux.HandleFunc("DELETE /api/expense-entries/{id}", s.secure(s.authed(s.handleDeleteExpenseEntry)))

	mux.HandleFunc("GET /api/user-settings", s.secure(s.authed(s.handleGetUserSettings)))
	mux.HandleFunc("PUT /api/user-settings", s.secure(s.authed(s.handleUpdateUserSettings)))

	mux.HandleFunc("GET /api/exchange-rates", s.secure(s.authed(s.handleGetExchangeRates)))
	mux.HandleFunc("PUT /api/exchange-rates/{date}", s.secure(s.authed(s.handleSaveExchangeRates)))

	mux.HandleFunc("POST /api/create-test-data", s.secure(s.authed(s.handleCreateTestData)))

	return s
}

// Shutdown stops background helpers before draining the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DB().PingContext(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness ping failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("db unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// secure adds security headers, rate limiting for mutating methods, request
// IDs and request start/completion logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// authed resolves the session cookie to a user and stores it on the request
// context; requests without a valid session get a 401 envelope.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, _, err := s.sessions.ValidateToken(r.Context(), cookie.Value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userKey      ctxKey = "user"
)

// userFromContext returns the authenticated user stored by authed.
func userFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey).(core.User)
	return u, ok
}
