package http

import (
	"context"
	"errors"
	"net/http"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

type balanceSourceInput struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type saveBalanceSourcesRequest struct {
	UserMonthID    string               `json:"userMonthId"`
	BalanceSources []balanceSourceInput `json:"balanceSources"`
}

func (s *Server) handleListBalanceSources(w http.ResponseWriter, r *http.Request) {
	userMonthID := r.URL.Query().Get("userMonthId")
	if userMonthID == "" {
		respondError(w, http.StatusBadRequest, "userMonthId is required")
		return
	}
	if err := s.checkMonthOwnership(r.Context(), w, r, userMonthID); err != nil {
		return
	}

	sources, err := s.repo.ListBalanceSources(r.Context(), userMonthID)
	if err != nil {
		respondInternal(w, r, err, "List balance sources failed")
		return
	}
	if sources == nil {
		sources = []core.BalanceSource{}
	}
	respondData(w, http.StatusOK, sources)
}

func (s *Server) handleSaveBalanceSources(w http.ResponseWriter, r *http.Request) {
	var req saveBalanceSourcesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserMonthID == "" {
		respondError(w, http.StatusBadRequest, "userMonthId is required")
		return
	}
	if err := s.checkMonthOwnership(r.Context(), w, r, req.UserMonthID); err != nil {
		return
	}

	sources := make([]core.BalanceSource, len(req.BalanceSources))
	for i, in := range req.BalanceSources {
		src := core.BalanceSource{
			ID:          in.ID,
			UserMonthID: req.UserMonthID,
			Name:        sanitizeInput(in.Name),
			Currency:    core.NormalizeCurrency(in.Currency),
			Amount:      in.Amount,
		}
		if err := src.Validate(); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		sources[i] = src
	}

	saved, err := s.repo.SaveBalanceSources(r.Context(), req.UserMonthID, sources)
	if err != nil {
		respondInternal(w, r, err, "Save balance sources failed")
		return
	}
	respondData(w, http.StatusOK, map[string]any{"balanceSources": saved})
}

func (s *Server) handleDeleteBalanceSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "balance source id is required")
		return
	}

	source, err := s.repo.GetBalanceSource(r.Context(), id)
	if err != nil {
		respondStorageError(w, r, err, "Load balance source failed")
		return
	}
	if err := s.checkMonthOwnership(r.Context(), w, r, source.UserMonthID); err != nil {
		return
	}

	if err := s.repo.DeleteBalanceSource(r.Context(), id); err != nil {
		respondInternal(w, r, err, "Delete balance source failed")
		return
	}
	respondData(w, http.StatusOK, map[string]any{"success": true})
}

// checkMonthOwnership rejects access to user months belonging to someone
// else. It writes the error response itself; a non-nil return means the
// handler must stop.
func (s *Server) checkMonthOwnership(ctx context.Context, w http.ResponseWriter, r *http.Request, userMonthID string) error {
	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return errors.New("no user in context")
	}

	um, err := s.repo.GetUserMonthByID(ctx, userMonthID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user month not found")
		} else {
			respondInternal(w, r, err, "Load user month failed")
		}
		return err
	}
	if um.UserID != user.ID {
		respondError(w, http.StatusNotFound, "user month not found")
		return errors.New("user month owned by another user")
	}
	return nil
}
