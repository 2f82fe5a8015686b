package http

import (
	"fmt"
	"net/http"

	"kopilka/internal/core"
)

type updateSettingsRequest struct {
	BaseCurrency string `json:"baseCurrency"`
}

func (s *Server) handleGetUserSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	settings, err := s.repo.GetOrCreateUserSettings(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, r, err, "Load user settings failed")
		return
	}
	respondData(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateUserSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !core.IsCurrency(req.BaseCurrency) {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("unsupported currency %q", req.BaseCurrency))
		return
	}

	// Settings may not exist yet for accounts created before the
	// defaults backfill; upsert via the get-or-create path first.
	if _, err := s.repo.GetOrCreateUserSettings(r.Context(), user.ID); err != nil {
		respondInternal(w, r, err, "Load user settings failed")
		return
	}
	settings, err := s.repo.UpdateUserSettings(r.Context(), user.ID, core.Currency(req.BaseCurrency))
	if err != nil {
		respondInternal(w, r, err, "Update user settings failed")
		return
	}
	respondData(w, http.StatusOK, settings)
}
