package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kopilka/internal/core"
)

type saveRatesRequest struct {
	Rates core.RateTable `json:"rates"`
}

func (s *Server) handleGetExchangeRates(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("dates")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "dates query parameter is required")
		return
	}

	var dates []string
	for _, d := range strings.Split(raw, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			respondError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		respondError(w, http.StatusBadRequest, "dates query parameter is required")
		return
	}

	respondData(w, http.StatusOK, s.rates.GetBatch(r.Context(), dates))
}

func (s *Server) handleSaveExchangeRates(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var req saveRatesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Rates) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "rates must not be empty")
		return
	}
	for code, rate := range req.Rates {
		if !core.IsCurrency(code) {
			respondError(w, http.StatusUnprocessableEntity, "unsupported currency "+code)
			return
		}
		if rate <= 0 {
			respondError(w, http.StatusUnprocessableEntity, "rate for "+code+" must be positive")
			return
		}
	}

	if err := s.rates.Save(r.Context(), date, req.Rates); err != nil {
		respondInternal(w, r, err, "Save exchange rates failed")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRateUpdate(r.Context(), date, req.Rates); err != nil {
			// Persisted fine; broadcasting is best effort.
			slog.WarnContext(r.Context(), "Rate update broadcast failed", "date", date, "error", err)
		}
	}

	respondData(w, http.StatusOK, map[string]any{"date": date, "rates": req.Rates})
}
