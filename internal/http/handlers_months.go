package http

import (
	"net/http"
	"strconv"

	"kopilka/internal/core"
)

type createUserMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *Server) handleCreateUserMonth(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req createUserMonthRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !core.ValidMonth(req.Month) {
		respondError(w, http.StatusBadRequest, "month must be between 0 and 11")
		return
	}
	if req.Year < 1970 || req.Year > 9999 {
		respondError(w, http.StatusBadRequest, "year out of range")
		return
	}

	um, err := s.repo.CreateUserMonth(r.Context(), user.ID, req.Year, req.Month)
	if err != nil {
		respondInternal(w, r, err, "Create user month failed")
		return
	}
	respondData(w, http.StatusCreated, map[string]any{"userMonth": um})
}

func (s *Server) handleMonthData(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || !core.ValidMonth(month) {
		respondError(w, http.StatusBadRequest, "month must be between 0 and 11")
		return
	}

	// The legacy scenario with a computed start balance stays reachable
	// behind a query flag while the client migration is unfinished.
	var details core.MonthDetails
	if r.URL.Query().Get("startBalance") == "1" {
		details, err = s.budget.MonthDataWithStartBalance(r.Context(), user.ID, year, month)
	} else {
		details, err = s.budget.MonthData(r.Context(), user.ID, year, month)
	}
	if err != nil {
		respondInternal(w, r, err, "Month aggregation failed")
		return
	}
	respondData(w, http.StatusOK, details)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	summaries, err := s.budget.UserMonthsData(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, r, err, "Timeline aggregation failed")
		return
	}

	// Ship each month's rate table alongside so the client can convert
	// into the user's display currency without extra round trips.
	dates := make([]string, 0, len(summaries))
	for _, m := range summaries {
		dates = append(dates, core.RateDate(m.Year, m.Month))
	}
	tables := s.rates.GetBatch(r.Context(), dates)

	respondData(w, http.StatusOK, map[string]any{
		"monthsData":    summaries,
		"exchangeRates": tables,
	})
}
