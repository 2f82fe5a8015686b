package http

import (
	"context"
	"net/http"

	"kopilka/internal/core"
)

// entryKind binds a URL segment to the matching repository methods so
// income and expense endpoints share one handler set.
type entryKind struct {
	create func(context.Context, core.Entry) (core.Entry, error)
	get    func(context.Context, string) (core.Entry, error)
	update func(context.Context, core.Entry) (core.Entry, error)
	delete func(context.Context, string) error
}

func (s *Server) incomeKind() entryKind {
	return entryKind{
		create: s.repo.CreateIncomeEntry,
		get:    s.repo.GetIncomeEntry,
		update: s.repo.UpdateIncomeEntry,
		delete: s.repo.DeleteIncomeEntry,
	}
}

func (s *Server) expenseKind() entryKind {
	return entryKind{
		create: s.repo.CreateExpenseEntry,
		get:    s.repo.GetExpenseEntry,
		update: s.repo.UpdateExpenseEntry,
		delete: s.repo.DeleteExpenseEntry,
	}
}

type entryRequest struct {
	UserMonthID string  `json:"userMonthId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
}

func (s *Server) handleCreateIncomeEntry(w http.ResponseWriter, r *http.Request) {
	s.createEntry(w, r, s.incomeKind())
}

func (s *Server) handleCreateExpenseEntry(w http.ResponseWriter, r *http.Request) {
	s.createEntry(w, r, s.expenseKind())
}

func (s *Server) handleUpdateIncomeEntry(w http.ResponseWriter, r *http.Request) {
	s.updateEntry(w, r, s.incomeKind())
}

func (s *Server) handleUpdateExpenseEntry(w http.ResponseWriter, r *http.Request) {
	s.updateEntry(w, r, s.expenseKind())
}

func (s *Server) handleDeleteIncomeEntry(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, s.incomeKind())
}

func (s *Server) handleDeleteExpenseEntry(w http.ResponseWriter, r *http.Request) {
	s.deleteEntry(w, r, s.expenseKind())
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, kind entryKind) {
	var req entryRequest
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

	entry := core.Entry{
		UserMonthID: req.UserMonthID,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Currency:    core.NormalizeCurrency(req.Currency),
		Date:        req.Date,
	}
	if err := entry.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := kind.create(r.Context(), entry)
	if err != nil {
		respondInternal(w, r, err, "Create entry failed")
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request, kind entryKind) {
	id := r.PathValue("id")
	existing, err := kind.get(r.Context(), id)
	if err != nil {
		respondStorageError(w, r, err, "Load entry failed")
		return
	}
	if err := s.checkMonthOwnership(r.Context(), w, r, existing.UserMonthID); err != nil {
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	// Entries never move between months; the stored month wins.
	existing.Description = sanitizeInput(req.Description)
	existing.Amount = req.Amount
	existing.Currency = core.NormalizeCurrency(req.Currency)
	existing.Date = req.Date
	if err := existing.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := kind.update(r.Context(), existing)
	if err != nil {
		respondInternal(w, r, err, "Update entry failed")
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, kind entryKind) {
	id := r.PathValue("id")
	existing, err := kind.get(r.Context(), id)
	if err != nil {
		respondStorageError(w, r, err, "Load entry failed")
		return
	}
	if err := s.checkMonthOwnership(r.Context(), w, r, existing.UserMonthID); err != nil {
		return
	}

	if err := kind.delete(r.Context(), id); err != nil {
		respondInternal(w, r, err, "Delete entry failed")
		return
	}
	respondData(w, http.StatusOK, map[string]any{"success": true})
}
