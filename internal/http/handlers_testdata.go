package http

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"kopilka/internal/core"
)

// testRates is a fixed snapshot used for seeded months so demo numbers
// stay in a believable range.
var testRates = core.RateTable{
	"USD": 1,
	"RUB": 95.5,
	"GEL": 2.7,
	"TRY": 34.2,
	"THB": 36.8,
	"INR": 83.4,
}

const (
	seededRateMonths   = 6
	seededDataMonths   = 3
	seedEntryDayLayout = "%d-%02d-%02d"
)

// handleCreateTestData seeds the session user with a few months of demo
// rates, balance sources and entries so a fresh account has something to
// look at. Safe to call repeatedly; months are get-or-create and months
// that already hold balance sources are left untouched.
func (s *Server) handleCreateTestData(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	now := time.Now()

	for i := 0; i < seededRateMonths; i++ {
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		if err := s.rates.Save(r.Context(), d.Format("2006-01-02"), testRates); err != nil {
			respondInternal(w, r, err, "Seed exchange rates failed")
			return
		}
	}

	months := make([]core.UserMonth, seededDataMonths)
	for i := 0; i < seededDataMonths; i++ {
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		um, err := s.repo.CreateUserMonth(r.Context(), user.ID, d.Year(), int(d.Month())-1)
		if err != nil {
			respondInternal(w, r, err, "Seed user month failed")
			return
		}
		months[i] = um
	}

	g, ctx := errgroup.WithContext(r.Context())
	for _, um := range months {
		g.Go(func() error { return s.seedMonth(ctx, um) })
	}
	if err := g.Wait(); err != nil {
		respondInternal(w, r, err, "Seed month data failed")
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("created test data for %d months", len(months)),
		"months":  months,
	})
}

func (s *Server) seedMonth(ctx context.Context, um core.UserMonth) error {
	existing, err := s.repo.ListBalanceSources(ctx, um.ID)
	if err != nil {
		return fmt.Errorf("check seeded month: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	sources := []core.BalanceSource{
		{UserMonthID: um.ID, Name: "Cash", Currency: core.USD, Amount: jitter(500, 1000)},
		{UserMonthID: um.ID, Name: "TBC Bank", Currency: core.GEL, Amount: jitter(2000, 3000)},
		{UserMonthID: um.ID, Name: "Sberbank", Currency: core.RUB, Amount: jitter(50000, 100000)},
	}
	for _, src := range sources {
		if _, err := s.repo.CreateBalanceSource(ctx, src); err != nil {
			return fmt.Errorf("seed balance source: %w", err)
		}
	}

	incomes := []core.Entry{
		{UserMonthID: um.ID, Description: "Salary", Currency: core.USD, Amount: jitter(3000, 2000), Date: seedDate(um, 5)},
		{UserMonthID: um.ID, Description: "Freelance", Currency: core.USD, Amount: jitter(500, 1000), Date: seedDate(um, 15)},
	}
	for _, e := range incomes {
		if _, err := s.repo.CreateIncomeEntry(ctx, e); err != nil {
			return fmt.Errorf("seed income entry: %w", err)
		}
	}

	expenses := []core.Entry{
		{UserMonthID: um.ID, Description: "Rent", Currency: core.USD, Amount: jitter(800, 400), Date: seedDate(um, 1)},
		{UserMonthID: um.ID, Description: "Utilities", Currency: core.USD, Amount: jitter(150, 100), Date: seedDate(um, 10)},
		{UserMonthID: um.ID, Description: "Groceries", Currency: core.USD, Amount: jitter(300, 200), Date: seedDate(um, 7)},
		{UserMonthID: um.ID, Description: "Transport", Currency: core.USD, Amount: jitter(80, 50), Date: seedDate(um, 12)},
		{UserMonthID: um.ID, Description: "Entertainment", Currency: core.USD, Amount: jitter(100, 150), Date: seedDate(um, 20)},
	}
	for _, e := range expenses {
		if _, err := s.repo.CreateExpenseEntry(ctx, e); err != nil {
			return fmt.Errorf("seed expense entry: %w", err)
		}
	}
	return nil
}

func seedDate(um core.UserMonth, day int) string {
	return fmt.Sprintf(seedEntryDayLayout, um.Year, um.Month+1, day)
}

func jitter(base, spread float64) float64 {
	return base + rand.Float64()*spread
}
