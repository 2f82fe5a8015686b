// Package budget aggregates a user's month: it lazily creates the user
// month row, loads its balance sources and entries concurrently, converts
// every movement to USD with the month's first-of-month rate table and sums
// the totals.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kopilka/internal/core"
	"kopilka/internal/rates"
	"kopilka/internal/storage"
)

// monthConcurrency bounds how many months aggregate at once in a timeline
// request. Each month issues up to three storage queries of its own.
const monthConcurrency = 4

// Storage is the persistence surface the aggregation needs.
type Storage interface {
	CreateUserMonth(ctx context.Context, userID string, year, month int) (core.UserMonth, error)
	GetUserMonth(ctx context.Context, userID string, year, month int) (core.UserMonth, error)
	ListUserMonths(ctx context.Context, userID string) ([]core.UserMonth, error)
	ListBalanceSources(ctx context.Context, userMonthID string) ([]core.BalanceSource, error)
	ListIncomeEntries(ctx context.Context, userMonthID string) ([]core.Entry, error)
	ListExpenseEntries(ctx context.Context, userMonthID string) ([]core.Entry, error)
}

// Converter converts amounts into USD for a given rate date.
type Converter interface {
	ToUSD(ctx context.Context, amount float64, from core.Currency, date string) rates.Conversion
}

type Service struct {
	store Storage
	conv  Converter
	now   func() time.Time
}

func NewService(store Storage, conv Converter) *Service {
	return &Service{store: store, conv: conv, now: time.Now}
}

// MonthData returns the full snapshot for one user month, creating the row
// on first access. A lost creation race is treated as "already exists".
// Month is zero-based.
func (s *Service) MonthData(ctx context.Context, userID string, year, month int) (core.MonthDetails, error) {
	if !core.ValidMonth(month) {
		return core.MonthDetails{}, core.ErrInvalidMonth
	}

	um, err := s.getOrCreateMonth(ctx, userID, year, month)
	if err != nil {
		return core.MonthDetails{}, err
	}

	sources, incomes, expenses, err := s.loadMonthRows(ctx, um.ID)
	if err != nil {
		return core.MonthDetails{}, err
	}

	rateDate := core.RateDate(year, month)
	incomeUSD := s.sumInUSD(ctx, incomes, rateDate)
	expensesUSD := s.sumInUSD(ctx, expenses, rateDate)

	// Empty months serialize as [] rather than null, same as placeholders.
	if sources == nil {
		sources = []core.BalanceSource{}
	}
	if incomes == nil {
		incomes = []core.Entry{}
	}
	if expenses == nil {
		expenses = []core.Entry{}
	}

	return core.MonthDetails{
		MonthSummary: core.MonthSummary{
			Month:          month,
			Year:           year,
			BalanceSources: sources,
			BalanceChange:  incomeUSD - expensesUSD,
			PocketExpenses: 0, // computed in the presentation layer
			Income:         incomeUSD,
			Expenses:       expensesUSD,
			UserMonthID:    um.ID,
		},
		IncomeEntries:  incomes,
		ExpenseEntries: expenses,
	}, nil
}

// MonthDataWithStartBalance is the legacy aggregation scenario: it also
// sums the month's balance sources in USD as a starting balance and derives
// a discretionary "pocket" bucket from the drift against the next month's
// starting balance, when that month exists.
func (s *Service) MonthDataWithStartBalance(ctx context.Context, userID string, year, month int) (core.MonthDetails, error) {
	details, err := s.MonthData(ctx, userID, year, month)
	if err != nil {
		return core.MonthDetails{}, err
	}

	rateDate := core.RateDate(year, month)
	start := 0.0
	for _, src := range details.BalanceSources {
		start += s.conv.ToUSD(ctx, src.Amount, src.Currency, rateDate).Amount
	}
	details.StartBalance = start

	nextYear, nextMonth := year, month+1
	if nextMonth > 11 {
		nextYear, nextMonth = year+1, 0
	}
	next, err := s.store.GetUserMonth(ctx, userID, nextYear, nextMonth)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return details, nil
		}
		return core.MonthDetails{}, fmt.Errorf("load next month: %w", err)
	}

	nextSources, err := s.store.ListBalanceSources(ctx, next.ID)
	if err != nil {
		return core.MonthDetails{}, fmt.Errorf("load next month sources: %w", err)
	}
	nextStart := 0.0
	nextRateDate := core.RateDate(nextYear, nextMonth)
	for _, src := range nextSources {
		nextStart += s.conv.ToUSD(ctx, src.Amount, src.Currency, nextRateDate).Amount
	}

	// Money that left the accounts beyond the recorded major expenses.
	pocket := start + details.Income - details.Expenses - nextStart
	if pocket < 0 {
		pocket = 0
	}
	details.PocketExpenses = pocket
	return details, nil
}

// UserMonthsData returns the timeline view: one summary per persisted month,
// newest first. A user with no months at all gets 12 synthesized placeholder
// months (the current one and the 11 before it) with zero totals and no
// persisted ID, so a client always has a window to render.
func (s *Service) UserMonthsData(ctx context.Context, userID string) ([]core.MonthSummary, error) {
	months, err := s.store.ListUserMonths(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user months: %w", err)
	}

	if len(months) == 0 {
		return s.placeholderMonths(), nil
	}

	summaries := make([]core.MonthSummary, len(months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(monthConcurrency)
	for i, um := range months {
		g.Go(func() error {
			details, err := s.MonthData(gctx, userID, um.Year, um.Month)
			if err != nil {
				return err
			}
			summaries[i] = details.MonthSummary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Service) getOrCreateMonth(ctx context.Context, userID string, year, month int) (core.UserMonth, error) {
	um, err := s.store.GetUserMonth(ctx, userID, year, month)
	if err == nil {
		return um, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.UserMonth{}, fmt.Errorf("get user month: %w", err)
	}
	um, err = s.store.CreateUserMonth(ctx, userID, year, month)
	if err != nil {
		return core.UserMonth{}, fmt.Errorf("create user month: %w", err)
	}
	return um, nil
}

// loadMonthRows fetches the three entry kinds concurrently. The fetches have
// no required relative order; results are consumed only after all complete.
func (s *Service) loadMonthRows(ctx context.Context, userMonthID string) ([]core.BalanceSource, []core.Entry, []core.Entry, error) {
	var (
		sources  []core.BalanceSource
		incomes  []core.Entry
		expenses []core.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sources, err = s.store.ListBalanceSources(gctx, userMonthID)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListIncomeEntries(gctx, userMonthID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenseEntries(gctx, userMonthID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("load month rows: %w", err)
	}
	return sources, incomes, expenses, nil
}

// sumInUSD folds the entries into a USD total. Unconvertible amounts pass
// through unchanged per the rate store's degrade-to-identity policy.
func (s *Service) sumInUSD(ctx context.Context, entries []core.Entry, rateDate string) float64 {
	total := 0.0
	for _, e := range entries {
		total += s.conv.ToUSD(ctx, e.Amount, e.Currency, rateDate).Amount
	}
	return total
}

func (s *Service) placeholderMonths() []core.MonthSummary {
	now := s.now()
	summaries := make([]core.MonthSummary, 12)
	for i := range summaries {
		// Normalizes across year boundaries, e.g. Jan minus one month is
		// December of the previous year.
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		summaries[i] = core.MonthSummary{
			Month:          int(d.Month()) - 1,
			Year:           d.Year(),
			BalanceSources: []core.BalanceSource{},
			UserMonthID:    "",
		}
	}
	return summaries
}
