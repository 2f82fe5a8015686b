// Package rates serves exchange-rate tables by date with an in-process
// cache in front of the SQLite store, and converts amounts to and from USD.
package rates

import (
	"context"
	"log/slog"

	"kopilka/internal/cache"
	"kopilka/internal/core"
)

// Repository is the backing-store surface the rate store needs.
type Repository interface {
	GetExchangeRates(ctx context.Context, date string) (core.RateTable, error)
	GetExchangeRatesForDates(ctx context.Context, dates []string) (map[string]core.RateTable, error)
	SaveExchangeRates(ctx context.Context, date string, table core.RateTable) error
}

// Store caches rate tables by ISO date string. The cache is injected by the
// owner rather than held as package state, so tests isolate their entries
// and production bounds memory.
type Store struct {
	repo  Repository
	cache cache.Cache[core.RateTable]
}

func NewStore(repo Repository, c cache.Cache[core.RateTable]) *Store {
	return &Store{repo: repo, cache: c}
}

// Get returns the rate table for one date, serving from cache when present
// and populating the cache on a store hit. A missing row or a failing
// backing store both report absence: rate lookups never fail the caller.
func (s *Store) Get(ctx context.Context, date string) (core.RateTable, bool) {
	if table, ok := s.cache.Get(date); ok {
		return table, true
	}

	table, err := s.repo.GetExchangeRates(ctx, date)
	if err != nil {
		return nil, false
	}

	s.cache.Set(date, table)
	return table, true
}

// GetBatch resolves many dates at once: cached dates from memory, the rest
// in a single backing-store query. Absent dates are omitted from the result.
func (s *Store) GetBatch(ctx context.Context, dates []string) map[string]core.RateTable {
	result := make(map[string]core.RateTable, len(dates))
	var missing []string
	for _, date := range dates {
		if table, ok := s.cache.Get(date); ok {
			result[date] = table
		} else {
			missing = append(missing, date)
		}
	}

	if len(missing) == 0 {
		return result
	}

	fetched, err := s.repo.GetExchangeRatesForDates(ctx, missing)
	if err != nil {
		slog.WarnContext(ctx, "Exchange rate batch lookup failed", "error", err, "dates", len(missing))
		return result
	}
	for date, table := range fetched {
		s.cache.Set(date, table)
		result[date] = table
	}
	return result
}

// Save upserts the table for one date and always refreshes the cache entry,
// so a read immediately after a save never round-trips to the store.
func (s *Store) Save(ctx context.Context, date string, table core.RateTable) error {
	if err := s.repo.SaveExchangeRates(ctx, date, table); err != nil {
		return err
	}
	s.cache.Set(date, table)
	return nil
}

// ClearCache drops all cached entries. The backing store is untouched.
func (s *Store) ClearCache() {
	s.cache.Clear()
}
