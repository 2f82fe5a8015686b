package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kopilka/internal/core"
)

// GetExchangeRates returns the rate table stored for one ISO date, or
// ErrNotFound when no row exists.
func (r *Repository) GetExchangeRates(ctx context.Context, date string) (core.RateTable, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT rates FROM exchange_rates WHERE date = ?`, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exchange rates: %w", err)
	}

	var table core.RateTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("decode exchange rates for %s: %w", date, err)
	}
	return table, nil
}

// GetExchangeRatesForDates fetches the stored tables for the given dates in
// one query. Dates without a row are simply omitted from the result.
func (r *Repository) GetExchangeRatesForDates(ctx context.Context, dates []string) (map[string]core.RateTable, error) {
	if len(dates) == 0 {
		return map[string]core.RateTable{}, nil
	}

	placeholders := strings.Repeat("?,", len(dates))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(dates))
	for i, d := range dates {
		args[i] = d
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, rates FROM exchange_rates WHERE date IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get exchange rates for dates: %w", err)
	}
	defer rows.Close()

	result := make(map[string]core.RateTable)
	for rows.Next() {
		var date, raw string
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("scan exchange rates row: %w", err)
		}
		var table core.RateTable
		if err := json.Unmarshal([]byte(raw), &table); err != nil {
			return nil, fmt.Errorf("decode exchange rates for %s: %w", date, err)
		}
		result[date] = table
	}
	return result, rows.Err()
}

// SaveExchangeRates upserts the whole rate table for one date: the row is
// created if absent and the rates JSON fully replaced if present.
func (r *Repository) SaveExchangeRates(ctx context.Context, date string, table core.RateTable) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode exchange rates: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (date, rates) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET rates = excluded.rates`,
		date, string(raw))
	if err != nil {
		return fmt.Errorf("save exchange rates: %w", err)
	}
	return nil
}
