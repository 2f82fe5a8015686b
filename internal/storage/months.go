package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

// CreateUserMonth inserts the (userID, year, month) row, treating a unique
// constraint violation as "already exists": the racing insert loses and the
// existing row is re-fetched instead of surfacing an error.
func (r *Repository) CreateUserMonth(ctx context.Context, userID string, year, month int) (core.UserMonth, error) {
	now := time.Now()
	um := core.UserMonth{
		ID:        uuid.NewString(),
		UserID:    userID,
		Year:      year,
		Month:     month,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_months (id, user_id, year, month, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		um.ID, um.UserID, um.Year, um.Month, now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			slog.DebugContext(ctx, "User month already exists, re-fetching",
				"user_id", userID, "year", year, "month", month)
			return r.GetUserMonth(ctx, userID, year, month)
		}
		return core.UserMonth{}, fmt.Errorf("create user month: %w", err)
	}
	return um, nil
}

func (r *Repository) GetUserMonth(ctx context.Context, userID string, year, month int) (core.UserMonth, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, year, month, created_at, updated_at
		 FROM user_months WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month)
	return scanUserMonth(row)
}

func (r *Repository) GetUserMonthByID(ctx context.Context, id string) (core.UserMonth, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, year, month, created_at, updated_at
		 FROM user_months WHERE id = ?`, id)
	return scanUserMonth(row)
}

// ListUserMonths returns all of the user's months, newest first.
func (r *Repository) ListUserMonths(ctx context.Context, userID string) ([]core.UserMonth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, year, month, created_at, updated_at
		 FROM user_months WHERE user_id = ? ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user months: %w", err)
	}
	defer rows.Close()

	var months []core.UserMonth
	for rows.Next() {
		um, err := scanUserMonth(rows)
		if err != nil {
			return nil, err
		}
		months = append(months, um)
	}
	return months, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserMonth(row rowScanner) (core.UserMonth, error) {
	var (
		um      core.UserMonth
		created int64
		updated int64
	)
	err := row.Scan(&um.ID, &um.UserID, &um.Year, &um.Month, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserMonth{}, ErrNotFound
	}
	if err != nil {
		return core.UserMonth{}, fmt.Errorf("scan user month: %w", err)
	}
	um.CreatedAt = time.Unix(created, 0)
	um.UpdatedAt = time.Unix(updated, 0)
	return um, nil
}

func (r *Repository) CreateBalanceSource(ctx context.Context, s core.BalanceSource) (core.BalanceSource, error) {
	now := time.Now()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO balance_sources (id, user_month_id, name, currency, amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserMonthID, s.Name, string(s.Currency), s.Amount, now.Unix(), now.Unix())
	if err != nil {
		return core.BalanceSource{}, fmt.Errorf("create balance source: %w", err)
	}
	return s, nil
}

func (r *Repository) GetBalanceSource(ctx context.Context, id string) (core.BalanceSource, error) {
	var (
		s        core.BalanceSource
		currency string
		created  int64
		updated  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_month_id, name, currency, amount, created_at, updated_at
		 FROM balance_sources WHERE id = ?`, id).
		Scan(&s.ID, &s.UserMonthID, &s.Name, &currency, &s.Amount, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BalanceSource{}, ErrNotFound
	}
	if err != nil {
		return core.BalanceSource{}, fmt.Errorf("get balance source: %w", err)
	}
	s.Currency = core.NormalizeCurrency(currency)
	s.CreatedAt = time.Unix(created, 0)
	s.UpdatedAt = time.Unix(updated, 0)
	return s, nil
}

func (r *Repository) ListBalanceSources(ctx context.Context, userMonthID string) ([]core.BalanceSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_month_id, name, currency, amount, created_at, updated_at
		 FROM balance_sources WHERE user_month_id = ?`, userMonthID)
	if err != nil {
		return nil, fmt.Errorf("list balance sources: %w", err)
	}
	defer rows.Close()

	var sources []core.BalanceSource
	for rows.Next() {
		var (
			s        core.BalanceSource
			currency string
			created  int64
			updated  int64
		)
		if err := rows.Scan(&s.ID, &s.UserMonthID, &s.Name, &currency, &s.Amount, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan balance source: %w", err)
		}
		s.Currency = core.NormalizeCurrency(currency)
		s.CreatedAt = time.Unix(created, 0)
		s.UpdatedAt = time.Unix(updated, 0)
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *Repository) UpdateBalanceSource(ctx context.Context, s core.BalanceSource) (core.BalanceSource, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE balance_sources SET name = ?, currency = ?, amount = ?, user_month_id = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name, string(s.Currency), s.Amount, s.UserMonthID, now.Unix(), s.ID)
	if err != nil {
		return core.BalanceSource{}, fmt.Errorf("update balance source: %w", err)
	}
	return r.GetBalanceSource(ctx, s.ID)
}

func (r *Repository) DeleteBalanceSource(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM balance_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete balance source: %w", err)
	}
	return nil
}

// SaveBalanceSources upserts the supplied sources for one user month:
// a source with a known ID is updated in place, a source with an unknown or
// empty ID is created. Returns the saved rows.
func (r *Repository) SaveBalanceSources(ctx context.Context, userMonthID string, sources []core.BalanceSource) ([]core.BalanceSource, error) {
	saved := make([]core.BalanceSource, 0, len(sources))
	for _, s := range sources {
		s.UserMonthID = userMonthID
		if s.ID != "" {
			if _, err := r.GetBalanceSource(ctx, s.ID); err == nil {
				updated, err := r.UpdateBalanceSource(ctx, s)
				if err != nil {
					return nil, err
				}
				saved = append(saved, updated)
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		created, err := r.CreateBalanceSource(ctx, s)
		if err != nil {
			return nil, err
		}
		saved = append(saved, created)
	}
	return saved, nil
}
