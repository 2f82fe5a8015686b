package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

// Income and expense entries share a shape; the table name is the only
// difference, so the helpers below are parameterized by it. The two tables
// are kept separate to match the persisted schema, not merged behind a
// kind column.
const (
	tableIncome  = "income_entries"
	tableExpense = "expense_entries"
)

func (r *Repository) CreateIncomeEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	return r.createEntry(ctx, tableIncome, e)
}

func (r *Repository) CreateExpenseEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	return r.createEntry(ctx, tableExpense, e)
}

func (r *Repository) GetIncomeEntry(ctx context.Context, id string) (core.Entry, error) {
	return r.getEntry(ctx, tableIncome, id)
}

func (r *Repository) GetExpenseEntry(ctx context.Context, id string) (core.Entry, error) {
	return r.getEntry(ctx, tableExpense, id)
}

func (r *Repository) ListIncomeEntries(ctx context.Context, userMonthID string) ([]core.Entry, error) {
	return r.listEntries(ctx, tableIncome, userMonthID)
}

func (r *Repository) ListExpenseEntries(ctx context.Context, userMonthID string) ([]core.Entry, error) {
	return r.listEntries(ctx, tableExpense, userMonthID)
}

func (r *Repository) UpdateIncomeEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	return r.updateEntry(ctx, tableIncome, e)
}

func (r *Repository) UpdateExpenseEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	return r.updateEntry(ctx, tableExpense, e)
}

func (r *Repository) DeleteIncomeEntry(ctx context.Context, id string) error {
	return r.deleteEntry(ctx, tableIncome, id)
}

func (r *Repository) DeleteExpenseEntry(ctx context.Context, id string) error {
	return r.deleteEntry(ctx, tableExpense, id)
}

func (r *Repository) createEntry(ctx context.Context, table string, e core.Entry) (core.Entry, error) {
	now := time.Now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_month_id, description, amount, currency, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserMonthID, e.Description, e.Amount, string(e.Currency), e.Date, now.Unix(), now.Unix())
	if err != nil {
		return core.Entry{}, fmt.Errorf("create %s entry: %w", table, err)
	}
	return e, nil
}

func (r *Repository) getEntry(ctx context.Context, table, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_month_id, description, amount, currency, date, created_at, updated_at
		 FROM `+table+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return core.Entry{}, ErrNotFound
		}
		return core.Entry{}, fmt.Errorf("get %s entry: %w", table, err)
	}
	return e, nil
}

func (r *Repository) listEntries(ctx context.Context, table, userMonthID string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_month_id, description, amount, currency, date, created_at, updated_at
		 FROM `+table+` WHERE user_month_id = ?`, userMonthID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", table, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) updateEntry(ctx context.Context, table string, e core.Entry) (core.Entry, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET description = ?, amount = ?, currency = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		e.Description, e.Amount, string(e.Currency), e.Date, now.Unix(), e.ID)
	if err != nil {
		return core.Entry{}, fmt.Errorf("update %s entry: %w", table, err)
	}
	return r.getEntry(ctx, table, e.ID)
}

func (r *Repository) deleteEntry(ctx context.Context, table, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s entry: %w", table, err)
	}
	return nil
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e        core.Entry
		currency string
		created  int64
		updated  int64
	)
	err := row.Scan(&e.ID, &e.UserMonthID, &e.Description, &e.Amount, &currency, &e.Date, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, err
	}
	e.Currency = core.NormalizeCurrency(currency)
	e.CreatedAt = time.Unix(created, 0)
	e.UpdatedAt = time.Unix(updated, 0)
	return e, nil
}
