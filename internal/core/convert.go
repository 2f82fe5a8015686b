// Package core holds the budget domain types and the pure currency
// conversion helpers shared by the rate store and the HTTP layer.
package core

import "math"

// ConvertDirect converts an amount between two arbitrary supported
// currencies using a caller-supplied rate table, going through USD as the
// intermediate. A missing rate falls back to 1 (identity against USD), so
// the call never fails. The result is rounded to 2 decimal places.
func ConvertDirect(amount float64, from, to Currency, rates RateTable) float64 {
	if from == to {
		return amount
	}

	fromRate := 1.0
	if from != USD {
		if r, ok := rates[string(from)]; ok && r > 0 {
			fromRate = r
		}
	}
	toRate := 1.0
	if to != USD {
		if r, ok := rates[string(to)]; ok && r > 0 {
			toRate = r
		}
	}

	usd := amount / fromRate
	return math.Round(usd*toRate*100) / 100
}

// MonthSummary is a single month's aggregated view: totals in USD plus the
// balance sources that back the month. UserMonthID is empty for synthesized
// placeholder months that were never persisted.
type MonthSummary struct {
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	BalanceSources []BalanceSource `json:"balanceSources"`
	BalanceChange  float64         `json:"balanceChange"`
	PocketExpenses float64         `json:"pocketExpenses"`
	Income         float64         `json:"income"`
	Expenses       float64         `json:"expenses"`
	UserMonthID    string          `json:"userMonthId"`
}

// MonthDetails extends MonthSummary with the raw entry lists behind the
// totals. StartBalance is only populated by the legacy aggregation path.
type MonthDetails struct {
	MonthSummary
	IncomeEntries  []Entry `json:"incomeEntries"`
	ExpenseEntries []Entry `json:"expenseEntries"`
	StartBalance   float64 `json:"startBalance,omitempty"`
}
