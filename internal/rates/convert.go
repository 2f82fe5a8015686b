package rates

import (
	"context"

	"kopilka/internal/core"
)

// Reason explains a conversion outcome. The amount alone cannot distinguish
// "already USD" from "rate table missing", so callers that need strict
// accuracy inspect the reason instead of a second error channel.
type Reason string

const (
	ReasonAlreadyUSD   Reason = "already-usd"
	ReasonConverted    Reason = "converted"
	ReasonMissingTable Reason = "missing-table"
	ReasonMissingRate  Reason = "missing-rate"
)

// Conversion carries the resulting amount and whether a rate was applied.
// On any missing rate the amount passes through unchanged; conversion never
// raises an error.
type Conversion struct {
	Amount    float64
	Converted bool
	Reason    Reason
}

// ToUSD converts amount from the given currency into USD using the rate
// table stored for date. Rates are units of currency per 1 USD, so the
// conversion divides by the rate.
func (s *Store) ToUSD(ctx context.Context, amount float64, from core.Currency, date string) Conversion {
	if from == core.USD {
		return Conversion{Amount: amount, Converted: true, Reason: ReasonAlreadyUSD}
	}

	table, ok := s.Get(ctx, date)
	if !ok {
		return Conversion{Amount: amount, Reason: ReasonMissingTable}
	}
	rate, ok := table[string(from)]
	if !ok || rate <= 0 {
		return Conversion{Amount: amount, Reason: ReasonMissingRate}
	}
	return Conversion{Amount: amount / rate, Converted: true, Reason: ReasonConverted}
}

// FromUSD is the symmetric operation: multiply by the target's rate.
func (s *Store) FromUSD(ctx context.Context, amount float64, to core.Currency, date string) Conversion {
	if to == core.USD {
		return Conversion{Amount: amount, Converted: true, Reason: ReasonAlreadyUSD}
	}

	table, ok := s.Get(ctx, date)
	if !ok {
		return Conversion{Amount: amount, Reason: ReasonMissingTable}
	}
	rate, ok := table[string(to)]
	if !ok || rate <= 0 {
		return Conversion{Amount: amount, Reason: ReasonMissingRate}
	}
	return Conversion{Amount: amount * rate, Converted: true, Reason: ReasonConverted}
}
