package core

import (
	"errors"
	"strings"
	"time"
)

const (
	USD Currency = "USD"
	RUB Currency = "RUB"
	GEL Currency = "GEL"
	TRY Currency = "TRY"
	THB Currency = "THB"
	INR Currency = "INR"
)

// BaseCurrency is the internal computation currency. User settings only
// change what the client displays, never what is stored or summed.
const BaseCurrency = USD

type (
	// Currency is one of the fixed supported currency codes.
	Currency string

	// RateTable maps a currency code to its price in units per 1 USD,
	// valid for one calendar date (first-of-month convention).
	RateTable map[string]float64

	// UserMonth is the per-user, per-calendar-month aggregation root.
	// Month is zero-based: January = 0, December = 11.
	UserMonth struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Year      int       `json:"year"`
		Month     int       `json:"month"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// BalanceSource is a named pool of money attached to a user month.
	BalanceSource struct {
		ID          string    `json:"id"`
		UserMonthID string    `json:"userMonthId"`
		Name        string    `json:"name"`
		Currency    Currency  `json:"currency"`
		Amount      float64   `json:"amount"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Entry is a dated, described monetary movement. Income and expense
	// entries share the same shape and live in separate tables.
	Entry struct {
		ID          string    `json:"id"`
		UserMonthID string    `json:"userMonthId"`
		Description string    `json:"description"`
		Amount      float64   `json:"amount"`
		Currency    Currency  `json:"currency"`
		Date        string    `json:"date"` // YYYY-MM-DD
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// UserSettings holds a user's preferred display currency.
	UserSettings struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		BaseCurrency Currency  `json:"baseCurrency"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// User is an account row. PasswordHash is a bcrypt hash.
	User struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		PasswordHash string `json:"-"`
	}

	// Session is a server-side session row. ID is the SHA-256 of the
	// opaque token handed to the client.
	Session struct {
		ID        string
		UserID    string
		ExpiresAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

var currencies = []Currency{USD, RUB, GEL, TRY, THB, INR}

// Currencies returns the supported currency codes in display order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// IsCurrency reports whether code is one of the supported currencies.
func IsCurrency(code string) bool {
	for _, c := range currencies {
		if string(c) == code {
			return true
		}
	}
	return false
}

// NormalizeCurrency maps an arbitrary stored code to a supported currency.
// Unknown codes normalize silently to USD.
func NormalizeCurrency(code string) Currency {
	if IsCurrency(code) {
		return Currency(code)
	}
	return USD
}

// RateDate formats the first-of-month rate lookup date for a zero-based
// month, e.g. (2025, 4) -> "2025-05-01".
func RateDate(year, month int) string {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// ValidMonth reports whether month is a zero-based calendar month.
func ValidMonth(month int) bool {
	return month >= 0 && month <= 11
}

func (s BalanceSource) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if s.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
