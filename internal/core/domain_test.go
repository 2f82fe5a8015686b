package core

import (
	"errors"
	"testing"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Currency
	}{
		{name: "known code passes through", code: "GEL", want: GEL},
		{name: "usd stays usd", code: "USD", want: USD},
		{name: "unknown code falls back to usd", code: "EUR", want: USD},
		{name: "lowercase is not recognized", code: "rub", want: USD},
		{name: "empty string falls back to usd", code: "", want: USD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCurrency(tt.code); got != tt.want {
				t.Errorf("NormalizeCurrency(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsCurrency(t *testing.T) {
	for _, c := range Currencies() {
		if !IsCurrency(string(c)) {
			t.Errorf("IsCurrency(%q) = false, want true", c)
		}
	}
	if IsCurrency("BTC") {
		t.Error("IsCurrency(\"BTC\") = true, want false")
	}
}

func TestRateDate(t *testing.T) {
	tests := []struct {
		year  int
		month int
		want  string
	}{
		{2025, 0, "2025-01-01"},
		{2025, 4, "2025-05-01"},
		{2025, 11, "2025-12-01"},
		{2024, 1, "2024-02-01"},
	}

	for _, tt := range tests {
		if got := RateDate(tt.year, tt.month); got != tt.want {
			t.Errorf("RateDate(%d, %d) = %q, want %q", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestValidMonth(t *testing.T) {
	for m := 0; m <= 11; m++ {
		if !ValidMonth(m) {
			t.Errorf("ValidMonth(%d) = false, want true", m)
		}
	}
	for _, m := range []int{-1, 12, 100} {
		if ValidMonth(m) {
			t.Errorf("ValidMonth(%d) = true, want false", m)
		}
	}
}

func TestBalanceSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  BalanceSource
		wantErr error
	}{
		{
			name:   "valid source",
			source: BalanceSource{Name: "Cash", Currency: USD, Amount: 100},
		},
		{
			name:   "zero amount is allowed",
			source: BalanceSource{Name: "Empty account", Currency: GEL, Amount: 0},
		},
		{
			name:    "blank name",
			source:  BalanceSource{Name: "   ", Amount: 10},
			wantErr: ErrEmptyName,
		},
		{
			name:    "negative amount",
			source:  BalanceSource{Name: "Cash", Amount: -5},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntryValidate(t *testing.T) {
	valid := Entry{Description: "Salary", Amount: 3000, Currency: USD, Date: "2025-05-05"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name    string
		mutate  func(Entry) Entry
		wantErr error
	}{
		{
			name:    "blank description",
			mutate:  func(e Entry) Entry { e.Description = " "; return e },
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "zero amount",
			mutate:  func(e Entry) Entry { e.Amount = 0; return e },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(e Entry) Entry { e.Amount = -10; return e },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "malformed date",
			mutate:  func(e Entry) Entry { e.Date = "05/05/2025"; return e },
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mutate(valid).Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
