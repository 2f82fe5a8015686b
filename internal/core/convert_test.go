package core

import "testing"

func TestConvertDirect(t *testing.T) {
	rates := RateTable{
		"USD": 1,
		"RUB": 95.5,
		"GEL": 2.7,
	}

	tests := []struct {
		name   string
		amount float64
		from   Currency
		to     Currency
		want   float64
	}{
		{name: "same currency is identity", amount: 123.456, from: GEL, to: GEL, want: 123.456},
		{name: "usd to rub", amount: 10, from: USD, to: RUB, want: 955},
		{name: "rub to usd", amount: 955, from: RUB, to: USD, want: 10},
		{name: "cross currency goes through usd", amount: 95.5, from: RUB, to: GEL, want: 2.7},
		{name: "missing from-rate falls back to 1", amount: 50, from: TRY, to: USD, want: 50},
		{name: "missing to-rate falls back to 1", amount: 50, from: USD, to: THB, want: 50},
		{name: "result rounds to cents", amount: 100, from: GEL, to: USD, want: 37.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertDirect(tt.amount, tt.from, tt.to, rates); got != tt.want {
				t.Errorf("ConvertDirect(%v, %s, %s) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertDirectNilTable(t *testing.T) {
	if got := ConvertDirect(42, RUB, GEL, nil); got != 42 {
		t.Errorf("ConvertDirect with nil table = %v, want 42", got)
	}
}
