package types

import (
	"encoding/json"
	"testing"
)

func TestAmountString(t *testing.T) {
	tests := []struct {
		amount  Amount
		display string
	}{
		{0, "0"},
		{1, "0.000000001"},
		{1_500_000_000, "1.5"},
		{42_000_000_000, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			if got := tt.amount.String(); got != tt.display {
				t.Errorf("String() = %q, want %q", got, tt.display)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"1.5", 1_500_000_000, false},
		{"0", 0, false},
		{"0.000000001", 1, false},
		{"0.0000000001", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"9223372036.854775807", MaxBalance, false},
		{"9223372036.854775808", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	if _, ok := MaxBalance.Add(1); ok {
		t.Error("Add past MaxBalance must fail")
	}
	if sum, ok := Amount(2).Add(3); !ok || sum != 5 {
		t.Errorf("Add = %d, %v", sum, ok)
	}
	if _, ok := Amount(2).Sub(3); ok {
		t.Error("Sub below zero must fail")
	}
	if diff, ok := Amount(5).Sub(5); !ok || diff != 0 {
		t.Errorf("Sub = %d, %v", diff, ok)
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Amount(2_000_000_000))
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["display"] != "2" {
		t.Errorf("display = %v", out["display"])
	}
	if out["base"] != float64(2_000_000_000) {
		t.Errorf("base = %v", out["base"])
	}
}
