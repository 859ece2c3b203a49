package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFitsPlaces(t *testing.T) {
	cases := []struct {
		value  string
		places int32
		want   bool
	}{
		{"9.75", MoneyPlaces, true},
		{"9.750", MoneyPlaces, true},
		{"0.333", MoneyPlaces, false},
		{"12", MoneyPlaces, true},
		{"0.125", QuantityPlaces, true},
		{"-0.0005", QuantityPlaces, false},
	}
	for _, tc := range cases {
		if got := FitsPlaces(decimal.RequireFromString(tc.value), tc.places); got != tc.want {
			t.Fatalf("FitsPlaces(%s, %d) = %v, want %v", tc.value, tc.places, got, tc.want)
		}
	}
}
