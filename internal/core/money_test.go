package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"1500", 150000, true},
		{"1,500.00", 150000, true}, // grouping comma
		{"-12,34", -1234, true},
		{"-1", -100, true},
		{"0", 0, true},
		{"+5", 500, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"12a.50", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 150}
	b := Money{Cents: 49}
	if got := a.Add(b); got.Cents != 199 {
		t.Fatalf("Add expected 199, got %d", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 101 {
		t.Fatalf("Sub expected 101, got %d", got.Cents)
	}
	if got := (Money{Cents: 12345}).Rupees(); got != 123.45 {
		t.Fatalf("Rupees expected 123.45, got %v", got)
	}
}
