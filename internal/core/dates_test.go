package core

import (
	"testing"
	"time"
)

func TestSafeDate(t *testing.T) {
	cases := []struct {
		year, month, day int
		want             string
	}{
		{2023, 10, 21, "2023-10-21"},
		{2023, 11, 31, "2023-11-30"}, // clamp into 30-day month
		{2023, 2, 31, "2023-02-28"},
		{2024, 2, 31, "2024-02-29"}, // leap year
		{2023, 6, 0, "2023-06-01"},  // below 1 clamps to the 1st
		{2023, 6, -5, "2023-06-01"},
	}
	for _, tc := range cases {
		got := SafeDate(tc.year, tc.month, tc.day)
		if got.ISO() != tc.want {
			t.Fatalf("SafeDate(%d,%d,%d) expected %s, got %s", tc.year, tc.month, tc.day, tc.want, got.ISO())
		}
	}
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2023, 1, 31},
		{2023, 2, 28},
		{2024, 2, 29},
		{2023, 4, 30},
		{2023, 12, 31},
	}
	for _, tc := range cases {
		if got := LastDayOfMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("LastDayOfMonth(%d,%d) expected %d, got %d", tc.year, tc.month, tc.want, got)
		}
	}
}

func TestShiftMonth(t *testing.T) {
	cases := []struct {
		from string
		k    int
		want string
	}{
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-10-22", -1, "2023-09-22"},
		{"2023-12-15", 1, "2024-01-15"}, // year carry forward
		{"2023-01-15", -1, "2022-12-15"},
		{"2023-03-31", -1, "2023-02-28"},
		{"2023-06-10", 0, "2023-06-10"},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.from)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.from, err)
		}
		if got := ShiftMonth(d, tc.k); got.ISO() != tc.want {
			t.Fatalf("ShiftMonth(%s, %d) expected %s, got %s", tc.from, tc.k, tc.want, got.ISO())
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2023, 10, 1)
	b := NewDate(2023, 10, 15)
	if got := DaysBetween(a, b); got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}
	if got := DaysBetween(b, a); got != -14 {
		t.Fatalf("expected -14, got %d", got)
	}
}

func TestYearMonthShift(t *testing.T) {
	cases := []struct {
		from YearMonth
		k    int
		want YearMonth
	}{
		{YearMonth{2023, 10}, 1, YearMonth{2023, 11}},
		{YearMonth{2023, 12}, 1, YearMonth{2024, 1}},
		{YearMonth{2023, 1}, -1, YearMonth{2022, 12}},
		{YearMonth{2023, 6}, 14, YearMonth{2024, 8}},
		{YearMonth{2023, 6}, -18, YearMonth{2021, 12}},
	}
	for _, tc := range cases {
		if got := tc.from.Shift(tc.k); got != tc.want {
			t.Fatalf("%v.Shift(%d) expected %v, got %v", tc.from, tc.k, tc.want, got)
		}
	}
}

func TestYearMonthString(t *testing.T) {
	if got := (YearMonth{2023, 4}).String(); got != "2023-04" {
		t.Fatalf("expected 2023-04, got %s", got)
	}
	ym, err := ParseYearMonth("2023-04")
	if err != nil || ym != (YearMonth{2023, 4}) {
		t.Fatalf("round trip failed: %v %v", ym, err)
	}
	if _, err := ParseYearMonth("2023-13"); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2023, 10, 21)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"2023-10-21"` {
		t.Fatalf("expected \"2023-10-21\", got %s (err=%v)", b, err)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip expected %s, got %s", d.ISO(), back.ISO())
	}
	if err := back.UnmarshalJSON([]byte("42")); err == nil {
		t.Fatalf("expected error for non-string")
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2023, 10, 21).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero time")
	}
}
