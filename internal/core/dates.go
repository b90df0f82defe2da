package core

import (
	"errors"
	"fmt"
	"time"
)

// Date is a calendar day without a time-of-day component. All dates are UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// MarshalJSON renders the date as "YYYY-MM-DD" rather than the embedded
// time.Time's RFC 3339 timestamp.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YM returns the date's year-month.
func (d Date) YM() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// DaysBetween returns b - a in whole days.
func DaysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

// LastDayOfMonth returns the number of days in (year, month).
func LastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SafeDate clamps day into the actual length of (year, month). A nominal day
// of 31 in a 30-day month yields the 30th; days below 1 clamp to the 1st.
func SafeDate(year, month, day int) Date {
	last := LastDayOfMonth(year, month)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(year, month, day)
}

// MonthRange returns the first and last day of (year, month).
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, LastDayOfMonth(year, month))
}

// ShiftMonth moves d by k calendar months, anchoring on the 15th so the month
// arithmetic never skips, then clamping the original day into the target
// month. ShiftMonth(Jan 31, 1) is Feb 28 (or 29 in a leap year).
func ShiftMonth(d Date, k int) Date {
	anchor := NewDate(d.Year(), d.Month(), 15).AddDate(0, k, 0)
	return SafeDate(anchor.Year(), int(anchor.Month()), d.Day())
}

// YearMonth identifies a calendar month. The zero value is invalid.
type YearMonth struct {
	Year  int
	Month int // 1-12
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// MarshalText lets YearMonth serve as a JSON map key.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(text []byte) error {
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// Before reports whether ym precedes other chronologically.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Shift moves ym by k months, carrying years in either direction.
func (ym YearMonth) Shift(k int) YearMonth {
	m := ym.Year*12 + (ym.Month - 1) + k
	return YearMonth{Year: m / 12, Month: m%12 + 1}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	var ym YearMonth
	if _, err := fmt.Sscanf(s, "%04d-%02d", &ym.Year, &ym.Month); err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	if ym.Month < 1 || ym.Month > 12 {
		return YearMonth{}, ErrInvalidMonth
	}
	return ym, nil
}
