package core

import (
	"errors"
	"strings"
)

const (
	Expense  TxKind = "expense"
	Income   TxKind = "income"
	Payment  TxKind = "payment"
	Credit   TxKind = "credit"
	Refund   TxKind = "refund"
	Transfer TxKind = "transfer"
	Unknown  TxKind = "unknown"
)

type (
	TxKind string

	// Transaction is a single normalized feed row. Immutable once ingested.
	Transaction struct {
		Date          Date   `json:"date"`
		Amount        Money  `json:"amount"`
		RawDescriptor string `json:"raw_descriptor"` // free-text payment descriptor from the feed
		Instrument    string `json:"instrument"` // resolved instrument name, empty when unresolved
		Kind          TxKind `json:"kind"`
		Category      string `json:"category,omitempty"`
		Note          string `json:"note,omitempty"`
		Tags          string `json:"tags,omitempty"`
	}

	// InstrumentRule is the default day-based billing cycle for one instrument.
	// Days are nominal markers (1-31) and are clamped against the actual month
	// length only when a cycle is computed.
	InstrumentRule struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		StartDay        int    `json:"start_day"`
		EndDay          int    `json:"end_day"`
		DueDay          int    `json:"due_day"`
		DueOffsetMonths int    `json:"due_offset_months"`
		CapCents        int64  `json:"cap_cents"` // monthly budget cap, 0 = no cap check
	}

	// CycleOverride replaces rule-based computation entirely for one
	// (instrument, year, month). Stored with Start <= End normalized.
	CycleOverride struct {
		ID           string `json:"id"`
		InstrumentID string `json:"instrument_id"`
		Year         int    `json:"year"`
		Month        int    `json:"month"`
		CycleStart   Date   `json:"cycle_start"`
		CycleEnd     Date   `json:"cycle_end"`
		DueDate      Date   `json:"due_date"`
	}

	// Obligation is a recurring non-instrument monthly cash outflow
	// (rent, EMI, SIP). DueDayHint is free text; digits are extracted and
	// clamped into the month when a due date is needed.
	Obligation struct {
		ID          string `json:"id"`
		Kind        string `json:"kind"` // e.g. "Regular", "Cred EMI", "Loan"
		Item        string `json:"item"`
		Amount      Money  `json:"amount"`
		DueDayHint  string `json:"due_day_hint"`
		Outstanding Money  `json:"outstanding"`
		TenureLeft  string `json:"tenure_left,omitempty"`
	}

	// PaidFlags marks obligation or instrument bills settled for a month,
	// keyed by the stable strings from ObligationFlagKey / InstrumentFlagKey.
	PaidFlags map[string]bool
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidRule     = errors.New("invalid instrument rule")
	ErrInvalidOverride = errors.New("invalid cycle override")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyItem       = errors.New("empty item")
)

// ParseTxKind normalizes a raw kind string case-insensitively.
// Anything outside the known set becomes Unknown.
func ParseTxKind(s string) TxKind {
	switch TxKind(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense
	case Income:
		return Income
	case Payment:
		return Payment
	case Credit:
		return Credit
	case Refund:
		return Refund
	case Transfer:
		return Transfer
	default:
		return Unknown
	}
}

func (r InstrumentRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	for _, d := range []int{r.StartDay, r.EndDay, r.DueDay} {
		if d < 1 || d > 31 {
			return ErrInvalidRule
		}
	}
	if r.DueOffsetMonths < 0 || r.DueOffsetMonths > 3 {
		return ErrInvalidRule
	}
	return nil
}

// Normalize swaps CycleStart and CycleEnd when stored inverted. Applied at
// write time; read paths assume Start <= End.
func (o *CycleOverride) Normalize() {
	if o.CycleStart.After(o.CycleEnd.Time) {
		o.CycleStart, o.CycleEnd = o.CycleEnd, o.CycleStart
	}
}

func (o CycleOverride) Validate() error {
	if o.InstrumentID == "" {
		return ErrInvalidOverride
	}
	if o.Month < 1 || o.Month > 12 {
		return ErrInvalidOverride
	}
	if o.CycleStart.IsZero() || o.CycleEnd.IsZero() || o.DueDate.IsZero() {
		return ErrInvalidOverride
	}
	return nil
}

func (ob Obligation) Validate() error {
	if strings.TrimSpace(ob.Item) == "" {
		return ErrEmptyItem
	}
	if ob.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DueDay reduces the free-text hint to a day clamped into (year, month).
// Non-digit characters are ignored; an empty hint means day 1.
func (ob Obligation) DueDay(year, month int) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ob.DueDayHint)
	d := 1
	if digits != "" {
		d = 0
		for _, r := range digits {
			d = d*10 + int(r-'0')
		}
	}
	last := LastDayOfMonth(year, month)
	if d < 1 {
		d = 1
	}
	if d > last {
		d = last
	}
	return d
}

// ObligationFlagKey is the persisted paid-flag identity for an obligation in
// a given month. The format is stable across sessions.
func ObligationFlagKey(item string, ym YearMonth) string {
	return "CASH::" + item + "::" + ym.String()
}

// InstrumentFlagKey is the persisted paid-flag identity for an instrument
// bill due in a given month.
func InstrumentFlagKey(name string, ym YearMonth) string {
	return "CC::" + name + "::" + ym.String()
}
