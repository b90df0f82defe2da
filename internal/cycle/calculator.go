// Package cycle computes billing windows and due dates for instruments.
//
// A cycle is indexed by its generation month: the month whose SafeDate'd end
// day is the bill generation date. Overrides keyed by (instrument, year,
// month) replace rule-based computation entirely for that generation month.
package cycle

import (
	"fmt"

	"paisa/internal/core"
)

const (
	RuleComputed Source = "rule"
	Overridden   Source = "override"
)

// Source tags how a cycle was resolved.
type Source string

// Cycle is a resolved billing window. Start and End are inclusive bounds;
// BillDate equals End (the bill generation date). Approximate is set only by
// the due-month search fallback and marks the result non-authoritative.
type Cycle struct {
	Start       core.Date `json:"start"`
	End         core.Date `json:"end"`
	BillDate    core.Date `json:"bill_date"`
	Due         core.Date `json:"due"`
	Source      Source    `json:"source"`
	Approximate bool      `json:"approximate,omitempty"`
}

// Compute resolves the rule-based cycle for the generation month
// (year, month). EndDay and StartDay clamp into the month's actual length;
// when StartDay > EndDay the cycle spans a month boundary and the start
// shifts back one calendar month, clamped again. The due date lands in
// month + DueOffsetMonths with year carry.
func Compute(rule core.InstrumentRule, year, month int) (Cycle, error) {
	if err := rule.Validate(); err != nil {
		return Cycle{}, fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	if month < 1 || month > 12 {
		return Cycle{}, core.ErrInvalidMonth
	}

	end := core.SafeDate(year, month, rule.EndDay)
	start := core.SafeDate(year, month, rule.StartDay)
	if rule.StartDay > rule.EndDay {
		start = core.ShiftMonth(start, -1)
	}

	dueMonth := month + rule.DueOffsetMonths
	dueYear := year
	for dueMonth > 12 {
		dueMonth -= 12
		dueYear++
	}
	due := core.SafeDate(dueYear, dueMonth, rule.DueDay)

	return Cycle{
		Start:    start,
		End:      end,
		BillDate: end,
		Due:      due,
		Source:   RuleComputed,
	}, nil
}
