// Package ledger aggregates cycle liabilities and simulates a chronological
// cash balance. All functions are pure over their inputs.
package ledger

import (
	"sort"

	"paisa/internal/core"
)

// SumLiability returns the transactions accruing to instrument's bill inside
// the inclusive [start, end] window, their exact 2-decimal total, and the
// match count. Only positive-amount expense rows qualify; payments, credits,
// refunds and transfers never net against the liability.
func SumLiability(txns []core.Transaction, instrument string, start, end core.Date) ([]core.Transaction, core.Money, int) {
	var matched []core.Transaction
	var total core.Money
	for _, t := range txns {
		if t.Instrument != instrument || instrument == "" {
			continue
		}
		if t.Kind != core.Expense {
			continue
		}
		if t.Amount.Cents <= 0 {
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}
		matched = append(matched, t)
		total = total.Add(t.Amount)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date.Time)
	})
	return matched, total, len(matched)
}
