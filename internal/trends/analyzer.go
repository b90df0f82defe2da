// Package trends builds monthly per-instrument expense totals and layers
// month-over-month change, anomaly, and budget-cap annotations on top.
package trends

import (
	"sort"

	"paisa/internal/core"
)

// anomalyFactor is the threshold multiplier over the median of positive
// months.
const anomalyFactor = 1.5

// Table holds monthly totals per instrument. Months and Instruments are
// sorted ascending; Totals is keyed by month then instrument, missing cells
// mean zero.
type Table struct {
	Months      []core.YearMonth                         `json:"months"`
	Instruments []string                                 `json:"instruments"`
	Totals      map[core.YearMonth]map[string]core.Money `json:"totals"`
}

// MonthlyTotals groups expense transactions by (year-month, instrument).
// Rows with kind other than expense and rows whose descriptor never
// resolved are excluded.
func MonthlyTotals(txns []core.Transaction) Table {
	totals := make(map[core.YearMonth]map[string]core.Money)
	instruments := make(map[string]struct{})

	for _, t := range txns {
		if t.Kind != core.Expense || t.Instrument == "" {
			continue
		}
		ym := t.Date.YM()
		row, ok := totals[ym]
		if !ok {
			row = make(map[string]core.Money)
			totals[ym] = row
		}
		row[t.Instrument] = row[t.Instrument].Add(t.Amount)
		instruments[t.Instrument] = struct{}{}
	}

	table := Table{Totals: totals}
	for ym := range totals {
		table.Months = append(table.Months, ym)
	}
	sort.Slice(table.Months, func(i, j int) bool {
		return table.Months[i].Before(table.Months[j])
	})
	for name := range instruments {
		table.Instruments = append(table.Instruments, name)
	}
	sort.Strings(table.Instruments)
	return table
}

// Tail restricts the table to its last n months (the active display
// window). n <= 0 or n >= len(Months) returns the table unchanged.
func (t Table) Tail(n int) Table {
	if n <= 0 || n >= len(t.Months) {
		return t
	}
	out := Table{
		Months:      t.Months[len(t.Months)-n:],
		Instruments: t.Instruments,
		Totals:      make(map[core.YearMonth]map[string]core.Money, n),
	}
	for _, ym := range out.Months {
		out.Totals[ym] = t.Totals[ym]
	}
	return out
}

// Value returns the total for (ym, instrument), zero when absent.
func (t Table) Value(ym core.YearMonth, instrument string) core.Money {
	return t.Totals[ym][instrument]
}

// MoMChange computes the month-over-month percentage change for one
// instrument column. The result maps each month to a pointer; nil marks an
// undefined change (first month, or previous month zero/missing).
func (t Table) MoMChange(instrument string) map[core.YearMonth]*float64 {
	out := make(map[core.YearMonth]*float64, len(t.Months))
	for i, ym := range t.Months {
		out[ym] = nil
		if i == 0 {
			continue
		}
		prev := t.Value(t.Months[i-1], instrument)
		if prev.Cents == 0 {
			continue
		}
		cur := t.Value(ym, instrument)
		pct := (cur.Rupees() - prev.Rupees()) / prev.Rupees() * 100.0
		out[ym] = &pct
	}
	return out
}

// Flags carries the advisory annotations for a table. Both maps are keyed
// by month then instrument; absent means not flagged.
type Flags struct {
	Anomaly map[core.YearMonth]map[string]bool `json:"anomaly"`
	OverCap map[core.YearMonth]map[string]bool `json:"over_cap"`
}

// Annotate computes anomaly and budget-cap flags over the (already
// windowed) table. The anomaly threshold for an instrument is 1.5x the
// median of its positive months; excludeLast drops the final month from the
// median when the caller marks it in-progress. Caps are independent: any
// month above a configured positive cap is flagged regardless of the
// median. Flags annotate, they never filter.
func (t Table) Annotate(caps map[string]core.Money, excludeLast bool) Flags {
	flags := Flags{
		Anomaly: make(map[core.YearMonth]map[string]bool),
		OverCap: make(map[core.YearMonth]map[string]bool),
	}
	mark := func(m map[core.YearMonth]map[string]bool, ym core.YearMonth, instrument string) {
		row, ok := m[ym]
		if !ok {
			row = make(map[string]bool)
			m[ym] = row
		}
		row[instrument] = true
	}

	for _, instrument := range t.Instruments {
		statMonths := t.Months
		if excludeLast && len(statMonths) > 0 {
			statMonths = statMonths[:len(statMonths)-1]
		}
		var positives []int64
		for _, ym := range statMonths {
			if v := t.Value(ym, instrument); v.Cents > 0 {
				positives = append(positives, v.Cents)
			}
		}
		med := median(positives)

		budgetCap := caps[instrument]
		for _, ym := range t.Months {
			v := t.Value(ym, instrument)
			if med > 0 && float64(v.Cents) > anomalyFactor*med {
				mark(flags.Anomaly, ym, instrument)
			}
			if budgetCap.Cents > 0 && v.Cents > budgetCap.Cents {
				mark(flags.OverCap, ym, instrument)
			}
		}
	}
	return flags
}

// median of the values, 0 when empty. An even count averages the two middle
// values, which may land on a half paisa; returned as float64 so the
// threshold comparison stays exact.
func median(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2.0
}
