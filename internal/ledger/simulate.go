package ledger

import (
	"sort"

	"paisa/internal/core"
)

const (
	In  Direction = "in"
	Out Direction = "out"
)

const (
	FlagNormal     BalanceFlag = "normal"
	FlagLowBalance BalanceFlag = "low"
	FlagDeficit    BalanceFlag = "deficit"
)

type (
	// Direction says whether a cash event adds to or subtracts from the
	// running balance.
	Direction string

	// BalanceFlag classifies a running balance against the buffer band.
	BalanceFlag string

	// CashEvent is one dated inflow or outflow within a simulation run.
	// Derived only; never persisted.
	CashEvent struct {
		Date      core.Date  `json:"date"`
		Label     string     `json:"label"`
		Amount    core.Money `json:"amount"`
		Direction Direction  `json:"direction"`
	}

	// Entry is one row of the simulated ledger: the event plus the balance
	// after applying it and its classification.
	Entry struct {
		CashEvent
		Balance core.Money  `json:"balance"`
		Flag    BalanceFlag `json:"flag"`
	}

	// Input carries everything one simulation run needs. The caller
	// assembles the event lists; Simulate only merges, orders, and walks
	// them.
	Input struct {
		StartingBalance core.Money
		Buffer          core.Money
		Inflows         []CashEvent // salary and dated extra inflows
		Outflows        []CashEvent // instrument dues and unpaid obligations
	}
)

// SalaryEvent builds the salary inflow on the pay day clamped into the
// selected month. Returns false when amount is not positive.
func SalaryEvent(amount core.Money, payDay, year, month int) (CashEvent, bool) {
	if amount.Cents <= 0 {
		return CashEvent{}, false
	}
	return CashEvent{
		Date:      core.SafeDate(year, month, payDay),
		Label:     "Salary",
		Amount:    amount,
		Direction: In,
	}, true
}

// Simulate merges the inflow and outflow events into one chronological
// ledger and walks the running balance, starting at startingBalance +
// buffer. Ties on a date apply inflows before outflows, then order by label
// for determinism. Every intermediate balance is an exact 2-decimal value
// (integer paise), so no floating error can compound across steps.
//
// The balance after each event is classified: negative is a deficit, a
// non-negative balance below the buffer is the low-balance caution band,
// anything else is normal.
func Simulate(in Input) []Entry {
	events := make([]CashEvent, 0, len(in.Inflows)+len(in.Outflows))
	events = append(events, in.Inflows...)
	events = append(events, in.Outflows...)

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Direction != b.Direction {
			return a.Direction == In
		}
		return a.Label < b.Label
	})

	balance := in.StartingBalance.Add(in.Buffer)
	entries := make([]Entry, 0, len(events))
	for _, ev := range events {
		if ev.Direction == In {
			balance = balance.Add(ev.Amount)
		} else {
			balance = balance.Sub(ev.Amount)
		}
		entries = append(entries, Entry{
			CashEvent: ev,
			Balance:   balance,
			Flag:      classify(balance, in.Buffer),
		})
	}
	return entries
}

func classify(balance, buffer core.Money) BalanceFlag {
	switch {
	case balance.Cents < 0:
		return FlagDeficit
	case balance.Cents < buffer.Cents:
		return FlagLowBalance
	default:
		return FlagNormal
	}
}
