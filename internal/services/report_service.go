// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"paisa/internal/core"
	"paisa/internal/cycle"
	"paisa/internal/ledger"
	"paisa/internal/trends"
)

// Store is the persistence surface the report service reads from. The
// SQLite repository satisfies it; tests use in-memory fakes.
type Store interface {
	ListInstruments(ctx context.Context) ([]core.InstrumentRule, error)
	ListOverrides(ctx context.Context) ([]core.CycleOverride, error)
	ListObligations(ctx context.Context) ([]core.Obligation, error)
	GetPaidFlags(ctx context.Context) (core.PaidFlags, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// ReportService derives bill, cash-flow and trend views from stored state.
// Everything it returns is recomputed per call; nothing here mutates the
// store.
type ReportService struct {
	store Store
}

func NewReportService(store Store) *ReportService {
	return &ReportService{store: store}
}

// InstrumentBill is one instrument's cycle for a month together with the
// transactions that fall inside it.
type InstrumentBill struct {
	Instrument   string             `json:"instrument"`
	Cycle        cycle.Cycle        `json:"cycle"`
	Transactions []core.Transaction `json:"transactions"`
	Total        core.Money         `json:"total"`
	TxCount      int                `json:"tx_count"`
	Paid         bool               `json:"paid"`
}

// BillsReport lists every instrument's bill for a month plus the totals.
type BillsReport struct {
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Bills       []InstrumentBill `json:"bills"`
	MonthTotal  core.Money       `json:"month_total"`
	UnpaidTotal core.Money       `json:"unpaid_total"`
}

// billInputs is the stored state a bills report needs, loaded once per call.
type billInputs struct {
	instruments []core.InstrumentRule
	overrides   cycle.OverrideSet
	flags       core.PaidFlags
	txns        []core.Transaction
}

func (s *ReportService) loadBillInputs(ctx context.Context) (billInputs, error) {
	var in billInputs

	instruments, err := s.store.ListInstruments(ctx)
	if err != nil {
		return in, fmt.Errorf("load instruments: %w", err)
	}
	rawOverrides, err := s.store.ListOverrides(ctx)
	if err != nil {
		return in, fmt.Errorf("load overrides: %w", err)
	}
	overrides, skipped := cycle.NewOverrideSet(rawOverrides)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed overrides", "count", skipped)
	}
	flags, err := s.store.GetPaidFlags(ctx)
	if err != nil {
		return in, fmt.Errorf("load paid flags: %w", err)
	}
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return in, fmt.Errorf("load transactions: %w", err)
	}

	in.instruments = instruments
	in.overrides = overrides
	in.flags = flags
	in.txns = txns
	return in, nil
}

// BillsGenerated reports the cycle generated in the given month for every
// instrument, with the spend that falls inside each cycle window.
func (s *ReportService) BillsGenerated(ctx context.Context, year, month int) (BillsReport, error) {
	if err := validateYearMonth(year, month); err != nil {
		return BillsReport{}, err
	}
	in, err := s.loadBillInputs(ctx)
	if err != nil {
		return BillsReport{}, err
	}
	return s.assembleBills(ctx, in, year, month, func(rule core.InstrumentRule) (cycle.Cycle, error) {
		return cycle.Effective(rule, year, month, in.overrides)
	})
}

// BillsDue reports, for every instrument, the cycle whose payment lands in
// the given month. A cycle found only approximately keeps its Approximate
// marker so callers can render it as non-authoritative.
func (s *ReportService) BillsDue(ctx context.Context, year, month int) (BillsReport, error) {
	if err := validateYearMonth(year, month); err != nil {
		return BillsReport{}, err
	}
	in, err := s.loadBillInputs(ctx)
	if err != nil {
		return BillsReport{}, err
	}
	return s.assembleBills(ctx, in, year, month, func(rule core.InstrumentRule) (cycle.Cycle, error) {
		return cycle.FindDueIn(rule, year, month, in.overrides)
	})
}

// assembleBills resolves each instrument's cycle concurrently and sums the
// liabilities. Bills come back in instrument-name order regardless of which
// goroutine finished first. Paid flags are keyed by the due date's month so
// a bill stays marked across the generated and due views.
func (s *ReportService) assembleBills(ctx context.Context, in billInputs, year, month int,
	resolve func(core.InstrumentRule) (cycle.Cycle, error)) (BillsReport, error) {

	bills := make([]InstrumentBill, len(in.instruments))
	var g errgroup.Group
	for i, rule := range in.instruments {
		g.Go(func() error {
			c, err := resolve(rule)
			if err != nil {
				return fmt.Errorf("cycle for %s: %w", rule.Name, err)
			}
			matched, total, count := ledger.SumLiability(in.txns, rule.Name, c.Start, c.End)
			key := core.InstrumentFlagKey(rule.Name, c.Due.YM())
			bills[i] = InstrumentBill{
				Instrument:   rule.Name,
				Cycle:        c,
				Transactions: matched,
				Total:        total,
				TxCount:      count,
				Paid:         in.flags[key],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BillsReport{}, err
	}

	report := BillsReport{Year: year, Month: month, Bills: bills}
	for _, b := range bills {
		report.MonthTotal = report.MonthTotal.Add(b.Total)
		if !b.Paid {
			report.UnpaidTotal = report.UnpaidTotal.Add(b.Total)
		}
	}
	return report, nil
}

// SimRequest is one cash-flow simulation ask for a calendar month.
type SimRequest struct {
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	StartingBalance core.Money         `json:"starting_balance"`
	Buffer          core.Money         `json:"buffer"`
	Salary          core.Money         `json:"salary"`
	SalaryDay       int                `json:"salary_day"`
	Extra           []ledger.CashEvent `json:"extra,omitempty"`
}

// SimResult is the simulated ledger plus its closing balance.
type SimResult struct {
	Entries []ledger.Entry `json:"entries"`
	Closing core.Money     `json:"closing"`
}

// CashFlow assembles the month's inflows and outflows from stored state and
// walks them. Obligations and instrument bills flagged paid for the month
// are left out entirely; they are settled money, not pending events.
func (s *ReportService) CashFlow(ctx context.Context, req SimRequest) (SimResult, error) {
	if err := validateYearMonth(req.Year, req.Month); err != nil {
		return SimResult{}, err
	}
	in, err := s.loadBillInputs(ctx)
	if err != nil {
		return SimResult{}, err
	}
	obligations, err := s.store.ListObligations(ctx)
	if err != nil {
		return SimResult{}, fmt.Errorf("load obligations: %w", err)
	}

	ym := core.YearMonth{Year: req.Year, Month: req.Month}
	sim := ledger.Input{
		StartingBalance: req.StartingBalance,
		Buffer:          req.Buffer,
	}

	if salary, ok := ledger.SalaryEvent(req.Salary, req.SalaryDay, req.Year, req.Month); ok {
		sim.Inflows = append(sim.Inflows, salary)
	}
	for _, ev := range req.Extra {
		if ev.Direction == ledger.In {
			sim.Inflows = append(sim.Inflows, ev)
		} else {
			sim.Outflows = append(sim.Outflows, ev)
		}
	}

	for _, ob := range obligations {
		if ob.Amount.Cents <= 0 {
			continue
		}
		if in.flags[core.ObligationFlagKey(ob.Item, ym)] {
			continue
		}
		sim.Outflows = append(sim.Outflows, ledger.CashEvent{
			Date:      core.SafeDate(req.Year, req.Month, ob.DueDay(req.Year, req.Month)),
			Label:     ob.Item,
			Amount:    ob.Amount,
			Direction: ledger.Out,
		})
	}

	for _, rule := range in.instruments {
		c, err := cycle.FindDueIn(rule, req.Year, req.Month, in.overrides)
		if err != nil {
			return SimResult{}, fmt.Errorf("cycle for %s: %w", rule.Name, err)
		}
		_, total, _ := ledger.SumLiability(in.txns, rule.Name, c.Start, c.End)
		if total.Cents <= 0 {
			continue
		}
		if in.flags[core.InstrumentFlagKey(rule.Name, c.Due.YM())] {
			continue
		}
		sim.Outflows = append(sim.Outflows, ledger.CashEvent{
			Date:      c.Due,
			Label:     rule.Name,
			Amount:    total,
			Direction: ledger.Out,
		})
	}

	entries := ledger.Simulate(sim)
	result := SimResult{Entries: entries, Closing: sim.StartingBalance.Add(sim.Buffer)}
	if len(entries) > 0 {
		result.Closing = entries[len(entries)-1].Balance
	}
	return result, nil
}

// TrendReport is the windowed monthly spend table with its derived
// month-over-month deltas and advisory flags.
type TrendReport struct {
	Table trends.Table                           `json:"table"`
	MoM   map[string]map[core.YearMonth]*float64 `json:"mom"`
	Flags trends.Flags                           `json:"flags"`
}

// Trends builds the spend-trend view over the last window months.
// excludeLast keeps the in-progress month out of the anomaly statistic
// while still showing it in the table.
func (s *ReportService) Trends(ctx context.Context, window int, excludeLast bool) (TrendReport, error) {
	if window <= 0 {
		return TrendReport{}, fmt.Errorf("trend window must be positive, got %d", window)
	}
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return TrendReport{}, fmt.Errorf("load transactions: %w", err)
	}
	instruments, err := s.store.ListInstruments(ctx)
	if err != nil {
		return TrendReport{}, fmt.Errorf("load instruments: %w", err)
	}

	caps := make(map[string]core.Money)
	for _, rule := range instruments {
		if rule.CapCents > 0 {
			caps[rule.Name] = core.Money{Cents: rule.CapCents}
		}
	}

	table := trends.MonthlyTotals(txns).Tail(window)
	mom := make(map[string]map[core.YearMonth]*float64, len(table.Instruments))
	for _, instrument := range table.Instruments {
		mom[instrument] = table.MoMChange(instrument)
	}

	return TrendReport{
		Table: table,
		MoM:   mom,
		Flags: table.Annotate(caps, excludeLast),
	}, nil
}

func validateYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	if year < 1 {
		return fmt.Errorf("year must be positive, got %d", year)
	}
	return nil
}
