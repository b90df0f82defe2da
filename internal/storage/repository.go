// Package storage persists the rule/override/obligation/flag collections and
// the transaction feed in SQLite. Reads return the last written state; the
// transaction feed is replaced wholesale on each ingestion.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"paisa/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- Instruments ----

func (r *SQLiteRepository) ListInstruments(ctx context.Context) ([]core.InstrumentRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, start_day, end_day, due_day, due_offset_months, cap_cents
		 FROM instruments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	var out []core.InstrumentRule
	for rows.Next() {
		var ir core.InstrumentRule
		if err := rows.Scan(&ir.ID, &ir.Name, &ir.StartDay, &ir.EndDay,
			&ir.DueDay, &ir.DueOffsetMonths, &ir.CapCents); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, ir)
	}
	return out, rows.Err()
}

// UpsertInstrument saves a rule, assigning a fresh ID when absent.
func (r *SQLiteRepository) UpsertInstrument(ctx context.Context, ir core.InstrumentRule) (core.InstrumentRule, error) {
	if err := ir.Validate(); err != nil {
		return ir, err
	}
	if ir.ID == "" {
		ir.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO instruments (id, name, start_day, end_day, due_day, due_offset_months, cap_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   start_day = excluded.start_day,
		   end_day = excluded.end_day,
		   due_day = excluded.due_day,
		   due_offset_months = excluded.due_offset_months,
		   cap_cents = excluded.cap_cents`,
		ir.ID, ir.Name, ir.StartDay, ir.EndDay, ir.DueDay, ir.DueOffsetMonths, ir.CapCents)
	if err != nil {
		return ir, fmt.Errorf("upsert instrument: %w", err)
	}
	return ir, nil
}

func (r *SQLiteRepository) DeleteInstrument(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM instruments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete instrument: %w", err)
	}
	return nil
}

// ---- Cycle overrides ----

func (r *SQLiteRepository) ListOverrides(ctx context.Context) ([]core.CycleOverride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, instrument_id, year, month, cycle_start, cycle_end, due_date
		 FROM cycle_overrides ORDER BY year, month, instrument_id`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var out []core.CycleOverride
	for rows.Next() {
		var ov core.CycleOverride
		var start, end, due string
		if err := rows.Scan(&ov.ID, &ov.InstrumentID, &ov.Year, &ov.Month, &start, &end, &due); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		// A malformed stored date drops the row; cycle resolution then
		// falls back to the rule for that period.
		if ov.CycleStart, err = core.ParseDate(start); err != nil {
			slog.WarnContext(ctx, "Dropping override with bad cycle_start", "id", ov.ID, "error", err)
			continue
		}
		if ov.CycleEnd, err = core.ParseDate(end); err != nil {
			slog.WarnContext(ctx, "Dropping override with bad cycle_end", "id", ov.ID, "error", err)
			continue
		}
		if ov.DueDate, err = core.ParseDate(due); err != nil {
			slog.WarnContext(ctx, "Dropping override with bad due_date", "id", ov.ID, "error", err)
			continue
		}
		out = append(out, ov)
	}
	return out, rows.Err()
}

// UpsertOverride saves an override for its (instrument, year, month) key,
// normalizing start <= end at write time. The composite key is immutable
// once saved; saving again for the same period replaces the dates.
func (r *SQLiteRepository) UpsertOverride(ctx context.Context, ov core.CycleOverride) (core.CycleOverride, error) {
	ov.Normalize()
	if err := ov.Validate(); err != nil {
		return ov, err
	}
	if ov.ID == "" {
		ov.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cycle_overrides (id, instrument_id, year, month, cycle_start, cycle_end, due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(instrument_id, year, month) DO UPDATE SET
		   cycle_start = excluded.cycle_start,
		   cycle_end = excluded.cycle_end,
		   due_date = excluded.due_date`,
		ov.ID, ov.InstrumentID, ov.Year, ov.Month,
		ov.CycleStart.ISO(), ov.CycleEnd.ISO(), ov.DueDate.ISO())
	if err != nil {
		return ov, fmt.Errorf("upsert override: %w", err)
	}
	return ov, nil
}

func (r *SQLiteRepository) DeleteOverride(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cycle_overrides WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// ---- Obligations ----

func (r *SQLiteRepository) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, item, amount_cents, due_day_hint, outstanding_cents, tenure_left
		 FROM obligations ORDER BY item`)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	var out []core.Obligation
	for rows.Next() {
		var ob core.Obligation
		if err := rows.Scan(&ob.ID, &ob.Kind, &ob.Item, &ob.Amount.Cents,
			&ob.DueDayHint, &ob.Outstanding.Cents, &ob.TenureLeft); err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, ob)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertObligation(ctx context.Context, ob core.Obligation) (core.Obligation, error) {
	if err := ob.Validate(); err != nil {
		return ob, err
	}
	if ob.ID == "" {
		ob.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO obligations (id, kind, item, amount_cents, due_day_hint, outstanding_cents, tenure_left)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind = excluded.kind,
		   item = excluded.item,
		   amount_cents = excluded.amount_cents,
		   due_day_hint = excluded.due_day_hint,
		   outstanding_cents = excluded.outstanding_cents,
		   tenure_left = excluded.tenure_left`,
		ob.ID, ob.Kind, ob.Item, ob.Amount.Cents, ob.DueDayHint, ob.Outstanding.Cents, ob.TenureLeft)
	if err != nil {
		return ob, fmt.Errorf("upsert obligation: %w", err)
	}
	return ob, nil
}

func (r *SQLiteRepository) DeleteObligation(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM obligations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete obligation: %w", err)
	}
	return nil
}

// ---- Paid flags ----

func (r *SQLiteRepository) GetPaidFlags(ctx context.Context) (core.PaidFlags, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, paid FROM paid_flags`)
	if err != nil {
		return nil, fmt.Errorf("get paid flags: %w", err)
	}
	defer rows.Close()

	flags := make(core.PaidFlags)
	for rows.Next() {
		var key string
		var paid int
		if err := rows.Scan(&key, &paid); err != nil {
			return nil, fmt.Errorf("scan paid flag: %w", err)
		}
		flags[key] = paid != 0
	}
	return flags, rows.Err()
}

// SetPaidFlag toggles one flag. Only explicit user toggles mutate flags.
func (r *SQLiteRepository) SetPaidFlag(ctx context.Context, key string, paid bool) error {
	v := 0
	if paid {
		v = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO paid_flags (key, paid) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET paid = excluded.paid`, key, v)
	if err != nil {
		return fmt.Errorf("set paid flag: %w", err)
	}
	return nil
}

// ---- Transactions ----

// ReplaceTransactions swaps the whole feed atomically.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, txns []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transactions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (date, amount_cents, descriptor, instrument, kind, category, note, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx, t.Date.ISO(), t.Amount.Cents, t.RawDescriptor,
			t.Instrument, string(t.Kind), t.Category, t.Note, t.Tags); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transaction feed replaced", "count", len(txns))
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount_cents, descriptor, instrument, kind, category, note, tags
		 FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date, kind string
		if err := rows.Scan(&date, &t.Amount.Cents, &t.RawDescriptor,
			&t.Instrument, &kind, &t.Category, &t.Note, &t.Tags); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored transaction date: %w", err)
		}
		t.Kind = core.TxKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- Monthly trend snapshots ----

// ReplaceMonthlyTotals swaps the cached trend snapshot written by the
// snapshot worker.
func (r *SQLiteRepository) ReplaceMonthlyTotals(ctx context.Context, totals map[core.YearMonth]map[string]core.Money) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace monthly totals: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_totals`); err != nil {
		return fmt.Errorf("clear monthly totals: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for ym, row := range totals {
		for instrument, total := range row {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO monthly_totals (ym, instrument, total_cents, computed_at) VALUES (?, ?, ?, ?)`,
				ym.String(), instrument, total.Cents, now); err != nil {
				return fmt.Errorf("insert monthly total: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace monthly totals: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMonthlyTotals(ctx context.Context) (map[core.YearMonth]map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ym, instrument, total_cents FROM monthly_totals ORDER BY ym, instrument`)
	if err != nil {
		return nil, fmt.Errorf("list monthly totals: %w", err)
	}
	defer rows.Close()

	out := make(map[core.YearMonth]map[string]core.Money)
	for rows.Next() {
		var ymStr, instrument string
		var cents int64
		if err := rows.Scan(&ymStr, &instrument, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		ym, err := core.ParseYearMonth(ymStr)
		if err != nil {
			return nil, fmt.Errorf("stored year-month: %w", err)
		}
		row, ok := out[ym]
		if !ok {
			row = make(map[string]core.Money)
			out[ym] = row
		}
		row[instrument] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}
