// Package worker recomputes cached trend snapshots when the transaction
// feed changes.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/core"
	"paisa/internal/trends"
)

// SnapshotStore is the persistence surface the snapshot worker needs.
type SnapshotStore interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ReplaceMonthlyTotals(ctx context.Context, totals map[core.YearMonth]map[string]core.Money) error
}

// SnapshotWorker rebuilds the monthly_totals cache from the stored feed.
// The cache is a convenience for dashboards; live reports always recompute
// from transactions, so a stale snapshot is never authoritative.
type SnapshotWorker struct {
	store SnapshotStore
}

func NewSnapshotWorker(store SnapshotStore) *SnapshotWorker {
	return &SnapshotWorker{store: store}
}

// HandleFeedReplaced processes a single feed replacement message from AMQP
func (w *SnapshotWorker) HandleFeedReplaced(ctx context.Context, msg *amqp.FeedReplacedMessage) error {
	slog.InfoContext(ctx, "Processing feed replaced message",
		"count", msg.Count,
		"replaced_at", msg.ReplacedAt)

	return w.Rebuild(ctx)
}

// Rebuild recomputes every monthly total from the stored feed and swaps the
// snapshot table. Also run once at worker startup to recover from missed
// messages.
func (w *SnapshotWorker) Rebuild(ctx context.Context) error {
	txns, err := w.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	table := trends.MonthlyTotals(txns)
	if err := w.store.ReplaceMonthlyTotals(ctx, table.Totals); err != nil {
		return fmt.Errorf("replace monthly totals: %w", err)
	}

	slog.InfoContext(ctx, "Rebuilt monthly totals snapshot",
		"transactions", len(txns),
		"months", len(table.Months),
		"instruments", len(table.Instruments))

	return nil
}
