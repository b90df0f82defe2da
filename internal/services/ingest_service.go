package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/core"
	"paisa/internal/identity"
	"paisa/internal/ingest"
)

// FeedStore is the persistence surface ingestion writes to.
type FeedStore interface {
	ReplaceTransactions(ctx context.Context, txns []core.Transaction) error
}

// IngestService parses a transaction feed, replaces the stored feed, and
// notifies the snapshot worker over AMQP.
type IngestService struct {
	store      FeedStore
	amqpClient *amqp.Client
	resolver   *identity.Resolver
}

func NewIngestService(store FeedStore, amqpClient *amqp.Client, resolver *identity.Resolver) *IngestService {
	return &IngestService{
		store:      store,
		amqpClient: amqpClient,
		resolver:   resolver,
	}
}

// ReplaceFeed parses the feed and swaps the stored transactions for it.
// The parse report is returned even alongside row drops; only a structural
// failure (missing columns, unreadable input) aborts the replacement.
func (s *IngestService) ReplaceFeed(ctx context.Context, r io.Reader) (ingest.Report, error) {
	txns, report, err := ingest.ParseFeed(r, s.resolver)
	if err != nil {
		return report, fmt.Errorf("parse feed: %w", err)
	}

	if err := s.store.ReplaceTransactions(ctx, txns); err != nil {
		return report, fmt.Errorf("replace transactions: %w", err)
	}

	// Notify async. A failed publish never fails the ingestion; the feed
	// is already saved and snapshots catch up on the next event.
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping feed replaced message")
		return report, nil
	}
	if err := s.amqpClient.PublishFeedReplaced(ctx, len(txns)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish feed replaced message",
			"count", len(txns), "error", err)
	}
	return report, nil
}
