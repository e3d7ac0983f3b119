// Package ledger implements the inventory rules: count reconciliation,
// scoped item access, transfers between labs, stock requests, maintenance
// costs and their summaries, bulk import and export, and complaints.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/labstock/internal/blob"
	"github.com/erazemk/labstock/internal/metrics"
	"github.com/erazemk/labstock/internal/notify"
)

// Service runs inventory operations against the database and the
// attachment and notification backends.
type Service struct {
	DB       *sql.DB
	Blobs    blob.Store
	Notifier notify.Notifier
	Metrics  *metrics.Metrics

	// NotifyTimeout bounds each asynchronous notification.
	NotifyTimeout time.Duration
}

// New returns a Service with no attachment store and a no-op notifier.
func New(db *sql.DB) *Service {
	return &Service{DB: db, Notifier: notify.Nop{}, NotifyTimeout: 10 * time.Second}
}

// inTx runs fn inside one write transaction.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
