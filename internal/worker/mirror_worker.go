// Package worker moves committed expenses into the external mirror ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	"splitledger/internal/metrics"
	"splitledger/internal/sheets"
	"splitledger/internal/storage"
)

// ExpenseSource is the slice of the repository the worker needs: read back
// committed expenses and track mirror progress.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	FindSharesByExpense(ctx context.Context, expenseID int64) ([]core.ShareRecord, error)
	FindUnmirroredExpenses(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
	MarkMirrored(ctx context.Context, id int64) error
}

// MirrorWorker consumes expense-created messages and appends the committed
// rows to the mirror ledger. A periodic catch-up scan picks up expenses whose
// message was lost between commit and publish.
type MirrorWorker struct {
	source    ExpenseSource
	mirror    sheets.LedgerMirror
	batchSize int
}

func NewMirrorWorker(source ExpenseSource, mirror sheets.LedgerMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		source:    source,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleExpenseCreated mirrors one expense announced over AMQP. Returning an
// error requeues the delivery; an expense that no longer exists is dropped
// instead of poisoning the queue.
func (w *MirrorWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	err := w.mirrorExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrExpenseNotFound) {
		slog.WarnContext(ctx, "Expense in message no longer exists, dropping",
			"id", msg.ID, "owner", msg.Owner)
		return nil
	}
	return err
}

// RunCatchUp periodically scans for expenses that were committed but never
// mirrored, and mirrors them directly. Runs until ctx is canceled.
func (w *MirrorWorker) RunCatchUp(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.catchUpOnce(ctx, interval); err != nil {
				slog.ErrorContext(ctx, "Catch-up scan failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) catchUpOnce(ctx context.Context, age time.Duration) error {
	// Only pick up expenses old enough that their AMQP message should have
	// arrived already; fresher ones are still in flight.
	cutoff := time.Now().Add(-age)
	ids, err := w.source.FindUnmirroredExpenses(ctx, cutoff, w.batchSize)
	if err != nil {
		return fmt.Errorf("find unmirrored expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Catch-up scan found unmirrored expenses", "count", len(ids))
	for _, id := range ids {
		if err := w.mirrorExpense(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense during catch-up",
				"id", id, "error", err)
		}
	}
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, id int64) error {
	expense, err := w.source.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}

	shares, err := w.source.FindSharesByExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get shares for expense %d: %w", id, err)
	}
	if len(shares) == 0 {
		// The write path commits expense and shares together, so this state
		// should be impossible.
		return fmt.Errorf("%w: expense %d has no share records", core.ErrConsistency, id)
	}

	if err := w.mirror.AppendExpense(ctx, expense, shares); err != nil {
		return fmt.Errorf("append expense %d to mirror: %w", id, err)
	}

	if err := w.source.MarkMirrored(ctx, id); err != nil {
		return fmt.Errorf("mark expense %d mirrored: %w", id, err)
	}

	metrics.ExpensesMirrored.Inc()
	return nil
}
