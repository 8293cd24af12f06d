package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"

	"splitledger/internal/core"
	"splitledger/internal/metrics"
	"splitledger/internal/storage"
)

const (
	// StatementFileName is the attachment name for the CSV export.
	StatementFileName = "balance_sheet.csv"
	// StatementContentType is the MIME type of the export.
	StatementContentType = "text/csv"

	statementTimeLayout = "2006-01-02 15:04:05"
)

// StatementService assembles the grouped CSV export of an account's ledger.
type StatementService struct {
	store storage.Store
}

func NewStatementService(store storage.Store) *StatementService {
	return &StatementService{store: store}
}

// BuildStatement renders the owner's expenses as CSV, in creation order.
// Each expense contributes a heading row carrying the expense fields and its
// first share, one continuation row per remaining share, and a blank
// separator row.
//
// An account with zero expenses is ErrEmptyExpenseSet. An expense with zero
// shares violates the write-path invariant and fails the whole export with
// ErrConsistency rather than being skipped.
func (s *StatementService) BuildStatement(ctx context.Context, owner string) ([]byte, error) {
	expenses, err := s.store.FindExpensesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, core.ErrEmptyExpenseSet
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"expense name", "date", "total spent", "participant names", "participant shares", "share type"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, expense := range expenses {
		shares, err := s.store.FindSharesByExpense(ctx, expense.ID)
		if err != nil {
			return nil, fmt.Errorf("find shares for expense %d: %w", expense.ID, err)
		}
		if len(shares) == 0 {
			slog.ErrorContext(ctx, "Expense has no share records",
				"expense_id", expense.ID, "owner", owner)
			return nil, fmt.Errorf("%w: expense %d has no share records", core.ErrConsistency, expense.ID)
		}

		first := shares[0]
		if err := w.Write([]string{
			expense.Name,
			expense.CreatedAt.Format(statementTimeLayout),
			expense.Total.String(),
			first.ParticipantName,
			first.Amount.String(),
			string(first.Strategy),
		}); err != nil {
			return nil, fmt.Errorf("write heading row: %w", err)
		}

		for _, share := range shares[1:] {
			if err := w.Write([]string{"", "", "", share.ParticipantName, share.Amount.String(), ""}); err != nil {
				return nil, fmt.Errorf("write share row: %w", err)
			}
		}

		// Blank separator between expense blocks.
		if err := w.Write([]string{""}); err != nil {
			return nil, fmt.Errorf("write separator row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush statement: %w", err)
	}

	metrics.StatementsBuilt.Inc()
	return buf.Bytes(), nil
}
