// Package services orchestrates the ledger: the write path that allocates and
// persists expenses, and the read side that aggregates and exports them.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"splitledger/internal/core"
	"splitledger/internal/metrics"
	"splitledger/internal/storage"
)

// EventPublisher pushes committed-expense notifications to the mirror
// pipeline. Publishing is best-effort: the catch-up scan in the worker covers
// lost messages.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, expenseID int64, owner string) error
}

// CreateExpenseRequest is the already-typed, already-parsed input for the
// write path. The HTTP boundary builds it once from the raw request; nothing
// below this point touches loose form fields.
type CreateExpenseRequest struct {
	OwnerID      string
	Name         string
	Total        core.Money
	Strategy     core.Strategy
	Participants []string
	ExactAmounts []core.Money
	Percentages  []float64

	// StrictExact opts into rejecting EXACT shares that do not sum to Total.
	StrictExact bool
}

// LedgerService owns expense creation: allocate shares, persist everything in
// one transaction, then notify the mirror pipeline.
type LedgerService struct {
	store     storage.Store
	publisher EventPublisher
}

func NewLedgerService(store storage.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// CreateExpense runs the full write path and returns the persisted expense.
func (s *LedgerService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*core.Expense, error) {
	exists, err := s.store.AccountExists(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return nil, storage.ErrAccountNotFound
	}

	expense := &core.Expense{
		OwnerID: req.OwnerID,
		Name:    req.Name,
		Total:   req.Total,
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	shares, err := core.Allocate(req.Total, req.Strategy, req.Participants, core.AllocationInput{
		ExactAmounts:       req.ExactAmounts,
		Percentages:        req.Percentages,
		ValidateExactTotal: req.StrictExact,
	})
	if err != nil {
		metrics.AllocationFailures.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}

	// EQUAL and PERCENT must reconstruct the total exactly; a mismatch here
	// means the engine is broken and nothing may be persisted.
	if req.Strategy != core.StrategyExact {
		if sum := core.SumShares(shares); !sum.Equal(req.Total) {
			slog.ErrorContext(ctx, "Allocated shares do not sum to total",
				"owner", req.OwnerID,
				"strategy", string(req.Strategy),
				"total_cents", req.Total.Cents,
				"sum_cents", sum.Cents)
			return nil, fmt.Errorf("%w: shares sum to %s, total is %s", core.ErrConsistency, sum, req.Total)
		}
	}

	if err := s.store.CreateExpense(ctx, expense, shares, req.Strategy); err != nil {
		return nil, fmt.Errorf("persist expense: %w", err)
	}
	metrics.ExpensesCreated.WithLabelValues(string(req.Strategy)).Inc()

	// Best-effort notification; the expense is already committed.
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, expense.ID, expense.OwnerID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense-created message",
				"id", expense.ID, "error", err)
		}
	}

	return expense, nil
}
