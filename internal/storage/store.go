// Package storage persists the ledger: accounts, expenses and share records.
package storage

import (
	"context"
	"errors"

	"splitledger/internal/core"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrExpenseNotFound = errors.New("expense not found")
)

// Store is the ledger persistence contract consumed by the service layer.
// Keeping it an interface lets tests run against an in-memory fake and leaves
// room for other backends without touching the services.
type Store interface {
	// CreateAccount registers a new owner. Returns ErrAccountExists when the
	// email is already taken.
	CreateAccount(ctx context.Context, account core.Account) error

	// AccountExists reports whether an owner is registered.
	AccountExists(ctx context.Context, email string) (bool, error)

	// CreateExpense persists an expense and all of its share records in one
	// transaction; either everything becomes visible or nothing does. The
	// expense ID and creation time are populated on the way out.
	CreateExpense(ctx context.Context, expense *core.Expense, shares []core.Share, strategy core.Strategy) error

	// FindExpensesByOwner returns the owner's expenses in creation (id) order.
	FindExpensesByOwner(ctx context.Context, owner string) ([]core.Expense, error)

	// FindSharesByExpense returns an expense's share records in creation order.
	FindSharesByExpense(ctx context.Context, expenseID int64) ([]core.ShareRecord, error)

	// FindSharesByOwnerAndParticipant matches the participant name exactly,
	// case sensitive.
	FindSharesByOwnerAndParticipant(ctx context.Context, owner, participant string) ([]core.ShareRecord, error)

	// SumShareAmounts totals the share amounts recorded by owner for the
	// given participant. No matching rows is zero, not an error.
	SumShareAmounts(ctx context.Context, owner, participant string) (core.Money, error)

	// SumExpenseTotals totals the owner's expense amounts. No expenses is
	// zero, not an error.
	SumExpenseTotals(ctx context.Context, owner string) (core.Money, error)

	// Close releases any resources held by the store.
	Close() error
}
