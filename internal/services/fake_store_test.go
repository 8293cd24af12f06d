package services

import (
	"context"
	"time"

	"splitledger/internal/core"
	"splitledger/internal/storage"
)

// fakeStore is an in-memory storage.Store for service tests.
type fakeStore struct {
	accounts map[string]core.Account
	expenses []core.Expense
	shares   []core.ShareRecord
	nextID   int64

	failCreateExpense error
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]core.Account), nextID: 1}
}

func (f *fakeStore) CreateAccount(_ context.Context, account core.Account) error {
	if _, ok := f.accounts[account.Email]; ok {
		return storage.ErrAccountExists
	}
	f.accounts[account.Email] = account
	return nil
}

func (f *fakeStore) AccountExists(_ context.Context, email string) (bool, error) {
	_, ok := f.accounts[email]
	return ok, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, expense *core.Expense, shares []core.Share, strategy core.Strategy) error {
	if f.failCreateExpense != nil {
		return f.failCreateExpense
	}
	expense.ID = f.nextID
	f.nextID++
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	f.expenses = append(f.expenses, *expense)
	for _, s := range shares {
		f.shares = append(f.shares, core.ShareRecord{
			ID:              f.nextID,
			OwnerID:         expense.OwnerID,
			ExpenseID:       expense.ID,
			ParticipantName: s.ParticipantName,
			Amount:          s.Amount,
			Strategy:        strategy,
		})
		f.nextID++
	}
	return nil
}

func (f *fakeStore) FindExpensesByOwner(_ context.Context, owner string) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindSharesByExpense(_ context.Context, expenseID int64) ([]core.ShareRecord, error) {
	var out []core.ShareRecord
	for _, s := range f.shares {
		if s.ExpenseID == expenseID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) FindSharesByOwnerAndParticipant(_ context.Context, owner, participant string) ([]core.ShareRecord, error) {
	var out []core.ShareRecord
	for _, s := range f.shares {
		if s.OwnerID == owner && s.ParticipantName == participant {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SumShareAmounts(_ context.Context, owner, participant string) (core.Money, error) {
	var sum core.Money
	for _, s := range f.shares {
		if s.OwnerID == owner && s.ParticipantName == participant {
			sum = sum.Add(s.Amount)
		}
	}
	return sum, nil
}

func (f *fakeStore) SumExpenseTotals(_ context.Context, owner string) (core.Money, error) {
	var sum core.Money
	for _, e := range f.expenses {
		if e.OwnerID == owner {
			sum = sum.Add(e.Total)
		}
	}
	return sum, nil
}

func (f *fakeStore) Close() error { return nil }

// capturingPublisher records expense-created notifications.
type capturingPublisher struct {
	published []int64
	fail      error
}

func (p *capturingPublisher) PublishExpenseCreated(_ context.Context, expenseID int64, _ string) error {
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, expenseID)
	return nil
}
