package core

import (
	"errors"
	"strings"
	"time"
)

// Strategy is the rule used to divide an expense total among participants.
// It is a closed set: anything else is rejected at the boundary with
// ErrUnknownStrategy.
type Strategy string

const (
	StrategyEqual   Strategy = "EQUAL"
	StrategyExact   Strategy = "EXACT"
	StrategyPercent Strategy = "PERCENT"
)

// ParseStrategy validates a strategy token.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyEqual:
		return StrategyEqual, nil
	case StrategyExact:
		return StrategyExact, nil
	case StrategyPercent:
		return StrategyPercent, nil
	default:
		return "", ErrUnknownStrategy
	}
}

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownStrategy    = errors.New("unknown split strategy")
	ErrCountMismatch      = errors.New("share count does not match participant count")
	ErrPercentSumMismatch = errors.New("percentages do not sum to 100")
	ErrExactSumMismatch   = errors.New("exact shares do not sum to the total")
	ErrEmptyExpenseSet    = errors.New("account has no expenses")
	ErrConsistency        = errors.New("ledger consistency violation")
)

type (
	// Account is a registered ledger owner, referenced everywhere by email.
	Account struct {
		Email     string
		Name      string
		Phone     string
		CreatedAt time.Time
	}

	// Expense is one recorded spending event. It is created atomically with
	// its share records and never mutated afterwards.
	Expense struct {
		ID        int64
		OwnerID   string // owning account email
		Name      string
		Total     Money
		CreatedAt time.Time
	}

	// ShareRecord is one participant's portion of an expense. The owner is
	// denormalized from the parent expense for per-account queries; the
	// participant name is free text and not a registered account.
	ShareRecord struct {
		ID              int64
		OwnerID         string
		ExpenseID       int64
		ParticipantName string
		Amount          Money
		Strategy        Strategy
	}

	// Share is an allocation engine result line: one participant and the
	// amount they owe. Order matches the participant list passed in.
	Share struct {
		ParticipantName string
		Amount          Money
	}
)

func (a Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidInput
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidInput
	}
	if len(e.Name) > 120 {
		return ErrInvalidInput
	}
	if !e.Total.IsPositive() {
		return ErrInvalidInput
	}
	return nil
}

// SumShares adds up the amounts of a share list.
func SumShares(shares []Share) Money {
	var sum Money
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
