package services

import (
	"errors"

	"splitledger/internal/core"
	"splitledger/internal/storage"
)

// ErrorKind maps a failure to its stable machine-readable kind. The HTTP
// boundary puts this in every error payload so clients can branch without
// parsing messages.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrUnknownStrategy):
		return "unknown_strategy"
	case errors.Is(err, core.ErrCountMismatch):
		return "count_mismatch"
	case errors.Is(err, core.ErrPercentSumMismatch):
		return "percent_sum_mismatch"
	case errors.Is(err, core.ErrExactSumMismatch):
		return "exact_sum_mismatch"
	case errors.Is(err, core.ErrEmptyExpenseSet):
		return "empty_expense_set"
	case errors.Is(err, core.ErrConsistency):
		return "consistency_violation"
	case errors.Is(err, core.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, storage.ErrAccountExists):
		return "account_exists"
	case errors.Is(err, storage.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, storage.ErrExpenseNotFound):
		return "expense_not_found"
	default:
		return "internal"
	}
}
