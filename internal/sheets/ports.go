// Package sheets defines the mirror-ledger port the worker writes to.
package sheets

import (
	"context"

	"splitledger/internal/core"
)

// LedgerMirror appends committed expenses to an external, human-browsable
// copy of the ledger. Implementations must be idempotent enough to tolerate
// redelivery: the worker may append the same expense twice after a requeue.
type LedgerMirror interface {
	AppendExpense(ctx context.Context, expense core.Expense, shares []core.ShareRecord) error
}
