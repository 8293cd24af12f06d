package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"splitledger/internal/core"
)

// Ensure the SQLite repository satisfies the store contract.
var _ Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount registers a new owner inside a transaction so the existence
// check and the insert cannot race with another registration of the same
// email (the primary key backstops it either way).
func (r *SQLiteRepository) CreateAccount(ctx context.Context, account core.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)", account.Email,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if exists {
		return ErrAccountExists
	}

	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (email, name, phone, created_at) VALUES (?, ?, ?, ?)",
		account.Email, account.Name, account.Phone, createdAt.Unix(),
	); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "email", account.Email)
	return nil
}

func (r *SQLiteRepository) AccountExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)", email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return exists, nil
}

// CreateExpense writes the expense row and every share record in one
// transaction scope. Readers never observe an expense with a partial share
// set: a failed share insert rolls the whole expense back.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, expense *core.Expense, shares []core.Share, strategy core.Strategy) error {
	if len(shares) == 0 {
		return core.ErrInvalidInput
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO expenses (owner_email, name, total_cents, created_at) VALUES (?, ?, ?, ?)",
		expense.OwnerID, expense.Name, expense.Total.Cents, expense.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	expense.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense id: %w", err)
	}

	for _, share := range shares {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO share_records (owner_email, expense_id, participant_name, amount_cents, strategy) VALUES (?, ?, ?, ?, ?)",
			expense.OwnerID, expense.ID, share.ParticipantName, share.Amount.Cents, string(strategy),
		); err != nil {
			return fmt.Errorf("insert share record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", expense.ID,
		"owner", expense.OwnerID,
		"name", expense.Name,
		"total_cents", expense.Total.Cents,
		"shares", len(shares),
		"strategy", string(strategy))
	return nil
}

func (r *SQLiteRepository) FindExpensesByOwner(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, owner_email, name, total_cents, created_at FROM expenses WHERE owner_email = ? ORDER BY id",
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves a single expense by id; the mirror worker uses it to
// rebuild the exported rows from committed state.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var (
		e         core.Expense
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_email, name, total_cents, created_at FROM expenses WHERE id = ?", id,
	).Scan(&e.ID, &e.OwnerID, &e.Name, &e.Total.Cents, &createdAt)
	if err == sql.ErrNoRows {
		return core.Expense{}, ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}

func (r *SQLiteRepository) FindSharesByExpense(ctx context.Context, expenseID int64) ([]core.ShareRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, owner_email, expense_id, participant_name, amount_cents, strategy FROM share_records WHERE expense_id = ? ORDER BY id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query share records: %w", err)
	}
	defer rows.Close()
	return collectShareRecords(rows)
}

func (r *SQLiteRepository) FindSharesByOwnerAndParticipant(ctx context.Context, owner, participant string) ([]core.ShareRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, owner_email, expense_id, participant_name, amount_cents, strategy FROM share_records WHERE owner_email = ? AND participant_name = ? ORDER BY id",
		owner, participant,
	)
	if err != nil {
		return nil, fmt.Errorf("query share records: %w", err)
	}
	defer rows.Close()
	return collectShareRecords(rows)
}

// SumShareAmounts totals a participant's shares across the owner's expenses.
// COALESCE keeps "no rows" a plain zero instead of a NULL scan error.
func (r *SQLiteRepository) SumShareAmounts(ctx context.Context, owner, participant string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM share_records WHERE owner_email = ? AND participant_name = ?",
		owner, participant,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum share amounts: %w", err)
	}
	return core.MoneyFromCents(cents), nil
}

func (r *SQLiteRepository) SumExpenseTotals(ctx context.Context, owner string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_cents), 0) FROM expenses WHERE owner_email = ?",
		owner,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expense totals: %w", err)
	}
	return core.MoneyFromCents(cents), nil
}

// FindUnmirroredExpenses returns ids of expenses created before cutoff that
// have not been mirrored yet. The worker's catch-up scan uses it to recover
// messages lost between commit and publish.
func (r *SQLiteRepository) FindUnmirroredExpenses(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM expenses WHERE mirrored_at IS NULL AND created_at <= ? ORDER BY id LIMIT ?",
		cutoff.Unix(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unmirrored expenses: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense ids: %w", err)
	}
	return ids, nil
}

// MarkMirrored records that an expense has been appended to the mirror ledger.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET mirrored_at = ? WHERE id = ?",
		time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func scanExpense(rows *sql.Rows) (core.Expense, error) {
	var (
		e         core.Expense
		createdAt int64
	)
	if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Total.Cents, &createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}

func collectShareRecords(rows *sql.Rows) ([]core.ShareRecord, error) {
	var records []core.ShareRecord
	for rows.Next() {
		var (
			rec      core.ShareRecord
			strategy string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.ExpenseID, &rec.ParticipantName, &rec.Amount.Cents, &strategy); err != nil {
			return nil, fmt.Errorf("scan share record: %w", err)
		}
		rec.Strategy = core.Strategy(strategy)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share records: %w", err)
	}
	return records, nil
}
