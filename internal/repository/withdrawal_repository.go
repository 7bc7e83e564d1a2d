package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/model"
)

// WithdrawalRepo manages persistence for cash withdrawals.
type WithdrawalRepo struct {
	db *sql.DB
}

// NewWithdrawalRepo constructs a WithdrawalRepo with the given DB handle.
func NewWithdrawalRepo(db *sql.DB) *WithdrawalRepo {
	return &WithdrawalRepo{db: db}
}

const withdrawalColumns = `id, amount, admin_id, notes, created_at, deposit_id`

func scanWithdrawal(row interface{ Scan(...any) error }) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := row.Scan(&w.ID, &w.Amount, &w.AdminID, &w.Notes, &w.CreatedAt, &w.DepositID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a withdrawal. It is always unlinked at creation; the
// deposit link is set later, when the cash reaches the bank.
func (r *WithdrawalRepo) Create(ctx context.Context, w *model.Withdrawal) error {
	const q = `INSERT INTO withdrawals (amount, admin_id, notes, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, w.Amount, w.AdminID, w.Notes, w.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// Pending returns all withdrawals not yet linked to a deposit, oldest first.
func (r *WithdrawalRepo) Pending(ctx context.Context) ([]model.Withdrawal, error) {
	const q = `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE deposit_id IS NULL ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Withdrawal{}
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

// SumSince returns the total amount withdrawn at or after the given time,
// linked or not: a withdrawal reduces the drawer the moment it happens.
func (r *WithdrawalRepo) SumSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE created_at >= ?`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// LinkToDepositTx links the given withdrawals to a deposit inside the
// caller's transaction. Only unlinked withdrawals (or ones already linked to
// this same deposit, making the call idempotent) count; when fewer rows
// match than ids were given, some withdrawal is missing or belongs to a
// different deposit and ErrWithdrawalNotFound is returned.
func (r *WithdrawalRepo) LinkToDepositTx(ctx context.Context, tx *sql.Tx, depositID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := `UPDATE withdrawals SET deposit_id = ?
          WHERE id IN (` + placeholders + `) AND (deposit_id IS NULL OR deposit_id = ?)`
	args := make([]any, 0, len(ids)+2)
	args = append(args, depositID)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, depositID)

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	// Rows already linked to this deposit report zero affected rows under
	// MySQL's default CLIENT_FOUND_ROWS=off, so count matches instead.
	var matched int
	countQ := `SELECT COUNT(*) FROM withdrawals WHERE id IN (` + placeholders + `) AND deposit_id = ?`
	countArgs := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		countArgs = append(countArgs, id)
	}
	countArgs = append(countArgs, depositID)
	if err := tx.QueryRowContext(ctx, countQ, countArgs...).Scan(&matched); err != nil {
		return err
	}
	if matched != len(ids) {
		return ErrWithdrawalNotFound
	}
	return nil
}
