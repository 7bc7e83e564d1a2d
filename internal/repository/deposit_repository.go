package repository

import (
	"context"
	"database/sql"

	"github.com/matteoriva/cinecassa/internal/model"
)

// DepositRepo manages persistence for bank deposits.
type DepositRepo struct {
	db          *sql.DB
	withdrawals *WithdrawalRepo
}

// NewDepositRepo constructs a DepositRepo. It needs the withdrawal repo to
// link withdrawals inside the same transaction that creates the deposit.
func NewDepositRepo(db *sql.DB, withdrawals *WithdrawalRepo) *DepositRepo {
	return &DepositRepo{db: db, withdrawals: withdrawals}
}

// CreateWithWithdrawals inserts the deposit and links every named
// withdrawal to it in a single transaction, so a deposit row can never
// exist without its links nor the other way round. Linking a withdrawal
// that is missing or already banked elsewhere aborts the whole operation
// with ErrWithdrawalNotFound.
func (r *DepositRepo) CreateWithWithdrawals(ctx context.Context, d *model.BankDeposit, withdrawalIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bank_deposits (amount, date, reference, admin_id, notes, created_at)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, d.Amount, d.Date, d.Reference, d.AdminID, d.Notes, d.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)

	if err = r.withdrawals.LinkToDepositTx(ctx, tx, d.ID, withdrawalIDs); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ListByAdmin returns deposits created by the given admin, newest first.
func (r *DepositRepo) ListByAdmin(ctx context.Context, adminID uint64) ([]model.BankDeposit, error) {
	const q = `SELECT id, amount, date, reference, admin_id, notes, created_at
               FROM bank_deposits WHERE admin_id = ? ORDER BY date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.BankDeposit{}
	for rows.Next() {
		var d model.BankDeposit
		if err := rows.Scan(&d.ID, &d.Amount, &d.Date, &d.Reference, &d.AdminID, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
