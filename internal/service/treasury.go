package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/model"
)

// WithdrawalStore is the persistence surface for withdrawals.
type WithdrawalStore interface {
	Create(ctx context.Context, w *model.Withdrawal) error
	Pending(ctx context.Context) ([]model.Withdrawal, error)
}

// DepositStore creates a deposit and links its withdrawals atomically.
type DepositStore interface {
	CreateWithWithdrawals(ctx context.Context, d *model.BankDeposit, withdrawalIDs []uint64) error
	ListByAdmin(ctx context.Context, adminID uint64) ([]model.BankDeposit, error)
}

// Treasury records cash leaving the drawer and reaching the bank. All
// operations are admin actions; the route-level guard enforces that, the
// service only validates the figures.
type Treasury struct {
	withdrawals WithdrawalStore
	deposits    DepositStore
	now         func() time.Time
}

func NewTreasury(withdrawals WithdrawalStore, deposits DepositStore) *Treasury {
	return &Treasury{withdrawals: withdrawals, deposits: deposits, now: time.Now}
}

// RecordWithdrawal registers cash removed from the drawer. The amount must
// be positive; the withdrawal starts unlinked.
func (t *Treasury) RecordWithdrawal(ctx context.Context, p model.Principal, amount decimal.Decimal, notes *string) (*model.Withdrawal, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	w := &model.Withdrawal{
		Amount:    amount,
		AdminID:   p.UserID,
		Notes:     notes,
		CreatedAt: t.now(),
	}
	if err := t.withdrawals.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// RecordDeposit registers a bank deposit and links the named withdrawals to
// it. The amount is deliberately not checked against the sum of the linked
// withdrawals: partial and rounded deposits happen in practice, and the
// reporting side reconciles them. Duplicate ids are collapsed so re-listing
// the same withdrawal does not make the link ambiguous.
func (t *Treasury) RecordDeposit(ctx context.Context, p model.Principal, amount decimal.Decimal,
	date time.Time, withdrawalIDs []uint64, reference, notes *string) (*model.BankDeposit, error) {

	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Message: "is required"}
	}
	ids := dedupe(withdrawalIDs)
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "withdrawal_ids", Message: "at least one withdrawal is required"}
	}

	d := &model.BankDeposit{
		Amount:    amount,
		Date:      date,
		Reference: reference,
		AdminID:   p.UserID,
		Notes:     notes,
		CreatedAt: t.now(),
	}
	if err := t.deposits.CreateWithWithdrawals(ctx, d, ids); err != nil {
		return nil, err
	}
	return d, nil
}

// Pending lists undeposited withdrawals and their total, the
// outstanding-cash KPI.
func (t *Treasury) Pending(ctx context.Context) ([]model.Withdrawal, decimal.Decimal, error) {
	pending, err := t.withdrawals.Pending(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, w := range pending {
		total = total.Add(w.Amount)
	}
	return pending, total, nil
}

// Deposits lists the deposits recorded by the calling admin, newest first.
func (t *Treasury) Deposits(ctx context.Context, p model.Principal) ([]model.BankDeposit, error) {
	return t.deposits.ListByAdmin(ctx, p.UserID)
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
