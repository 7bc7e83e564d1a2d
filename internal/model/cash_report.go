package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/money"
)

// CashReport is the cash-count record of one show, one-to-one with it.
// It is created at opening and mutated exactly once at closing, when all
// closing fields are set together. A nil ClosingAt means the report is open,
// and at most one report system-wide may be open: the drawer is a single
// physical till.
type CashReport struct {
	ID          uint64
	ShowID      uint64
	OperatorID  uint64
	OpeningCash money.Breakdown
	OpeningAt   time.Time
	ClosingCash *money.Breakdown
	ClosingAt   *time.Time
	// Set at closing, together with ClosingCash.
	POSTotal          decimal.NullDecimal
	TicketTotal       decimal.NullDecimal
	SubscriptionTotal decimal.NullDecimal
}

// Closed reports whether the report reached its terminal state.
func (r *CashReport) Closed() bool { return r.ClosingAt != nil }

// Principal is the authenticated identity supplied by the auth collaborator.
type Principal struct {
	UserID uint64
	Admin  bool
}

// CanClose reports whether the principal may close the given report: only
// the report's own operator or an admin.
func (p Principal) CanClose(r *CashReport) bool {
	return p.Admin || p.UserID == r.OperatorID
}
