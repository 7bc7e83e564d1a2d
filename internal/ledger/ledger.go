// Package ledger implements the cash drawer arithmetic: the expected opening
// float derived from the previous closed report, the opening count validation
// and the closing reconciliation between declared box-office sales and the
// cash and card amounts actually taken in.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matteoriva/cinecassa/internal/money"
)

// Tolerance is the maximum absolute difference accepted when comparing two
// monetary figures. One cent absorbs rounding across many summed counts.
var Tolerance = decimal.New(1, -2)

// OpeningMismatchError is returned when the counted opening float does not
// match the expected one within Tolerance. Both figures are carried so the
// caller can show them to the operator.
type OpeningMismatchError struct {
	Expected decimal.Decimal
	Counted  decimal.Decimal
}

func (e *OpeningMismatchError) Error() string {
	return fmt.Sprintf("opening cash %s does not match expected float %s",
		e.Counted.StringFixed(2), e.Expected.StringFixed(2))
}

// ExpectedOpening computes the float that should be in the drawer before a
// show: the closing total of the previous closed report minus every
// withdrawal taken since that show. Withdrawals are anchored to the show's
// scheduled time, not the report's closing time, because cash can be pulled
// between the show ending and the report being formally closed.
func ExpectedOpening(prevClosing decimal.Decimal, withdrawals []decimal.Decimal) decimal.Decimal {
	expected := prevClosing
	for _, w := range withdrawals {
		expected = expected.Sub(w)
	}
	return expected
}

// ValidateOpening checks the counted opening float against the expected one.
// A difference of exactly Tolerance passes.
func ValidateOpening(counted money.Breakdown, expected decimal.Decimal) error {
	total := counted.Total()
	if total.Sub(expected).Abs().GreaterThan(Tolerance) {
		return &OpeningMismatchError{Expected: expected, Counted: total}
	}
	return nil
}

// Reconciliation is the outcome of closing a cash report. The figures are
// derivable from the persisted report fields and are therefore returned to
// the caller but never stored.
type Reconciliation struct {
	// CashDifference is closing cash minus opening cash: what the drawer
	// actually took in during the show.
	CashDifference decimal.Decimal `json:"cash_difference"`
	// DeclaredIncome is what the ticketing system says was sold
	// (tickets plus subscriptions).
	DeclaredIncome decimal.Decimal `json:"declared_income"`
	// ActualIncome is cash difference plus card (POS) takings.
	ActualIncome decimal.Decimal `json:"actual_income"`
	// BalanceDifference is declared minus actual. Positive means more was
	// declared sold than collected (a shortfall to investigate); negative
	// means the drawer collected more than declared.
	BalanceDifference decimal.Decimal `json:"balance_difference"`
	Balanced          bool            `json:"balanced"`
}

// Reconcile computes the closing reconciliation for a report.
func Reconcile(opening, closing money.Breakdown, posTotal, ticketTotal, subscriptionTotal decimal.Decimal) Reconciliation {
	cashDiff := closing.Total().Sub(opening.Total())
	declared := ticketTotal.Add(subscriptionTotal)
	actual := cashDiff.Add(posTotal)
	balance := declared.Sub(actual)
	return Reconciliation{
		CashDifference:    cashDiff,
		DeclaredIncome:    declared,
		ActualIncome:      actual,
		BalanceDifference: balance,
		Balanced:          !balance.Abs().GreaterThan(Tolerance),
	}
}
