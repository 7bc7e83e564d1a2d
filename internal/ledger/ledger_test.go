package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matteoriva/cinecassa/internal/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExpectedOpening(t *testing.T) {
	got := ExpectedOpening(dec("100.00"), []decimal.Decimal{dec("20.00"), dec("10.00")})
	assert.True(t, got.Equal(dec("70.00")), "expected opening = %s", got)
}

func TestExpectedOpeningNoWithdrawals(t *testing.T) {
	got := ExpectedOpening(dec("85.50"), nil)
	assert.True(t, got.Equal(dec("85.50")))
}

func TestValidateOpening(t *testing.T) {
	expected := dec("70.00")

	// e.g. 70 one-unit pieces counted.
	assert.NoError(t, ValidateOpening(money.Breakdown{One: 70}, expected))

	// One cent over is exactly the tolerance boundary and passes.
	assert.NoError(t, ValidateOpening(money.Breakdown{One: 70, Other: dec("0.01")}, expected))

	// Two cents over is outside the tolerance.
	err := ValidateOpening(money.Breakdown{One: 70, Other: dec("0.02")}, expected)
	require.Error(t, err)
	var mismatch *OpeningMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, mismatch.Expected.Equal(dec("70.00")))
	assert.True(t, mismatch.Counted.Equal(dec("70.02")))
}

func TestReconcile(t *testing.T) {
	opening := money.Breakdown{Fifty: 1, Twenty: 1}          // 70.00
	closing := money.Breakdown{Fifty: 5}                     // 250.00
	r := Reconcile(opening, closing, dec("40.00"), dec("180.00"), dec("30.00"))

	assert.True(t, r.CashDifference.Equal(dec("180.00")), "cash difference = %s", r.CashDifference)
	assert.True(t, r.DeclaredIncome.Equal(dec("210.00")), "declared = %s", r.DeclaredIncome)
	assert.True(t, r.ActualIncome.Equal(dec("220.00")), "actual = %s", r.ActualIncome)
	assert.True(t, r.BalanceDifference.Equal(dec("-10.00")), "balance = %s", r.BalanceDifference)
	assert.False(t, r.Balanced)
}

func TestReconcileBalancedWithinTolerance(t *testing.T) {
	opening := money.Breakdown{Fifty: 1}
	closing := money.Breakdown{Fifty: 3, Other: dec("0.01")} // 150.01
	// declared 120.00, actual 100.01 + 20.00 = 120.01: off by one cent.
	r := Reconcile(opening, closing, dec("20.00"), dec("100.00"), dec("20.00"))
	assert.True(t, r.BalanceDifference.Equal(dec("-0.01")))
	assert.True(t, r.Balanced)
}
