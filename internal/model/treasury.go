package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal is cash removed from the drawer by an admin. DepositID stays
// nil until the money reaches the bank; once linked, the record is immutable
// except for the link itself.
type Withdrawal struct {
	ID        uint64
	Amount    decimal.Decimal
	AdminID   uint64
	Notes     *string
	CreatedAt time.Time
	DepositID *uint64
}

// BankDeposit is one trip to the bank. It absorbs any number of
// withdrawals; its amount is deliberately not required to equal their sum,
// because partial or rounded deposits happen in practice.
type BankDeposit struct {
	ID        uint64
	Amount    decimal.Decimal
	Date      time.Time
	Reference *string
	AdminID   uint64
	Notes     *string
	CreatedAt time.Time
}
