// Package money defines the denomination breakdown used for cash counts.
// All arithmetic is performed with shopspring decimals so that totals stay
// exact regardless of how many counts are summed. The same shape is used for
// the opening and the closing count of a cash report.
package money

import "github.com/shopspring/decimal"

// Breakdown records how many pieces of each cash denomination were counted
// in the drawer, plus a free-form remainder for anything that does not fit
// the fixed set (foreign coins, vouchers counted as cash, ...).
type Breakdown struct {
	Fifty  int64           `json:"fifty"`
	Twenty int64           `json:"twenty"`
	Ten    int64           `json:"ten"`
	Five   int64           `json:"five"`
	Two    int64           `json:"two"`
	One    int64           `json:"one"`
	Half   int64           `json:"half"`
	Other  decimal.Decimal `json:"other"`
}

// faceValues pairs each counted field with its face value. Half is 0.50,
// expressed as 50 cents to keep every face value an exact decimal.
var faceValues = []struct {
	value decimal.Decimal
	count func(*Breakdown) int64
}{
	{decimal.New(50, 0), func(b *Breakdown) int64 { return b.Fifty }},
	{decimal.New(20, 0), func(b *Breakdown) int64 { return b.Twenty }},
	{decimal.New(10, 0), func(b *Breakdown) int64 { return b.Ten }},
	{decimal.New(5, 0), func(b *Breakdown) int64 { return b.Five }},
	{decimal.New(2, 0), func(b *Breakdown) int64 { return b.Two }},
	{decimal.New(1, 0), func(b *Breakdown) int64 { return b.One }},
	{decimal.New(50, -2), func(b *Breakdown) int64 { return b.Half }},
}

// Total returns the monetary value of the breakdown:
// sum of count*faceValue over all denominations, plus Other.
func (b Breakdown) Total() decimal.Decimal {
	total := b.Other
	for _, fv := range faceValues {
		total = total.Add(fv.value.Mul(decimal.NewFromInt(fv.count(&b))))
	}
	return total
}

// IsZero reports whether no denomination was counted and Other is zero.
func (b Breakdown) IsZero() bool {
	return b.Fifty == 0 && b.Twenty == 0 && b.Ten == 0 && b.Five == 0 &&
		b.Two == 0 && b.One == 0 && b.Half == 0 && b.Other.IsZero()
}
