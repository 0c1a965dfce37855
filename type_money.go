package statement

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of minor units in one major unit of any Money.
const MoneyScale = 100

// Money is an exact amount in one currency, stored as an integer number of
// hundredths.
type Money struct {
	amount int64
	cur    string
}

// NewMoney returns the Money of minor hundredths in currency.
func NewMoney(minor int64, currency string) Money { return Money{amount: minor, cur: currency} }

// MoneyOf returns the Money for the major unit value, rounded half away from zero to the hundredth.
// value must pass checkMoney.
func MoneyOf(value decimal.Decimal, currency string) Money {
	return Money{amount: value.Shift(2).Round(0).IntPart(), cur: currency}
}

// checkMoney fails if value cannot be held by a Money.
func checkMoney(value decimal.Decimal) error {
	if !value.Shift(2).Round(0).BigInt().IsInt64() {
		return fmt.Errorf("amount %s out of range", value)
	}
	return nil
}

// ValidateCurrency checks that code is a known ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency code %q", code)
	}
	return nil
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the money formatted the way its currency is usually written.
func (m Money) String() string {
	cur := m.currency()
	dec := decimal.New(m.amount, -2).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

func (m Money) Currency() string              { return m.cur }
func (m Money) Minor() int64                  { return m.amount }
func (m Money) Decimal() decimal.Decimal      { return decimal.New(m.amount, -2) }
func (m Money) IsZero() bool                  { return m.amount == 0 }
func (m Money) IsPositive() bool              { return m.amount > 0 }
func (m Money) IsNegative() bool              { return m.amount < 0 }
func (m Money) Neg() Money                    { return Money{amount: -m.amount, cur: m.cur} }
func (m Money) LessThan(n Money) bool         { return m.amount < n.amount }
func (m Money) Equal(n Money) bool            { return m.amount == n.amount && m.cur == n.cur }
func (m Money) WithCurrency(cur string) Money { return Money{amount: m.amount, cur: cur} }

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	if m.amount < 0 {
		return m.Neg()
	}
	return m
}

// binary operators.
func (m Money) Add(n Money) Money { return Money{amount: m.amount + n.amount, cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{amount: m.amount - n.amount, cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + A.cur + "!=" + B.cur)
	}
	return A.cur
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	w.Append("amount", m.Decimal())
	return w.MarshalJSON()
}
