package statement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitType is the role of a Unit in the breakdown of a transaction total.
type UnitType string

const (
	UnitGross UnitType = "GROSS_VALUE"
	UnitTax   UnitType = "TAX"
	UnitFee   UnitType = "FEE"
)

// ParseUnitType returns the UnitType named s.
func ParseUnitType(s string) (UnitType, error) {
	switch t := UnitType(s); t {
	case UnitGross, UnitTax, UnitFee:
		return t, nil
	}
	return "", fmt.Errorf("unknown unit type %q", s)
}

// Unit is one component of a transaction total. Amount is in the transaction
// currency. When the statement also prints the amount in the security
// currency, Forex holds it and Rate converts Forex into Amount.
type Unit struct {
	Type   UnitType
	Amount Money
	Forex  Money
	Rate   decimal.Decimal
}

// NewUnit returns a Unit without forex amount.
func NewUnit(typ UnitType, amount Money) Unit { return Unit{Type: typ, Amount: amount} }

// NewForexUnit returns a Unit with its amount in the security currency.
// amount must be forex converted at rate, within one hundredth.
func NewForexUnit(typ UnitType, amount, forex Money, rate decimal.Decimal) (Unit, error) {
	u := Unit{Type: typ, Amount: amount, Forex: forex, Rate: rate}
	if forex.Currency() == "" || forex.Currency() == amount.Currency() {
		return Unit{}, &UnitError{Unit: u, Reason: "forex amount must be in another currency"}
	}
	if !rate.IsPositive() {
		return Unit{}, &UnitError{Unit: u, Reason: "exchange rate must be positive"}
	}
	converted := forex.Decimal().Mul(rate).RoundBank(2).Shift(2).IntPart()
	if d := converted - amount.Minor(); d > 1 || d < -1 {
		return Unit{}, &UnitError{Unit: u, Reason: fmt.Sprintf("%s at %s is %s", forex, rate, NewMoney(converted, amount.Currency()))}
	}
	return u, nil
}

// HasForex reports whether u carries an amount in the security currency.
func (u Unit) HasForex() bool { return u.Forex.Currency() != "" }

func (u Unit) String() string {
	if u.HasForex() {
		return fmt.Sprintf("%s %s (%s at %s)", u.Type, u.Amount, u.Forex, u.Rate)
	}
	return fmt.Sprintf("%s %s", u.Type, u.Amount)
}

// MarshalJSON implements the json.Marshaler interface for Unit.
func (u Unit) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", u.Type)
	w.Append("amount", u.Amount)
	if u.HasForex() {
		w.Append("forex", u.Forex)
		w.Append("rate", u.Rate)
	}
	return w.MarshalJSON()
}

// UnitError reports a unit that cannot be added to a transaction.
type UnitError struct {
	Unit   Unit
	Reason string
}

func (e *UnitError) Error() string { return fmt.Sprintf("invalid unit %s: %s", e.Unit, e.Reason) }

// AddUnit adds u to the breakdown of t. A transaction has at most one
// gross value unit, taxes and fees can be many.
func (t *Transaction) AddUnit(u Unit) error {
	if u.Type == UnitGross {
		for _, x := range t.Units {
			if x.Type == UnitGross {
				return &UnitError{Unit: u, Reason: "transaction already has a gross value"}
			}
		}
	}
	t.Units = append(t.Units, u)
	return nil
}

// Sum returns the sum of the units of type typ, in the transaction currency.
// Units in another currency are ignored, see CheckCurrencies.
func (t *Transaction) Sum(typ UnitType) Money {
	sum := NewMoney(0, t.Currency())
	for _, u := range t.Units {
		if u.Type == typ && u.Amount.Currency() == t.Currency() {
			sum = sum.Add(u.Amount)
		}
	}
	return sum
}

// Unit returns the first unit of type typ.
func (t *Transaction) Unit(typ UnitType) (Unit, bool) {
	for _, u := range t.Units {
		if u.Type == typ {
			return u, true
		}
	}
	return Unit{}, false
}

// costs returns the sum of fees and taxes.
func (t *Transaction) costs() Money { return t.Sum(UnitFee).Add(t.Sum(UnitTax)) }

// GrossValue returns the gross value of t: its gross unit when present,
// otherwise the total without fees and taxes.
func (t *Transaction) GrossValue() Money {
	if u, ok := t.Unit(UnitGross); ok && u.Amount.Currency() == t.Currency() {
		return u.Amount
	}
	return t.grossFromTotal()
}

func (t *Transaction) grossFromTotal() Money {
	if t.Type.addsCosts() {
		return t.Amount.Sub(t.costs())
	}
	return t.Amount.Add(t.costs())
}

// ReconciliationError reports a transaction whose units do not add up to its total.
type ReconciliationError struct {
	Expected    Money // total computed from the units
	Actual      Money // total as printed
	Discrepancy Money // Actual - Expected
	Reason      string
}

func (e *ReconciliationError) Error() string {
	if e.Reason != "" {
		return "units do not reconcile: " + e.Reason
	}
	return fmt.Sprintf("units do not reconcile: expected total %s, got %s (discrepancy %s)", e.Expected, e.Actual, e.Discrepancy)
}

// Reconcile checks that the units of t add up to its total, exactly:
// gross + fees + taxes for types that pay costs on top, gross - fees - taxes
// for the others. Without a gross value unit, the gross value derived from
// the total must not be negative.
func (t *Transaction) Reconcile() error {
	for _, u := range t.Units {
		if u.Amount.Currency() != t.Currency() {
			return &ReconciliationError{Actual: t.Amount, Reason: fmt.Sprintf("%s is not in the transaction currency %s", u, t.Currency())}
		}
	}
	gross, ok := t.Unit(UnitGross)
	if !ok {
		if g := t.grossFromTotal(); g.IsNegative() {
			return &ReconciliationError{Expected: g, Actual: t.Amount, Discrepancy: g, Reason: fmt.Sprintf("fees and taxes %s exceed the total %s", t.costs(), t.Amount)}
		}
		return nil
	}
	expected := gross.Amount.Sub(t.costs())
	if t.Type.addsCosts() {
		expected = gross.Amount.Add(t.costs())
	}
	if !expected.Equal(t.Amount) {
		return &ReconciliationError{Expected: expected, Actual: t.Amount, Discrepancy: t.Amount.Sub(expected)}
	}
	return nil
}
