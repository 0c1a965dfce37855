package statement

import "fmt"

// Status is the outcome of a currency consistency check.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	}
	return "ERROR"
}

// CurrencyCheck is the result of CheckCurrencies: the worst status found and
// one message per problem.
type CurrencyCheck struct {
	Status   Status
	Messages []string
}

func (c *CurrencyCheck) report(s Status, format string, args ...any) {
	c.Status = max(c.Status, s)
	c.Messages = append(c.Messages, fmt.Sprintf(format, args...))
}

// CheckCurrencies verifies the currencies of an item's units: every unit is in
// the transaction currency, forex amounts are in the security currency, there
// is no forex amount when the transaction is in the security currency, and a
// security traded in another currency has a gross value unit with its forex
// amount.
//
// Securities and failures always check OK.
func CheckCurrencies(it Item) CurrencyCheck {
	var c CurrencyCheck
	var tx *Transaction
	switch it := it.(type) {
	case *TransactionItem:
		tx = it.Transaction
	case *BuySellEntryItem:
		tx = it.Entry.Portfolio
	default:
		return c
	}
	cur := tx.Currency()
	secCur := ""
	if tx.Security != nil {
		secCur = tx.Security.Currency
	}
	for _, u := range tx.Units {
		if u.Amount.Currency() != cur {
			c.report(StatusError, "%s is not in the transaction currency %s", u, cur)
		}
		if !u.HasForex() || secCur == "" {
			continue
		}
		switch {
		case secCur == cur:
			c.report(StatusError, "%s has a forex amount but the transaction is in the security currency %s", u, cur)
		case u.Forex.Currency() != secCur && u.Type == UnitGross:
			c.report(StatusError, "%s forex amount is not in the security currency %s", u, secCur)
		case u.Forex.Currency() != secCur:
			c.report(StatusWarning, "%s forex amount is not in the security currency %s", u, secCur)
		}
	}
	if secCur != "" && secCur != cur {
		if u, ok := tx.Unit(UnitGross); !ok || !u.HasForex() {
			c.report(StatusError, "security %s is traded in %s but the transaction in %s has no gross value in %s", tx.Security, secCur, cur, secCur)
		}
	}
	return c
}
