package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/statement"
)

// Transaction renders a transaction to a string.
func Transaction(tx *statement.Transaction) string {
	if tx == nil {
		return "unknown transaction"
	}
	day := tx.DateTime.Date
	switch tx.Type {
	case statement.TxBuy:
		return fmt.Sprintf("%s bought %s of %s for %s", day, tx.Shares, tx.Security, tx.Amount)
	case statement.TxSell:
		return fmt.Sprintf("%s sold %s of %s for %s", day, tx.Shares, tx.Security, tx.Amount)
	case statement.TxDividends:
		return fmt.Sprintf("%s dividend of %s for %s", day, tx.Amount, tx.Security)
	case statement.TxDeposit:
		return fmt.Sprintf("%s deposited %s", day, tx.Amount)
	case statement.TxRemoval:
		return fmt.Sprintf("%s withdrew %s", day, tx.Amount)
	case statement.TxInterest:
		return fmt.Sprintf("%s interest of %s", day, tx.Amount)
	default:
		return tx.String()
	}
}

// Units renders the breakdown of tx, gross value first.
func Units(tx *statement.Transaction) string {
	var parts []string
	for _, typ := range []statement.UnitType{statement.UnitGross, statement.UnitFee, statement.UnitTax} {
		for _, u := range tx.Units {
			if u.Type != typ {
				continue
			}
			s := strings.ToLower(strings.ReplaceAll(string(u.Type), "_", " ")) + " " + u.Amount.String()
			if u.HasForex() {
				s += " (" + u.Forex.String() + ")"
			}
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
