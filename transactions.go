package statement

import (
	"fmt"
	"slices"

	"github.com/etnz/statement/date"
	"github.com/etnz/statement/security"
)

// TxType identifies the kind of a transaction.
type TxType string

// Transaction types as they are written in rule sets and JSON output.
const (
	TxBuy              TxType = "BUY"
	TxSell             TxType = "SELL"
	TxDeposit          TxType = "DEPOSIT"
	TxRemoval          TxType = "REMOVAL"
	TxInterest         TxType = "INTEREST"
	TxInterestCharge   TxType = "INTEREST_CHARGE"
	TxDividends        TxType = "DIVIDENDS"
	TxFees             TxType = "FEES"
	TxFeesRefund       TxType = "FEES_REFUND"
	TxTaxes            TxType = "TAXES"
	TxTaxRefund        TxType = "TAX_REFUND"
	TxTransferIn       TxType = "TRANSFER_IN"
	TxTransferOut      TxType = "TRANSFER_OUT"
	TxDeliveryInbound  TxType = "DELIVERY_INBOUND"
	TxDeliveryOutbound TxType = "DELIVERY_OUTBOUND"
)

var txTypes = []TxType{
	TxBuy, TxSell, TxDeposit, TxRemoval, TxInterest, TxInterestCharge, TxDividends,
	TxFees, TxFeesRefund, TxTaxes, TxTaxRefund, TxTransferIn, TxTransferOut,
	TxDeliveryInbound, TxDeliveryOutbound,
}

// ParseTxType returns the TxType named s.
func ParseTxType(s string) (TxType, error) {
	if t := TxType(s); slices.Contains(txTypes, t) {
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// addsCosts reports whether fees and taxes are paid on top of the gross
// value (the total is gross + fees + taxes) or deducted from it (the total is
// gross - fees - taxes).
func (t TxType) addsCosts() bool {
	switch t {
	case TxBuy, TxDeliveryInbound, TxRemoval, TxFees, TxTaxes, TxInterestCharge:
		return true
	}
	return false
}

// IsBuySell reports whether t is booked as a buy/sell entry.
func (t TxType) IsBuySell() bool { return t == TxBuy || t == TxSell }

// Transaction is a single financial event extracted from a statement.
//
// Amount is the total as printed, always positive, in the transaction
// currency. The breakdown of the total is carried by Units.
type Transaction struct {
	Type     TxType
	DateTime date.DateTime
	Amount   Money
	Shares   Shares
	Security *security.Security
	Units    []Unit
	ExDate   date.Date
	Note     string
	Source   string // name of the document
}

// Currency returns the transaction currency.
func (t *Transaction) Currency() string { return t.Amount.Currency() }

func (t *Transaction) String() string {
	s := fmt.Sprintf("%s %s %s", t.DateTime.Date, t.Type, t.Amount)
	if t.Security != nil {
		s += " " + t.Security.String()
	}
	return s
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", t.Type)
	w.Append("date", t.DateTime)
	w.Append("amount", t.Amount)
	w.Optional("shares", t.Shares)
	w.Optional("security", t.Security)
	w.Optional("units", t.Units)
	w.Optional("exDate", t.ExDate)
	w.Optional("note", t.Note)
	w.Optional("source", t.Source)
	return w.MarshalJSON()
}

// BuySellEntry is a trade booked on both sides: the securities portfolio and
// the cash account. Both sides share the same type, amount and date.
type BuySellEntry struct {
	Portfolio *Transaction
	Account   *Transaction
}

// MarshalJSON implements the json.Marshaler interface for BuySellEntry.
func (e *BuySellEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("portfolio", e.Portfolio)
	w.Append("account", e.Account)
	return w.MarshalJSON()
}
