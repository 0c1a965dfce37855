package statement

import (
	"fmt"

	"github.com/etnz/statement/security"
)

// Item is one result of an extraction. The set of items is closed:
// *SecurityItem, *TransactionItem, *BuySellEntryItem and *FailureItem.
// Consumers are expected to switch on the concrete type.
type Item interface {
	Origin() Origin
	item()
}

// Origin locates the lines an item was extracted from.
type Origin struct {
	Document string
	Block    string
	From, To Pos // inclusive
}

func (o Origin) String() string {
	return fmt.Sprintf("%s: block %q, page %d line %d to page %d line %d", o.Document, o.Block, o.From.Page+1, o.From.Line+1, o.To.Page+1, o.To.Line+1)
}

// SecurityItem announces a security that is not in the registry snapshot.
// It comes before the first item referring to it.
type SecurityItem struct {
	Security *security.Security
	From     Origin
}

// TransactionItem is a single transaction. Issue holds the
// *ReconciliationError when its units do not add up to its total.
type TransactionItem struct {
	Transaction *Transaction
	Issue       error
	From        Origin
}

// BuySellEntryItem is a trade booked both on the portfolio and on the account.
// Issue holds the *ReconciliationError when its units do not add up.
type BuySellEntryItem struct {
	Entry *BuySellEntry
	Issue error
	From  Origin
}

// FailureItem is a transaction that was recognized but cannot be imported.
// It is data, not an error: the extraction goes on.
type FailureItem struct {
	Message string
	Partial *Transaction // what could be read, may be nil
	From    Origin
}

func (i *SecurityItem) Origin() Origin     { return i.From }
func (i *TransactionItem) Origin() Origin  { return i.From }
func (i *BuySellEntryItem) Origin() Origin { return i.From }
func (i *FailureItem) Origin() Origin      { return i.From }

func (*SecurityItem) item()     {}
func (*TransactionItem) item()  {}
func (*BuySellEntryItem) item() {}
func (*FailureItem) item()      {}

// MsgUnsupported is the message of failure items for transactions the
// statement describes but that cannot be represented.
const MsgUnsupported = "transaction type not supported"

// Subject returns the main transaction of an item, nil for a security.
func Subject(it Item) *Transaction {
	switch it := it.(type) {
	case *TransactionItem:
		return it.Transaction
	case *BuySellEntryItem:
		return it.Entry.Portfolio
	case *FailureItem:
		return it.Partial
	}
	return nil
}

// IssueOf returns the reconciliation issue attached to it, if any.
func IssueOf(it Item) error {
	switch it := it.(type) {
	case *TransactionItem:
		return it.Issue
	case *BuySellEntryItem:
		return it.Issue
	}
	return nil
}

// MarshalItem returns the JSON representation of it, tagged by its kind.
func MarshalItem(it Item) ([]byte, error) {
	var w jsonObjectWriter
	switch it := it.(type) {
	case *SecurityItem:
		w.Append("item", "security")
		w.EmbedFrom(it.Security)
	case *TransactionItem:
		w.Append("item", "transaction")
		w.EmbedFrom(it.Transaction)
		if it.Issue != nil {
			w.Append("issue", it.Issue.Error())
		}
	case *BuySellEntryItem:
		w.Append("item", "buysell")
		w.EmbedFrom(it.Entry)
		if it.Issue != nil {
			w.Append("issue", it.Issue.Error())
		}
	case *FailureItem:
		w.Append("item", "failure")
		w.Append("message", it.Message)
		w.Optional("partial", it.Partial)
	default:
		return nil, fmt.Errorf("unknown item type %T", it)
	}
	o := it.Origin()
	w.Append("origin", fmt.Sprintf("%s:%d:%d", o.Block, o.From.Page+1, o.From.Line+1))
	return w.MarshalJSON()
}
