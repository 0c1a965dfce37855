package renderer

import (
	"fmt"

	"github.com/etnz/statement"
)

// Report is the view of a statement.Batch rendered by RenderReport.
type Report struct {
	Documents  []DocumentReport
	Securities []string // new securities

	Succeeded, Flagged, Failed int
}

// DocumentReport is the view of the extraction of one document.
type DocumentReport struct {
	Name    string
	RuleSet string
	Status  string
	Items   []ItemReport
	Issues  []string // errors, failures, reconciliation and currency problems
}

// ItemReport is one row of the table of items of a document.
type ItemReport struct {
	Date     string
	Type     string
	Amount   string
	Security string
	Details  string
}

// NewReport returns the view of b.
func NewReport(b *statement.Batch) *Report {
	r := &Report{Succeeded: b.Succeeded, Flagged: b.Flagged, Failed: b.Failed}
	for _, s := range b.NewSecurities {
		r.Securities = append(r.Securities, s.String())
	}
	for _, res := range b.Results {
		r.Documents = append(r.Documents, newDocumentReport(res))
	}
	return r
}

func newDocumentReport(res *statement.Result) DocumentReport {
	d := DocumentReport{Name: res.Document, RuleSet: res.RuleSet, Status: res.Status().String()}
	for _, it := range res.Items {
		row, issues := newItemReport(it)
		d.Items = append(d.Items, row)
		d.Issues = append(d.Issues, issues...)
	}
	for _, err := range res.Errors {
		d.Issues = append(d.Issues, err.Error())
	}
	return d
}

// newItemReport returns the row of it, and the problems found on it.
func newItemReport(it statement.Item) (ItemReport, []string) {
	var issues []string
	if sec, ok := it.(*statement.SecurityItem); ok {
		return ItemReport{Type: "SECURITY", Security: sec.Security.String(), Details: "new security"}, nil
	}
	tx := statement.Subject(it)
	var row ItemReport
	if tx != nil {
		row = ItemReport{
			Date:    tx.DateTime.Date.String(),
			Type:    string(tx.Type),
			Amount:  tx.Amount.String(),
			Details: Units(tx),
		}
		if tx.Security != nil {
			row.Security = tx.Security.String()
		}
		if tx.Note != "" {
			row.Details = join(row.Details, tx.Note)
		}
	}
	switch it := it.(type) {
	case *statement.FailureItem:
		row.Details = join("not imported: "+it.Message, row.Details)
		issues = append(issues, fmt.Sprintf("%s: %s", it.Origin(), it.Message))
	case *statement.BuySellEntryItem:
		row.Details = join(row.Details, "booked on the account")
	}
	if err := statement.IssueOf(it); err != nil {
		issues = append(issues, fmt.Sprintf("%s: %v", Transaction(tx), err))
	}
	if check := statement.CheckCurrencies(it); check.Status != statement.StatusOK {
		for _, m := range check.Messages {
			issues = append(issues, fmt.Sprintf("%s: %s: %s", Transaction(tx), check.Status, m))
		}
	}
	return row, issues
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + ", " + b
}
