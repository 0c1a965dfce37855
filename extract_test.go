package statement

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/etnz/statement/date"
	"github.com/etnz/statement/security"
)

func TestExtract_BuySell(t *testing.T) {
	testCases := []struct {
		name string
		want *Transaction
	}{
		{
			name: "Kauf01",
			want: &Transaction{
				Type:     TxBuy,
				DateTime: date.At(date.New(2024, time.March, 5), date.NewClock(9, 5)),
				Amount:   EUR(533),
				Shares:   100 * SharesScale,
				Security: &security.Security{Name: "COMSTAGE-MSCI WORLD TRN U.ETF", ISIN: "LU0392494562", WKN: "ETF110", Currency: "EUR"},
				Units:    []Unit{NewUnit(UnitFee, EUR(11)), NewUnit(UnitTax, EUR(22)), NewUnit(UnitGross, EUR(500))},
				Source:   "Kauf01",
			},
		},
		{
			name: "Verkauf01",
			want: &Transaction{
				Type:     TxSell,
				DateTime: date.At(date.New(2023, time.September, 12), date.NewClock(15, 30)),
				Amount:   EUR(273.40),
				Shares:   50 * SharesScale,
				Security: &security.Security{Name: "BASF SE NAMENS-AKTIEN O.N.", ISIN: "DE000BASF111", WKN: "BASF11", Currency: "EUR"},
				Units:    []Unit{NewUnit(UnitFee, EUR(9.90)), NewUnit(UnitTax, EUR(15.83)), NewUnit(UnitTax, EUR(0.87)), NewUnit(UnitGross, EUR(300))},
				Source:   "Verkauf01",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := extractFixture(t, "dkb", tc.name)
			if len(res.Errors) > 0 {
				t.Fatalf("Extract() errors = %v", res.Errors)
			}
			if len(res.Items) != 2 {
				t.Fatalf("Extract() got %d items, want 2: %v", len(res.Items), res.Items)
			}
			sec, ok := res.Items[0].(*SecurityItem)
			if !ok {
				t.Fatalf("first item is %T, want *SecurityItem", res.Items[0])
			}
			entry, ok := res.Items[1].(*BuySellEntryItem)
			if !ok {
				t.Fatalf("second item is %T, want *BuySellEntryItem", res.Items[1])
			}
			if entry.Issue != nil {
				t.Errorf("unexpected issue: %v", entry.Issue)
			}
			if got := entry.Entry.Portfolio; !reflect.DeepEqual(got, tc.want) {
				t.Errorf("portfolio side:\n got %#v\nwant %#v", got, tc.want)
			}
			if sec.Security != entry.Entry.Portfolio.Security {
				t.Errorf("the transaction does not refer to the announced security")
			}
			account := entry.Entry.Account
			if !account.Amount.Equal(tc.want.Amount) || account.DateTime != tc.want.DateTime {
				t.Errorf("account side %v does not match portfolio side %v", account, tc.want)
			}
			if got := res.Status(); got != Succeeded {
				t.Errorf("Status() = %v, want %v", got, Succeeded)
			}
		})
	}
}

// A statement whose page break falls in the middle of a dividend yields the
// same transaction as the one page statement.
func TestExtract_AcrossPages(t *testing.T) {
	split := extractFixture(t, "dkb", "Dividende01")
	single := extractFixture(t, "dkb", "Dividende02")
	if len(split.Errors) > 0 || len(single.Errors) > 0 {
		t.Fatalf("Extract() errors = %v, %v", split.Errors, single.Errors)
	}
	got, want := transactions(split), transactions(single)
	if len(got) != 1 || len(want) != 1 {
		t.Fatalf("got %d and %d transactions, want 1 each", len(got), len(want))
	}
	got[0].Source, want[0].Source = "", ""
	if !reflect.DeepEqual(got[0], want[0]) {
		t.Errorf("split statement:\n got %v\nwant %v", got[0], want[0])
	}

	tx := got[0]
	if tx.Type != TxDividends || !tx.Amount.Equal(EUR(114.28)) || tx.Shares != 200*SharesScale {
		t.Errorf("unexpected dividend %v", tx)
	}
	if tx.ExDate != date.New(2024, time.April, 10) {
		t.Errorf("ExDate = %v, want 2024-04-10", tx.ExDate)
	}
	wantUnits := []Unit{NewUnit(UnitTax, EUR(37.65)), NewUnit(UnitTax, EUR(2.07)), NewUnit(UnitGross, EUR(154))}
	if !reflect.DeepEqual(tx.Units, wantUnits) {
		t.Errorf("Units = %v, want %v", tx.Units, wantUnits)
	}
	if err := IssueOf(split.Items[1]); err != nil {
		t.Errorf("unexpected issue: %v", err)
	}
}

func TestExtract_Interest(t *testing.T) {
	res := extractFixture(t, "dkb", "Zinsen01")
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	want := &Transaction{
		Type:     TxInterest,
		DateTime: date.At(date.New(2024, time.March, 31), date.Clock{}),
		Amount:   EUR(91.78),
		Units:    []Unit{NewUnit(UnitTax, EUR(31.17)), NewUnit(UnitTax, EUR(1.71)), NewUnit(UnitGross, EUR(124.66))},
		Note:     "Habenzinsen 2,50 %",
		Source:   "Zinsen01",
	}
	if len(res.Items) != 1 {
		t.Fatalf("Extract() got %d items, want 1", len(res.Items))
	}
	item := res.Items[0].(*TransactionItem)
	if !reflect.DeepEqual(item.Transaction, want) {
		t.Errorf("Extract():\n got %#v\nwant %#v", item.Transaction, want)
	}
	if item.Issue != nil {
		t.Errorf("unexpected issue: %v", item.Issue)
	}
}

// An unsupported corporate action becomes a failure item and the extraction
// goes on with the trade that follows it.
func TestExtract_Unsupported(t *testing.T) {
	res := extractFixture(t, "dkb", "Verschmelzung01")
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	if len(res.Items) != 3 {
		t.Fatalf("Extract() got %d items, want 3: %v", len(res.Items), res.Items)
	}
	failure, ok := res.Items[0].(*FailureItem)
	if !ok {
		t.Fatalf("first item is %T, want *FailureItem", res.Items[0])
	}
	if failure.Message != MsgUnsupported {
		t.Errorf("Message = %q, want %q", failure.Message, MsgUnsupported)
	}
	if p := failure.Partial; p == nil || p.Shares != 20*SharesScale || p.DateTime.Date != date.New(2019, time.April, 8) {
		t.Errorf("unexpected partial transaction %v", failure.Partial)
	}
	if _, ok := res.Items[1].(*SecurityItem); !ok {
		t.Errorf("second item is %T, want *SecurityItem", res.Items[1])
	}
	entry, ok := res.Items[2].(*BuySellEntryItem)
	if !ok {
		t.Fatalf("third item is %T, want *BuySellEntryItem", res.Items[2])
	}
	if tx := entry.Entry.Portfolio; tx.Security.ISIN != "IE00BZ12WP82" || !tx.Amount.Equal(EUR(1590)) {
		t.Errorf("unexpected purchase %v", tx)
	}
	if entry.From.From.Page != 1 {
		t.Errorf("purchase extracted from page %d, want 2", entry.From.From.Page+1)
	}
	if got := res.Status(); got != Flagged {
		t.Errorf("Status() = %v, want %v", got, Flagged)
	}
}

func TestExtract_ForexDividend(t *testing.T) {
	res := extractFixture(t, "zkb", "Dividende01")
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	if len(res.Items) != 2 {
		t.Fatalf("Extract() got %d items, want 2: %v", len(res.Items), res.Items)
	}
	item, ok := res.Items[1].(*TransactionItem)
	if !ok {
		t.Fatalf("second item is %T, want *TransactionItem", res.Items[1])
	}
	tx := item.Transaction
	if tx.Type != TxDividends || !tx.Amount.Equal(USD(18.20)) {
		t.Errorf("unexpected dividend %v", tx)
	}
	if tx.Security.Name != "Nestlé SA" || tx.Security.Currency != "CHF" {
		t.Errorf("unexpected security %v", tx.Security)
	}
	if tx.ExDate != date.New(2024, time.April, 22) || tx.DateTime.Date != date.New(2024, time.April, 24) {
		t.Errorf("unexpected dates %v, ex %v", tx.DateTime, tx.ExDate)
	}
	gross, ok := tx.Unit(UnitGross)
	if !ok {
		t.Fatalf("no gross value unit in %v", tx.Units)
	}
	if !gross.Amount.Equal(USD(28)) || !gross.Forex.Equal(CHF(25)) || !gross.Rate.Equal(D("1.12")) {
		t.Errorf("gross value = %v, want 28.00 USD (25.00 CHF at 1.12)", gross)
	}
	if got := tx.Sum(UnitTax); !got.Equal(USD(9.80)) {
		t.Errorf("taxes = %v, want %v", got, USD(9.80))
	}
	if item.Issue != nil {
		t.Errorf("unexpected issue: %v", item.Issue)
	}
	if check := CheckCurrencies(item); check.Status != StatusOK {
		t.Errorf("CheckCurrencies() = %v %v, want OK", check.Status, check.Messages)
	}
}

func TestExtract_Rows(t *testing.T) {
	res := extractFixture(t, "ibkr", "Activity01")
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	type row struct {
		typ    TxType
		day    date.Date
		amount Money
		isin   string
	}
	want := []row{
		{TxDividends, date.New(2024, time.January, 15), USD(24), "US0378331005"},
		{TxDividends, date.New(2024, time.February, 15), USD(37.50), "US5949181045"},
		{TxDividends, date.New(2024, time.March, 14), USD(48.50), "US1912161007"},
		{TxTaxes, date.New(2024, time.January, 15), USD(3.60), "US0378331005"},
		{TxDeposit, date.New(2024, time.January, 2), USD(5000), ""},
		{TxRemoval, date.New(2024, time.March, 1), USD(1000), ""},
	}
	var got []row
	for _, tx := range transactions(res) {
		r := row{tx.Type, tx.DateTime.Date, tx.Amount, ""}
		if tx.Security != nil {
			r.isin = tx.Security.ISIN
		}
		got = append(got, r)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() rows:\n got %v\nwant %v", got, want)
	}
	if got := len(res.NewSecurities()); got != 3 {
		t.Errorf("NewSecurities() = %d securities, want 3", got)
	}
	for _, it := range res.Items {
		if err := IssueOf(it); err != nil {
			t.Errorf("%v: unexpected issue: %v", it.Origin(), err)
		}
	}
}

func TestExtract_JSON(t *testing.T) {
	rs := builtin(t, "export")
	data, err := readTestdata("export/Export01.json")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := DocumentFromJSON("Export01", data, rs.Selector)
	if err != nil {
		t.Fatalf("DocumentFromJSON() failed: %v", err)
	}
	res := Extract(doc, rs, nil)
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	txs := transactions(res)
	if len(txs) != 3 {
		t.Fatalf("Extract() got %d transactions, want 3", len(txs))
	}
	wantTypes := []TxType{TxDividends, TxInterest, TxFees}
	for i, tx := range txs {
		if tx.Type != wantTypes[i] {
			t.Errorf("transaction #%d type = %v, want %v", i, tx.Type, wantTypes[i])
		}
	}
	if got := txs[0].GrossValue(); !got.Equal(EUR(15.80)) {
		t.Errorf("dividend gross value = %v, want %v", got, EUR(15.80))
	}
	if txs[0].Security == nil || txs[0].Security.ISIN != "DE0005557508" {
		t.Errorf("dividend security = %v", txs[0].Security)
	}
}

// Extracting twice the same document yields the same result.
func TestExtract_Idempotent(t *testing.T) {
	for _, fixture := range [][2]string{{"dkb", "Kauf01"}, {"dkb", "Verschmelzung01"}, {"zkb", "Dividende01"}, {"ibkr", "Activity01"}} {
		doc := loadFixture(t, fixture[0], fixture[1])
		rs := builtin(t, fixture[0])
		first, second := Extract(doc, rs, nil), Extract(doc, rs, nil)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: two extractions differ", fixture[1])
		}
	}
}

// Items never share lines: each one starts after the previous one ended.
func TestExtract_NoOverlap(t *testing.T) {
	after := func(a, b Pos) bool { return a.Page > b.Page || (a.Page == b.Page && a.Line > b.Line) }
	for _, fixture := range [][2]string{{"dkb", "Dividende01"}, {"dkb", "Verschmelzung01"}, {"ibkr", "Activity01"}} {
		res := extractFixture(t, fixture[0], fixture[1])
		var last *Origin
		for _, it := range res.Items {
			if _, ok := it.(*SecurityItem); ok {
				continue
			}
			o := it.Origin()
			if last != nil && !after(o.From, last.To) {
				t.Errorf("%s: %v overlaps %v", fixture[1], o, *last)
			}
			last = &o
		}
	}
}

func TestExtract_Registry(t *testing.T) {
	telekom := &security.Security{Name: "Deutsche Telekom AG", ISIN: "DE0005557508", Currency: "EUR"}
	res := Extract(loadFixture(t, "dkb", "Dividende02"), builtin(t, "dkb"), security.NewRegistry(telekom))
	if len(res.Items) != 1 {
		t.Fatalf("Extract() got %d items, want 1: %v", len(res.Items), res.Items)
	}
	if got := Subject(res.Items[0]).Security; got != telekom {
		t.Errorf("security = %v, want the registry's %v", got, telekom)
	}
}

// The registry decides the security currency, and so the forex gross value.
func TestExtract_RegistryCurrency(t *testing.T) {
	rs, err := ParseRuleSet([]byte(`{
		"name": "broker",
		"locale": "en-GB",
		"documents": [{
			"name": "dividend",
			"context": [
				{"id": "rate", "role": "rate", "patterns": ["Rate (?<baseCurrency>[A-Z]{3})/(?<termCurrency>[A-Z]{3}) (?<exchangeRate>[\\d.]+)"]}
			],
			"blocks": [
				{"name": "dividend", "start": "DIVIDEND", "sections": [
					{"id": "isin", "patterns": ["ISIN (?<isin>\\S+)"]},
					{"id": "net", "patterns": ["Net (?<amount>[\\d.]+) (?<currency>[A-Z]{3}) on (?<date>\\S+)"]}
				], "produce": {"type": "DIVIDENDS"}}
			]
		}]
	}`))
	if err != nil {
		t.Fatalf("ParseRuleSet() failed: %v", err)
	}
	doc := MustParseText("dividend", "Rate EUR/USD 1.10\nDIVIDEND\nISIN US0378331005\nNet 100.00 EUR on 2024-05-16\n")
	apple := &security.Security{Name: "Apple Inc.", ISIN: "US0378331005", Currency: "USD"}

	res := Extract(doc, rs, security.NewRegistry(apple))
	if len(res.Errors) > 0 {
		t.Fatalf("Extract() errors = %v", res.Errors)
	}
	if len(res.Items) != 1 {
		t.Fatalf("Extract() got %d items, want 1: %v", len(res.Items), res.Items)
	}
	it := res.Items[0].(*TransactionItem)
	tx := it.Transaction
	if tx.Security != apple {
		t.Errorf("security = %v, want the registry's %v", tx.Security, apple)
	}
	gross, ok := tx.Unit(UnitGross)
	if !ok || !gross.Amount.Equal(EUR(100)) || !gross.Forex.Equal(USD(110)) {
		t.Errorf("gross = %v, %v, want 100.00 EUR (110.00 USD)", gross, ok)
	}
	if check := CheckCurrencies(it); check.Status != StatusOK {
		t.Errorf("CheckCurrencies() = %v %v, want OK", check.Status, check.Messages)
	}
	if got := res.Status(); got != Succeeded {
		t.Errorf("Status() = %v, want %v", got, Succeeded)
	}

	// unknown to the registry, the security is traded in the statement currency
	res = Extract(doc, rs, nil)
	if len(res.Items) != 2 {
		t.Fatalf("Extract() got %d items, want 2: %v", len(res.Items), res.Items)
	}
	tx = Subject(res.Items[1])
	if tx.Security.Currency != "EUR" || len(tx.Units) != 0 {
		t.Errorf("Extract() = %v with units %v, want a EUR security without units", tx.Security, tx.Units)
	}
}

func TestExtract_Errors(t *testing.T) {
	rs, err := ParseRuleSet([]byte(`{
		"name": "bank",
		"identifiers": ["Musterbank"],
		"documents": [{
			"name": "statement",
			"include": ["^Kontoauszug"],
			"blocks": [
				{"name": "opening", "start": "Eröffnung", "mandatory": true, "sections": [
					{"id": "date", "patterns": ["am (?<date>\\d+\\.\\d+\\.\\d{4})"]}
				], "produce": {"kind": "unsupported"}},
				{"name": "deposit", "start": "Einzahlung", "sections": [
					{"id": "total", "patterns": ["Betrag (?<amount>[\\d,.]+) (?<currency>[A-Z]{3}) am (?<date>\\d+\\.\\d+\\.\\d{4})"]}
				], "produce": {"kind": "transaction", "type": "DEPOSIT"}}
			]
		}]
	}`))
	if err != nil {
		t.Fatalf("ParseRuleSet() failed: %v", err)
	}

	testCases := []struct {
		name    string
		text    string
		want    error
		section string
		items   int
	}{
		{
			name: "no document type",
			text: "Musterbank\nDepotauszug\n",
			want: ErrNoDocumentType,
		},
		{
			name: "missing mandatory block",
			text: "Musterbank\nKontoauszug\nEinzahlung\nBetrag 100,00 EUR am 01.02.2024\n",
			want: ErrMissingBlock,
		},
		{
			name:    "mandatory block failing",
			text:    "Musterbank\nKontoauszug\nEröffnung\nohne Datum\nEinzahlung\nBetrag 100,00 EUR am 01.02.2024\n",
			section: "date",
			items:   1,
		},
		{
			name:  "one opening per page",
			text:  "Musterbank\nKontoauszug\nEröffnung\nam 01.01.2024\n\fEröffnung\nam 02.01.2024\n",
			items: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Extract(MustParseText(tc.name, tc.text), rs, nil)
			if len(res.Items) != tc.items {
				t.Errorf("Extract() got %d items, want %d: %v", len(res.Items), tc.items, res.Items)
			}
			switch {
			case tc.want != nil:
				if len(res.Errors) != 1 || !errors.Is(res.Errors[0], tc.want) {
					t.Errorf("Extract() errors = %v, want %v", res.Errors, tc.want)
				}
			case tc.section != "":
				var merr *MatchError
				if len(res.Errors) != 1 || !errors.As(res.Errors[0], &merr) {
					t.Fatalf("Extract() errors = %v, want a MatchError", res.Errors)
				}
				var serr *SectionNotFoundError
				if merr.Section != tc.section || !errors.As(merr, &serr) {
					t.Errorf("MatchError = %v, want section %q not found", merr, tc.section)
				}
			default:
				if len(res.Errors) > 0 {
					t.Errorf("Extract() errors = %v", res.Errors)
				}
			}
		})
	}

	empty, err := ParseRuleSet([]byte(`{
		"name": "empty",
		"documents": [{"name": "any", "blocks": [
			{"name": "never", "start": "this line does not exist", "produce": {"kind": "unsupported"}}
		]}]
	}`))
	if err != nil {
		t.Fatalf("ParseRuleSet() failed: %v", err)
	}
	res := Extract(MustParseText("empty", "some\ntext\n"), empty, nil)
	if len(res.Items) != 0 || len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrNothingExtracted) {
		t.Errorf("Extract() = %v %v, want %v", res.Items, res.Errors, ErrNothingExtracted)
	}
}
