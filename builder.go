package statement

import (
	"fmt"
	"strings"

	"github.com/etnz/statement/date"
	"github.com/etnz/statement/security"
	"github.com/shopspring/decimal"
)

// BuildError reports captures a producer cannot turn into items. The
// partial item is discarded.
type BuildError struct {
	Kind   ProducerKind
	Reason string
}

func (e *BuildError) Error() string { return fmt.Sprintf("cannot build %s: %s", e.Kind, e.Reason) }

// A Resolver returns the security to use in place of a captured candidate.
type Resolver func(candidate *security.Security) *security.Security

// Build runs producer p on the captures c.
//
// Transactions get their units from the gross, tax and fee sections, converted
// into the transaction currency with the captured exchange rate when needed.
// Their security is the candidate as captured: it is not resolved.
func Build(p *Producer, c *Captures) ([]Item, error) {
	return BuildWith(p, c, nil)
}

// BuildWith is Build where the security of a transaction is replaced by
// resolve before its units are computed, so that a known security's
// currency decides the forex units. A nil resolve keeps the candidate.
func BuildWith(p *Producer, c *Captures, resolve Resolver) ([]Item, error) {
	b := builder{p: p, c: c, resolve: resolve}
	switch p.Kind {
	case ProduceSecurity:
		sec, err := b.security(true)
		if err != nil {
			return nil, err
		}
		return []Item{&SecurityItem{Security: sec}}, nil
	case ProduceUnsupported:
		msg := p.Message
		if msg == "" {
			msg = MsgUnsupported
		}
		return []Item{&FailureItem{Message: msg, Partial: b.partial()}}, nil
	case ProduceTransaction:
		tx, err := b.transaction()
		if err != nil {
			return nil, err
		}
		return []Item{&TransactionItem{Transaction: tx, Issue: tx.Reconcile()}}, nil
	case ProduceBuySell:
		tx, err := b.transaction()
		if err != nil {
			return nil, err
		}
		if !tx.Type.IsBuySell() {
			return nil, b.fail("%s is not a buy or a sell", tx.Type)
		}
		account, err := b.account(tx)
		if err != nil {
			return nil, err
		}
		return []Item{&BuySellEntryItem{Entry: &BuySellEntry{Portfolio: tx, Account: account}, Issue: tx.Reconcile()}}, nil
	}
	return nil, &BuildError{Kind: p.Kind, Reason: "unknown producer"}
}

type builder struct {
	p       *Producer
	c       *Captures
	resolve Resolver
}

func (b *builder) fail(format string, args ...any) *BuildError {
	return &BuildError{Kind: b.p.Kind, Reason: fmt.Sprintf(format, args...)}
}

// txType returns the transaction type, selected by the type field when set.
func (b *builder) txType(amount decimal.Decimal) (TxType, error) {
	t := b.p.Type
	if b.p.TypeField != "" {
		text := b.c.Text(b.p.TypeField)
		selected, ok := b.p.Types[text]
		if !ok {
			for k, v := range b.p.Types {
				if strings.EqualFold(k, text) {
					selected, ok = v, true
					break
				}
			}
		}
		switch {
		case ok:
			t = selected
		case t == "":
			return "", b.fail("%s %q does not select a transaction type", b.p.TypeField, text)
		}
	}
	if amount.IsNegative() && b.p.NegativeType != "" {
		t = b.p.NegativeType
	}
	return t, nil
}

// dateTime returns the transaction date, with its time of day if captured.
func (b *builder) dateTime() (date.DateTime, bool) {
	d, ok := b.c.Date("date")
	if !ok {
		return date.DateTime{}, false
	}
	clock, _ := b.c.Clock("time")
	return date.At(d, clock), true
}

func (b *builder) transaction() (*Transaction, error) {
	amount, ok := b.c.Decimal("amount")
	if !ok {
		return nil, b.fail("missing amount")
	}
	cur, ok := b.c.Currency("currency")
	if !ok {
		return nil, b.fail("missing currency")
	}
	typ, err := b.txType(amount)
	if err != nil {
		return nil, err
	}
	when, ok := b.dateTime()
	if !ok {
		return nil, b.fail("missing date")
	}
	tx := &Transaction{
		Type:     typ,
		DateTime: when,
		Amount:   MoneyOf(amount.Abs(), cur),
		Note:     b.c.Text("note"),
	}
	tx.ExDate, _ = b.c.Date("exDate")
	if shares, ok := b.c.Shares("shares"); ok {
		tx.Shares = shares
		if pct, ok := b.c.Percent("percent"); ok {
			tx.Shares = pct.Of(shares)
		}
	}
	switch typ {
	case TxBuy, TxSell, TxDividends, TxDeliveryInbound, TxDeliveryOutbound:
		sec, err := b.security(true)
		if err != nil {
			return nil, err
		}
		tx.Security = sec
	default:
		tx.Security, _ = b.security(false)
	}
	if tx.Security != nil && b.resolve != nil {
		tx.Security = b.resolve(tx.Security)
	}
	if err := b.units(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// security returns the security candidate. When required, a candidate
// without name nor identifier is an error, otherwise it is nil.
func (b *builder) security(required bool) (*security.Security, error) {
	src := b.c.security
	if len(src) == 0 {
		src = b.c.values
	}
	text := func(name string) string {
		s, _ := get[string](src, name)
		return s
	}
	sec := &security.Security{
		Name:   text("name"),
		ISIN:   text("isin"),
		WKN:    text("wkn"),
		Ticker: text("ticker"),
	}
	if sec.Name == "" && sec.ISIN == "" && sec.WKN == "" && sec.Ticker == "" {
		if required {
			return nil, b.fail("missing security name or identifier")
		}
		return nil, nil
	}
	sec.Currency = b.securityCurrency(src)
	if err := sec.Validate(); err != nil {
		return nil, b.fail("%v", err)
	}
	return sec, nil
}

// securityCurrency is the explicit security currency, or the forex currency,
// or the transaction currency.
func (b *builder) securityCurrency(src map[string]any) string {
	if len(b.c.security) > 0 {
		if cur, ok := get[string](src, "currency"); ok {
			return cur
		}
	}
	for _, name := range []string{"securityCurrency", "fxCurrency"} {
		if cur, ok := b.c.Currency(name); ok {
			return cur
		}
	}
	for _, u := range b.c.units {
		if u.HasForex && u.FxCurrency != "" {
			return u.FxCurrency
		}
	}
	cur, _ := b.c.Currency("currency")
	return cur
}

// units adds the captured units to tx, then the gross value unit when the
// security is traded in another currency.
func (b *builder) units(tx *Transaction) error {
	cur := tx.Currency()
	secCur := ""
	if tx.Security != nil {
		secCur = tx.Security.Currency
	}
	rate, hasRate := b.c.Rate()

	for _, pu := range b.c.units {
		ucur := pu.Currency
		if ucur == "" {
			ucur = cur
		}
		amount := MoneyOf(pu.Amount, ucur)
		fxCur := pu.FxCurrency
		if fxCur == "" {
			fxCur = secCur
		}
		var u Unit
		switch {
		case ucur == cur && pu.HasForex && fxCur != "" && fxCur != cur:
			forex := MoneyOf(pu.FxAmount, fxCur)
			r := pu.Rate
			if r.IsZero() {
				if !hasRate {
					return b.fail("no exchange rate for %s", forex)
				}
				f, err := rate.Factor(fxCur, cur)
				if err != nil {
					return b.fail("%v", err)
				}
				r = f
			}
			fu, err := NewForexUnit(pu.Type, amount, forex, r)
			if err != nil {
				return b.fail("%v", err)
			}
			u = fu
		case ucur == cur:
			u = NewUnit(pu.Type, amount)
		default:
			// printed in another currency: convert, keep the original when it is the security's.
			if !hasRate {
				return b.fail("no exchange rate to convert %s into %s", amount, cur)
			}
			converted, err := rate.Convert(amount, cur)
			if err != nil {
				return b.fail("%v", err)
			}
			u = NewUnit(pu.Type, converted)
			if ucur == secCur {
				f, _ := rate.Factor(ucur, cur)
				if fu, err := NewForexUnit(pu.Type, converted, amount, f); err == nil {
					u = fu
				}
			}
		}
		if err := tx.AddUnit(u); err != nil {
			return b.fail("%v", err)
		}
	}

	if err := b.gross(tx, secCur, rate, hasRate); err != nil {
		return err
	}
	return nil
}

// gross adds the gross value unit from the gross and fxGross fields, or
// derives it from the total when the transaction and the security currencies
// differ.
func (b *builder) gross(tx *Transaction, secCur string, rate ExchangeRate, hasRate bool) error {
	if _, ok := tx.Unit(UnitGross); ok {
		return nil
	}
	cur := tx.Currency()
	gross, hasGross := b.c.Decimal("gross")
	fxGross, hasFxGross := b.c.Decimal("fxGross")
	if !hasGross && (secCur == "" || secCur == cur) {
		return nil
	}
	amount := tx.grossFromTotal()
	if hasGross {
		amount = MoneyOf(gross.Abs(), cur)
	}
	if secCur == "" || secCur == cur {
		return tx.AddUnit(NewUnit(UnitGross, amount))
	}

	var forex Money
	var r decimal.Decimal
	switch {
	case hasFxGross && hasRate:
		forex = MoneyOf(fxGross.Abs(), secCur)
		f, err := rate.Factor(secCur, cur)
		if err != nil {
			return b.fail("%v", err)
		}
		r = f
	case hasFxGross:
		forex = MoneyOf(fxGross.Abs(), secCur)
		if forex.IsZero() {
			return b.fail("zero gross value in %s", secCur)
		}
		r = amount.Decimal().DivRound(forex.Decimal(), 10)
	case hasRate:
		f, err := rate.Factor(secCur, cur)
		if err != nil {
			return b.fail("%v", err)
		}
		converted, err := rate.Convert(amount, secCur)
		if err != nil {
			return b.fail("%v", err)
		}
		forex, r = converted, f
	default:
		// no way to express the gross value in the security currency.
		if hasGross {
			return tx.AddUnit(NewUnit(UnitGross, amount))
		}
		return nil
	}
	u, err := NewForexUnit(UnitGross, amount, forex, r)
	if err != nil {
		return b.fail("%v", err)
	}
	return tx.AddUnit(u)
}

// account returns the account side of a buy/sell entry. The account amount
// and date, when captured separately, must agree with the portfolio side.
func (b *builder) account(tx *Transaction) (*Transaction, error) {
	acc := &Transaction{Type: tx.Type, DateTime: tx.DateTime, Amount: tx.Amount, Security: tx.Security, Note: tx.Note}
	if amount, ok := b.c.Decimal("accountAmount"); ok {
		cur, ok := b.c.Currency("accountCurrency")
		if !ok {
			cur = tx.Currency()
		}
		if m := MoneyOf(amount.Abs(), cur); !m.Equal(tx.Amount) {
			return nil, b.fail("account amount %s differs from portfolio amount %s", m, tx.Amount)
		}
	}
	if d, ok := b.c.Date("accountDate"); ok && d != tx.DateTime.Date {
		return nil, b.fail("account date %s differs from portfolio date %s", d, tx.DateTime.Date)
	}
	return acc, nil
}

// partial returns what can be read of a transaction the producer does not support.
func (b *builder) partial() *Transaction {
	when, ok := b.dateTime()
	amount, hasAmount := b.c.Decimal("amount")
	cur, hasCur := b.c.Currency("currency")
	if !ok && !hasAmount {
		return nil
	}
	tx := &Transaction{DateTime: when, Note: b.c.Text("note")}
	if t, err := b.txType(amount); err == nil {
		tx.Type = t
	}
	if hasAmount && hasCur {
		tx.Amount = MoneyOf(amount.Abs(), cur)
	}
	tx.Shares, _ = b.c.Shares("shares")
	tx.Security, _ = b.security(false)
	return tx
}
