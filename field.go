package statement

import (
	"fmt"
	"maps"
	"strings"

	"github.com/etnz/statement/date"
	"github.com/shopspring/decimal"
)

// FieldKind is the semantic type a captured string is parsed into.
type FieldKind int

const (
	KindText     FieldKind = iota // string, white spaces collapsed
	KindAmount                    // decimal.Decimal, signed
	KindShares                    // Shares
	KindCurrency                  // ISO 4217 code
	KindDate                      // date.Date
	KindTime                      // date.Clock
	KindRate                      // decimal.Decimal, strictly positive
	KindPercent                   // Percent
)

var kindNames = []string{"text", "amount", "shares", "currency", "date", "time", "rate", "percent"}

func (k FieldKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseFieldKind returns the FieldKind named s.
func ParseFieldKind(s string) (FieldKind, error) {
	for i, n := range kindNames {
		if n == s {
			return FieldKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field kind %q, want one of %v", s, kindNames)
}

// defaultKinds gives the kind of the conventional field names. Any other
// field is text unless the rule set declares its kind.
var defaultKinds = map[string]FieldKind{
	"amount":           KindAmount,
	"gross":            KindAmount,
	"fxAmount":         KindAmount,
	"fxGross":          KindAmount,
	"accountAmount":    KindAmount,
	"shares":           KindShares,
	"currency":         KindCurrency,
	"fxCurrency":       KindCurrency,
	"baseCurrency":     KindCurrency,
	"termCurrency":     KindCurrency,
	"accountCurrency":  KindCurrency,
	"securityCurrency": KindCurrency,
	"date":             KindDate,
	"accountDate":      KindDate,
	"exDate":           KindDate,
	"time":             KindTime,
	"exchangeRate":     KindRate,
	"percent":          KindPercent,
}

// FieldParseError reports a captured string that cannot be read as the kind
// of its field.
type FieldParseError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q: %s", e.Field, e.Raw, e.Reason)
}

var currencySymbols = map[string]string{
	"€":   "EUR",
	"$":   "USD",
	"US$": "USD",
	"£":   "GBP",
	"¥":   "JPY",
	"Fr.": "CHF",
	"SFr": "CHF",
}

// parseField parses raw as kind, reading numbers and dates the way loc writes them.
func parseField(kind FieldKind, name, raw string, loc Locale) (any, error) {
	fail := func(reason string) error { return &FieldParseError{Field: name, Raw: raw, Reason: reason} }
	s := strings.Join(strings.Fields(raw), " ")
	switch kind {
	case KindText:
		return s, nil
	case KindAmount:
		d, err := loc.ParseNumber(s)
		if err != nil {
			return nil, fail(err.Error())
		}
		if err := checkMoney(d); err != nil {
			return nil, fail(err.Error())
		}
		return d, nil
	case KindShares:
		d, err := loc.ParseNumber(s)
		if err != nil {
			return nil, fail(err.Error())
		}
		v, err := SharesOf(d.Abs())
		if err != nil {
			return nil, fail(err.Error())
		}
		return v, nil
	case KindCurrency:
		code, ok := currencySymbols[s]
		if !ok {
			code = strings.ToUpper(s)
		}
		if err := ValidateCurrency(code); err != nil {
			return nil, fail(err.Error())
		}
		return code, nil
	case KindDate:
		d, err := date.ParseLocal(s, loc.Dates)
		if err != nil {
			return nil, fail("not a date")
		}
		return d, nil
	case KindTime:
		c, err := date.ParseClock(s)
		if err != nil {
			return nil, fail("not a time of day")
		}
		return c, nil
	case KindRate:
		d, err := loc.ParseNumber(s)
		if err != nil {
			return nil, fail(err.Error())
		}
		if !d.IsPositive() {
			return nil, fail("exchange rate must be positive")
		}
		return d, nil
	case KindPercent:
		d, err := loc.ParseNumber(strings.TrimSuffix(s, "%"))
		if err != nil {
			return nil, fail(err.Error())
		}
		return Percent{d}, nil
	}
	return nil, fail("unknown kind " + kind.String())
}

// Captures is the scratch record filled while a block is matched: typed
// values by field name, the units met on the way and the security fields.
// It is discarded once the block's producer has run.
type Captures struct {
	values   map[string]any
	security map[string]any
	units    []pendingUnit
	rate     *ExchangeRate
	lines    []int // flat indexes of the matched lines
}

// pendingUnit is a unit as captured, before the item currency is known.
type pendingUnit struct {
	Type       UnitType
	Amount     decimal.Decimal
	Currency   string
	FxAmount   decimal.Decimal
	FxCurrency string
	Rate       decimal.Decimal
	HasForex   bool
}

func newCaptures() *Captures {
	return &Captures{values: map[string]any{}, security: map[string]any{}}
}

// clone returns a deep enough copy of c for speculative matching.
func (c *Captures) clone() *Captures {
	n := &Captures{
		values:   maps.Clone(c.values),
		security: maps.Clone(c.security),
		units:    append([]pendingUnit(nil), c.units...),
		rate:     c.rate,
		lines:    append([]int(nil), c.lines...),
	}
	return n
}

// Set stores v as field name.
func (c *Captures) Set(name string, v any) { c.values[name] = v }

// Has reports whether field name was captured.
func (c *Captures) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Names returns the captured field names.
func (c *Captures) Names() []string {
	names := make([]string, 0, len(c.values))
	for n := range c.values {
		names = append(names, n)
	}
	return names
}

func get[T any](m map[string]any, name string) (T, bool) {
	v, ok := m[name].(T)
	return v, ok
}

func (c *Captures) Text(name string) string {
	switch v := c.values[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (c *Captures) Decimal(name string) (decimal.Decimal, bool) {
	return get[decimal.Decimal](c.values, name)
}

func (c *Captures) Shares(name string) (Shares, bool) {
	return get[Shares](c.values, name)
}

func (c *Captures) Date(name string) (date.Date, bool) {
	return get[date.Date](c.values, name)
}

func (c *Captures) Clock(name string) (date.Clock, bool) {
	return get[date.Clock](c.values, name)
}

func (c *Captures) Percent(name string) (Percent, bool) {
	return get[Percent](c.values, name)
}

func (c *Captures) Currency(name string) (string, bool) {
	return get[string](c.values, name)
}

// Rate returns the exchange rate captured by the block or its document context.
func (c *Captures) Rate() (ExchangeRate, bool) {
	if c.rate == nil {
		return ExchangeRate{}, false
	}
	return *c.rate, true
}
