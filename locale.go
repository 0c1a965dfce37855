package statement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/etnz/statement/date"
	"github.com/shopspring/decimal"
)

// Locale describes how numbers and dates are written in a statement.
type Locale struct {
	Name    string
	Decimal rune     // decimal separator
	Group   string   // accepted thousands separators, white spaces are always accepted.
	Dates   []string // date layouts tried in order, see date.ParseLocal
}

var locales = map[string]Locale{
	"de-DE": {Name: "de-DE", Decimal: ',', Group: ".", Dates: date.DayFirst},
	"de-AT": {Name: "de-AT", Decimal: ',', Group: ".", Dates: date.DayFirst},
	"de-CH": {Name: "de-CH", Decimal: '.', Group: "'’", Dates: date.DayFirst},
	"fr-FR": {Name: "fr-FR", Decimal: ',', Group: ".", Dates: date.DayFirst},
	"es-ES": {Name: "es-ES", Decimal: ',', Group: ".", Dates: date.DayFirst},
	"en-GB": {Name: "en-GB", Decimal: '.', Group: ",", Dates: date.DayFirst},
	"en-US": {Name: "en-US", Decimal: '.', Group: ",", Dates: date.MonthFirst},
}

// LookupLocale returns the Locale named name, like "de-DE".
func LookupLocale(name string) (Locale, error) {
	l, ok := locales[name]
	if !ok {
		return Locale{}, fmt.Errorf("unknown locale %q, known locales are %v", name, Locales())
	}
	return l, nil
}

// Locales returns the sorted names of the known locales.
func Locales() []string {
	names := make([]string, 0, len(locales))
	for n := range locales {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var errNotANumber = errors.New("not a number")

// ParseNumber parses a number written in this locale. A sign can lead or
// trail the number, and parentheses denote a negative number.
// Thousands separators, when present, must group digits by three.
func (l Locale) ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	negative := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		negative, s = true, s[1:len(s)-1]
	case strings.HasPrefix(s, "-"):
		negative, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative, s = true, s[:len(s)-1]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, string(l.Decimal))
	if strings.ContainsRune(fracPart, l.Decimal) {
		return decimal.Decimal{}, errNotANumber
	}
	if hasFrac && (fracPart == "" || !allDigits(fracPart)) {
		return decimal.Decimal{}, errNotANumber
	}
	digits, err := l.ungroup(intPart)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if digits == "" {
		if !hasFrac {
			return decimal.Decimal{}, errNotANumber
		}
		digits = "0"
	}
	if hasFrac {
		digits += "." + fracPart
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Decimal{}, errNotANumber
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ungroup removes thousands separators from the integer part s.
func (l Locale) ungroup(s string) (string, error) {
	if s == "" || allDigits(s) {
		return s, nil
	}
	var groups []string
	start := 0
	for i, r := range s {
		if strings.ContainsRune(l.Group, r) {
			groups = append(groups, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	groups = append(groups, s[start:])
	for i, g := range groups {
		if !allDigits(g) || (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
			return "", errNotANumber
		}
	}
	return strings.Join(groups, ""), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
