package date

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DayFirst lists the layouts used by statements that print the day before the
// month, in the order they are tried.
var DayFirst = []string{
	"2006-1-2",
	"2.1.2006",
	"2.1.06",
	"2. Jan 2006",
	"2 Jan 2006",
	"2 Jan 06",
	"2-1-2006",
	"2-Jan-2006",
	"2/1/2006",
	"Jan 2, 2006",
	"20060102",
}

// MonthFirst lists the layouts used by statements that print the month before
// the day, in the order they are tried.
var MonthFirst = []string{
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"20060102",
}

// monthNames maps localized month names and abbreviations, lower cased, to the
// English abbreviation understood by the time package.
var monthNames = map[string]string{}

func init() {
	names := [12][]string{
		{"january", "jan", "januar", "jän", "janvier", "janv", "enero", "ene"},
		{"february", "feb", "februar", "février", "fevrier", "févr", "fevr", "febrero"},
		{"march", "mar", "märz", "maerz", "mär", "mrz", "mars", "marzo"},
		{"april", "apr", "avril", "avr", "abril", "abr"},
		{"may", "mai", "mayo"},
		{"june", "jun", "juni", "juin", "junio"},
		{"july", "jul", "juli", "juillet", "juil", "julio"},
		{"august", "aug", "août", "aout", "agosto", "ago"},
		{"september", "sep", "sept", "septembre", "septiembre", "setiembre", "set"},
		{"october", "oct", "oktober", "okt", "octobre", "octubre"},
		{"november", "nov", "novembre", "noviembre"},
		{"december", "dec", "dezember", "dez", "décembre", "decembre", "déc", "diciembre", "dic"},
	}
	for i, alias := range names {
		abbr := time.Month(i + 1).String()[:3]
		for _, a := range alias {
			monthNames[a] = abbr
		}
	}
}

var wordRegex = regexp.MustCompile(`\p{L}+\.?`)

// normalizeMonths replaces localized month names in value by their English abbreviation.
func normalizeMonths(value string) string {
	return wordRegex.ReplaceAllStringFunc(value, func(w string) string {
		if abbr, ok := monthNames[strings.ToLower(strings.TrimSuffix(w, "."))]; ok {
			return abbr
		}
		return w
	})
}

// ParseLocal parses value with the first layout in layouts that accepts it.
// Month names in German, French, Spanish or English are accepted in full or
// abbreviated form.
func ParseLocal(value string, layouts []string) (Date, error) {
	value = strings.Join(strings.Fields(value), " ")
	normalized := normalizeMonths(value)
	for _, layout := range layouts {
		on, err := time.Parse(layout, normalized)
		if err == nil {
			return New(on.Date()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", value)
}
