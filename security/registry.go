package security

import "slices"

// Registry is a read-only snapshot of the known securities, in the order
// they were registered.
//
// A Registry is never modified after creation, With returns a new one, so
// that a snapshot can be shared by concurrent extractions.
type Registry struct {
	securities []*Security
}

// NewRegistry returns a Registry holding securities, in that order.
func NewRegistry(securities ...*Security) *Registry {
	return &Registry{securities: slices.Clone(securities)}
}

// Len returns the number of securities. A nil Registry is empty.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.securities)
}

// All returns the securities in registration order.
func (r *Registry) All() []*Security {
	if r == nil {
		return nil
	}
	return slices.Clone(r.securities)
}

// With returns a new Registry holding r's securities followed by securities.
func (r *Registry) With(securities ...*Security) *Registry {
	return &Registry{securities: append(r.All(), securities...)}
}

// Match tells which criterion resolved a candidate.
type Match int

const (
	MatchNone Match = iota
	MatchISIN
	MatchWKN
	MatchTicker
	MatchName
)

func (m Match) String() string {
	switch m {
	case MatchISIN:
		return "isin"
	case MatchWKN:
		return "wkn"
	case MatchTicker:
		return "ticker"
	case MatchName:
		return "name"
	}
	return "none"
}

// Ref is the outcome of a resolution: the security to use, and whether it is
// already in the registry.
type Ref struct {
	Security *Security
	Existing bool
	Match    Match
}

// criteria are tried in precedence order, the first one matching any security wins.
var criteria = []struct {
	match Match
	equal func(candidate, known *Security) bool
}{
	{MatchISIN, func(c, k *Security) bool { return same(c.ISIN, k.ISIN) }},
	{MatchWKN, func(c, k *Security) bool { return same(c.WKN, k.WKN) }},
	{MatchTicker, func(c, k *Security) bool { return same(c.Ticker, k.Ticker) && c.Currency == k.Currency }},
	{MatchName, func(c, k *Security) bool { return same(c.Name, k.Name) && c.Currency == k.Currency }},
}

// Resolve finds candidate in registry: by ISIN, then WKN, then ticker and
// currency, then name and currency. Tickers and names only match a security
// in exactly the candidate's currency, a candidate without currency matches
// none by ticker or name. Within a criterion the first registered
// security wins. When nothing matches, the returned Ref holds a copy of
// candidate and Existing is false.
//
// Resolve is a pure function of its arguments, registry is never modified.
func Resolve(candidate Security, registry *Registry) Ref {
	for _, c := range criteria {
		for _, known := range registry.All() {
			if c.equal(&candidate, known) {
				return Ref{Security: known, Existing: true, Match: c.match}
			}
		}
	}
	return Ref{Security: &candidate, Match: MatchNone}
}
