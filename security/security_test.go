package security

import "testing"

func TestValidateISIN(t *testing.T) {
	testCases := []struct {
		isin    string
		wantErr bool
	}{
		{"US0378331005", false},
		{"CH0038863350", false},
		{"DE0005140008", false},
		{"US0378331006", true},
		{"US037833100", true},
		{"us0378331005", true},
	}
	for _, tc := range testCases {
		err := ValidateISIN(tc.isin)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateISIN(%q) error = %v, wantErr %v", tc.isin, err, tc.wantErr)
		}
	}
}

func TestResolve(t *testing.T) {
	apple := &Security{Name: "Apple Inc.", ISIN: "US0378331005", WKN: "865985", Ticker: "AAPL", Currency: "USD"}
	appleEUR := &Security{Name: "Apple Inc.", Ticker: "APC", Currency: "EUR"}
	nestle := &Security{Name: "Nestlé SA", ISIN: "CH0038863350", Currency: "CHF"}
	registry := NewRegistry(apple, appleEUR, nestle)

	testCases := []struct {
		name      string
		candidate Security
		want      *Security
		match     Match
	}{
		{"isin", Security{ISIN: "CH0038863350", Name: "NESTLE NAM."}, nestle, MatchISIN},
		{"isin wins over name", Security{ISIN: "US0378331005", Name: "Nestlé SA", Currency: "CHF"}, apple, MatchISIN},
		{"wkn", Security{WKN: "865985"}, apple, MatchWKN},
		{"ticker and currency", Security{Ticker: "APC", Currency: "EUR"}, appleEUR, MatchTicker},
		{"name and currency", Security{Name: "apple  inc.", Currency: "EUR"}, appleEUR, MatchName},
		{"name without currency", Security{Name: "Apple Inc."}, nil, MatchNone},
		{"ticker without currency", Security{Ticker: "APC"}, nil, MatchNone},
		{"ticker in another currency", Security{Ticker: "AAPL", Currency: "EUR"}, nil, MatchNone},
		{"name in another currency", Security{Name: "Apple Inc.", Currency: "GBP"}, nil, MatchNone},
		{"unknown isin", Security{ISIN: "DE0005140008", Name: "Deutsche Bank"}, nil, MatchNone},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.candidate, registry)
			if got.Match != tc.match {
				t.Errorf("Resolve() match = %v, want %v", got.Match, tc.match)
			}
			if tc.want == nil {
				if got.Existing {
					t.Errorf("Resolve() = %v, want a new security", got.Security)
				}
				if *got.Security != tc.candidate {
					t.Errorf("Resolve() new security = %v, want %v", got.Security, tc.candidate)
				}
				return
			}
			if !got.Existing || got.Security != tc.want {
				t.Errorf("Resolve() = %v (existing %v), want %v", got.Security, got.Existing, tc.want)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	registry := NewRegistry(&Security{Name: "Foo", Currency: "EUR"}, &Security{Name: "Foo", Currency: "EUR", WKN: "A0B1C2"})
	candidate := Security{Name: "Foo", Currency: "EUR"}
	first := Resolve(candidate, registry)
	for range 10 {
		if got := Resolve(candidate, registry); got != first {
			t.Fatalf("Resolve() is not deterministic: %v then %v", first, got)
		}
	}
	if first.Security != registry.All()[0] {
		t.Errorf("Resolve() should prefer the first registered security")
	}
}

func TestRegistryWith(t *testing.T) {
	base := NewRegistry(&Security{Name: "A"})
	next := base.With(&Security{Name: "B"})
	if base.Len() != 1 || next.Len() != 2 {
		t.Errorf("With() modified the base registry: %d, %d", base.Len(), next.Len())
	}
	var empty *Registry
	if got := Resolve(Security{Name: "A"}, empty); got.Existing {
		t.Errorf("Resolve() on a nil registry found %v", got.Security)
	}
}
