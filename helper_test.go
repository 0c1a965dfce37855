package statement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

// M is a helper for test to create money from const
func M(v float64, cur string) Money { return MoneyOf(decimal.NewFromFloat(v), cur) }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// CHF is a helper for test to create swiss franc money from const
func CHF(v float64) Money { return M(v, "CHF") }

// D is a helper for test to create decimals from const
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// builtin returns the builtin rule set named name.
func builtin(t *testing.T, name string) *RuleSet {
	t.Helper()
	sets, err := Builtins()
	if err != nil {
		t.Fatalf("Builtins() failed: %v", err)
	}
	for _, rs := range sets {
		if rs.Name == name {
			return rs
		}
	}
	t.Fatalf("no builtin rule set %q", name)
	return nil
}

// loadFixture reads testdata/<dir>/<name>.txt.
func loadFixture(t *testing.T, dir, name string) *Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", dir, name+".txt"))
	if err != nil {
		t.Fatalf("cannot open fixture: %v", err)
	}
	defer f.Close()
	doc, err := ParseText(name, f)
	if err != nil {
		t.Fatalf("ParseText(%q) failed: %v", name, err)
	}
	return doc
}

// readTestdata reads file name of the testdata directory.
func readTestdata(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join("testdata", filepath.FromSlash(name)))
}

// extractFixture extracts testdata/<rs>/<name>.txt with the builtin rule set rs.
func extractFixture(t *testing.T, rs, name string) *Result {
	t.Helper()
	return Extract(loadFixture(t, rs, name), builtin(t, rs), nil)
}

// transactions returns the subjects of the items of res, security items excluded.
func transactions(res *Result) []*Transaction {
	var txs []*Transaction
	for _, it := range res.Items {
		if tx := Subject(it); tx != nil {
			txs = append(txs, tx)
		}
	}
	return txs
}
