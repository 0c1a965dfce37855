package statement

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleSet describes how one institution writes its statements. It is a
// declarative value, interpreted by Extract.
//
// RuleSets are built by CompileRuleSet, which validates them, and are never
// modified afterwards.
type RuleSet struct {
	Name        string
	Label       string
	Identifiers []string // at least one must appear in a document, when set
	Locale      Locale
	Skip        []*regexp.Regexp // boilerplate lines ignored when a match continues on a new page
	Kinds       map[string]FieldKind
	Documents   []*DocumentType
	// Selector is the JSONPath selecting the records of JSON exports, empty
	// for rule sets reading text statements.
	Selector string
}

// DocumentType is one kind of document of a RuleSet, like a purchase
// confirmation or a dividend notice.
type DocumentType struct {
	Name           string
	MustInclude    []*regexp.Regexp // each must be found in some line
	MustNotInclude []*regexp.Regexp // none may be found in any line
	Context        []*Section       // evaluated once against the whole document
	Blocks         []*Block
}

// Block is a run of lines describing one transaction, anchored on its first line.
type Block struct {
	Name      string
	Start     *regexp.Regexp
	End       *regexp.Regexp // optional, the block ends on the first line it matches
	MaxSize   int            // optional, the maximum number of lines
	Mandatory bool
	Sections  []*Section
	Rows      *Rows
	Produce   *Producer
}

// SectionRole tells where the fields captured by a section go.
type SectionRole int

const (
	RoleFields   SectionRole = iota // transaction fields
	RoleSecurity                    // security fields: name, isin, wkn, ticker, currency
	RoleGross                       // a gross value unit
	RoleTax                         // a tax unit
	RoleFee                         // a fee unit
	RoleRate                        // an exchange rate: baseCurrency, termCurrency, exchangeRate
)

var roleNames = []string{"fields", "security", "gross", "tax", "fee", "rate"}

func (r SectionRole) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("SectionRole(%d)", int(r))
	}
	return roleNames[r]
}

// unitType returns the unit type captured by unit roles.
func (r SectionRole) unitType() (UnitType, bool) {
	switch r {
	case RoleGross:
		return UnitGross, true
	case RoleTax:
		return UnitTax, true
	case RoleFee:
		return UnitFee, true
	}
	return "", false
}

// Section captures fields from lines following a block anchor. Patterns
// match whole lines, in order, each on a line after the previous one.
//
// A section with alternatives has no patterns of its own: the first
// alternative that matches is used.
type Section struct {
	ID           string
	Role         SectionRole
	Patterns     []*regexp.Regexp
	Attributes   map[string]string // static raw values, parsed like captures
	Optional     bool
	Multiple     bool // matched as many times as possible
	Continues    bool // keeps matching on the next pages
	Alternatives []*Section
}

// Rows matches the lines of a table, one item per row.
type Rows struct {
	Pattern    *regexp.Regexp
	Terminator *regexp.Regexp // optional
	Continues  bool
	Produce    *Producer // optional, defaults to the block's
}

// ProducerKind tells what a block produces.
type ProducerKind int

const (
	ProduceTransaction ProducerKind = iota
	ProduceBuySell
	ProduceSecurity
	ProduceUnsupported
)

var producerNames = []string{"transaction", "buysell", "security", "unsupported"}

func (k ProducerKind) String() string {
	if k < 0 || int(k) >= len(producerNames) {
		return fmt.Sprintf("ProducerKind(%d)", int(k))
	}
	return producerNames[k]
}

// Producer turns the captures of a block into items.
type Producer struct {
	Kind ProducerKind
	Type TxType
	// TypeField names a captured text field that selects the type in Types.
	TypeField string
	Types     map[string]TxType
	// NegativeType replaces the type when the captured amount is negative.
	NegativeType TxType
	Message      string // failure message of unsupported producers
}

// kind returns the kind of field name.
func (rs *RuleSet) kind(name string) FieldKind {
	if k, ok := rs.Kinds[name]; ok {
		return k
	}
	return defaultKinds[name]
}

// skip reports whether line is boilerplate.
func (rs *RuleSet) skip(line string) bool {
	for _, re := range rs.Skip {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Matches reports whether the document belongs to the rule set: it carries
// one of the identifiers and one of the document types accepts it.
func (rs *RuleSet) Matches(doc *Document) bool {
	return len(rs.documentTypes(doc)) > 0
}

// documentTypes returns the document types accepting doc.
func (rs *RuleSet) documentTypes(doc *Document) []*DocumentType {
	lines := doc.Text()
	if len(rs.Identifiers) > 0 {
		found := false
		for _, id := range rs.Identifiers {
			for _, l := range lines {
				if strings.Contains(l, id) {
					found = true
					break
				}
			}
		}
		if !found {
			return nil
		}
	}
	var types []*DocumentType
	for _, dt := range rs.Documents {
		if dt.accepts(lines) {
			types = append(types, dt)
		}
	}
	return types
}

func (dt *DocumentType) accepts(lines []string) bool {
	found := func(re *regexp.Regexp) bool {
		for _, l := range lines {
			if re.MatchString(l) {
				return true
			}
		}
		return false
	}
	for _, re := range dt.MustInclude {
		if !found(re) {
			return false
		}
	}
	for _, re := range dt.MustNotInclude {
		if found(re) {
			return false
		}
	}
	return true
}

// Detect returns the first rule set matching doc.
func Detect(doc *Document, ruleSets []*RuleSet) (*RuleSet, bool) {
	for _, rs := range ruleSets {
		if rs.Matches(doc) {
			return rs, true
		}
	}
	return nil, false
}
