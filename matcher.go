package statement

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// matchState is where a block match stands. A match goes from searching to
// anchored when its start pattern matches, captures its sections, repeats
// over its rows if any, and ends complete or failed.
type matchState int

const (
	stateSearching matchState = iota
	stateAnchored
	stateCapturing
	stateRepeating
	stateComplete
	stateFailed
)

func (s matchState) String() string {
	switch s {
	case stateSearching:
		return "searching"
	case stateAnchored:
		return "anchored"
	case stateCapturing:
		return "capturing"
	case stateRepeating:
		return "repeating"
	case stateComplete:
		return "complete"
	}
	return "failed"
}

// MatchError reports a block whose anchor matched but whose lines did not.
type MatchError struct {
	Block    string
	Section  string // id of the failing section, if any
	From, To Pos
	state    matchState // state the match failed in
	Err      error
}

func (e *MatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "block %q failed while %s", e.Block, e.state)
	if e.Section != "" {
		fmt.Fprintf(&b, " section %q", e.Section)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *MatchError) Unwrap() error { return e.Err }

var (
	errEndNotFound   = errors.New("end of block not found")
	errNoAlternative = errors.New("no alternative matched")
)

// SectionNotFoundError reports a mandatory section whose patterns were not all found.
type SectionNotFoundError struct {
	Pattern string // first pattern that did not match
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("no line matches %s", e.Pattern)
}

// matcher matches blocks against one document, with the conventions of one rule set.
type matcher struct {
	doc *Document
	rs  *RuleSet
}

// record is one set of captures ready for a producer.
type record struct {
	captures *Captures
	producer *Producer
	from, to int
}

// match is a completed block match.
type match struct {
	block    *Block
	from, to int // consumed lines, flat indexes
	records  []record
}

// rangeEnd returns the last line a block anchored at start can span: the
// line before the next anchor of any of the blocks, or the last line.
func (m *matcher) rangeEnd(blocks []*Block, start int) int {
	for i := start + 1; i < m.doc.Len(); i++ {
		line := m.doc.line(i)
		for _, b := range blocks {
			if b.Start.MatchString(line) {
				return i - 1
			}
		}
	}
	return m.doc.Len() - 1
}

// matchBlock matches b anchored at line start. blocks are the blocks whose
// anchors end b. base holds the document context, it is not modified.
func (m *matcher) matchBlock(b *Block, blocks []*Block, base *Captures, start int) (*match, *MatchError) {
	state := stateAnchored
	end := m.rangeEnd(blocks, start)
	fail := func(section string, err error) *MatchError {
		return &MatchError{Block: b.Name, Section: section, From: m.doc.pos(start), To: m.doc.pos(end), state: state, Err: err}
	}
	if b.End != nil {
		e, ok := m.find(b.End, start+1, end)
		if !ok {
			return nil, fail("", errEndNotFound)
		}
		end = e
	}
	if b.MaxSize > 0 {
		end = min(end, start+b.MaxSize-1)
	}
	soft := min(end, m.doc.pageEnd(start))

	state = stateCapturing
	c := base.clone()
	c.lines = append(c.lines, start)
	for _, s := range b.Sections {
		if err := m.section(s, c, start, soft, end); err != nil {
			return nil, fail(s.ID, err)
		}
	}
	res := &match{block: b, from: start, to: end}
	if b.Rows == nil {
		res.records = []record{{captures: c, producer: b.Produce, from: start, to: end}}
		return res, nil
	}

	state = stateRepeating
	producer := b.Produce
	if b.Rows.Produce != nil {
		producer = b.Rows.Produce
	}
	rows, err := m.rows(b.Rows, c, slices.Max(c.lines)+1, soft, end)
	if err != nil {
		return nil, fail("", err)
	}
	for _, r := range rows {
		res.records = append(res.records, record{captures: r, producer: producer, from: r.lines[len(r.lines)-1], to: r.lines[len(r.lines)-1]})
	}
	return res, nil
}

// find returns the first line in [from, to] matching re.
func (m *matcher) find(re *regexp.Regexp, from, to int) (int, bool) {
	for i := from; i <= to; i++ {
		if re.MatchString(m.doc.line(i)) {
			return i, true
		}
	}
	return 0, false
}

// section evaluates s on lines [from, soft], or [from, end] when s continues
// on the next pages, and stores what it captures in c. On error c is unchanged.
func (m *matcher) section(s *Section, c *Captures, from, soft, end int) error {
	if len(s.Alternatives) > 0 {
		var errs []error
		for _, alt := range s.Alternatives {
			trial := c.clone()
			err := m.section(alt, trial, from, soft, end)
			if err == nil {
				*c = *trial
				return nil
			}
			errs = append(errs, err)
		}
		if s.Optional {
			return nil
		}
		return fmt.Errorf("%w among %d: %w", errNoAlternative, len(errs), errors.Join(errs...))
	}

	limit := soft
	if s.Continues {
		limit = end
	}
	matched := 0
	for i := from; i <= limit; {
		groups, lines, next, ok := m.sequence(s.Patterns, i, limit, s.Continues)
		if !ok {
			break
		}
		values, err := m.parse(s.Attributes, groups)
		if err == nil {
			err = assign(s.Role, c, values)
		}
		if err != nil {
			if s.Optional {
				return nil
			}
			return err
		}
		c.lines = append(c.lines, lines...)
		matched++
		if !s.Multiple {
			break
		}
		i = next
	}
	if matched == 0 && !s.Optional {
		return &SectionNotFoundError{Pattern: m.firstMissing(s.Patterns, from, limit, s.Continues)}
	}
	return nil
}

// sequence finds patterns on successive lines in [from, limit], each on a line
// after the previous one. It returns the named groups, the matched lines and
// the line after the last match.
func (m *matcher) sequence(patterns []*regexp.Regexp, from, limit int, continues bool) (map[string]string, []int, int, bool) {
	groups := map[string]string{}
	var lines []int
	p, i := 0, from
	for ; i <= limit && p < len(patterns); i++ {
		line := m.doc.line(i)
		if continues && m.rs.skip(line) {
			continue
		}
		if !submatch(patterns[p], line, groups) {
			continue
		}
		lines = append(lines, i)
		p++
	}
	return groups, lines, i, p == len(patterns)
}

// firstMissing returns the first pattern of a failed sequence that was not found.
func (m *matcher) firstMissing(patterns []*regexp.Regexp, from, limit int, continues bool) string {
	for n := len(patterns); n > 0; n-- {
		if _, _, _, ok := m.sequence(patterns[:n-1], from, limit, continues); ok {
			return patterns[n-1].String()
		}
	}
	return patterns[0].String()
}

// submatch stores the named groups of re matching line in groups.
func submatch(re *regexp.Regexp, line string, groups map[string]string) bool {
	idx := re.FindStringSubmatchIndex(line)
	if idx == nil {
		return false
	}
	for g, name := range re.SubexpNames() {
		if name == "" || idx[2*g] < 0 {
			continue
		}
		groups[name] = line[idx[2*g]:idx[2*g+1]]
	}
	return true
}

// parse parses static attributes then captured groups, the latter taking precedence.
func (m *matcher) parse(attributes, groups map[string]string) (map[string]any, error) {
	values := make(map[string]any, len(attributes)+len(groups))
	for _, raw := range []map[string]string{attributes, groups} {
		names := make([]string, 0, len(raw))
		for n := range raw {
			names = append(names, n)
		}
		slices.Sort(names)
		for _, name := range names {
			v, err := parseField(m.rs.kind(name), name, raw[name], m.rs.Locale)
			if err != nil {
				return nil, err
			}
			values[name] = v
		}
	}
	return values, nil
}

// rows matches the table rows starting at from: lines before the first row
// are ignored, then rows must follow each other until the terminator or the
// first line that is not a row.
func (m *matcher) rows(r *Rows, header *Captures, from, soft, end int) ([]*Captures, error) {
	limit := soft
	if r.Continues {
		limit = end
	}
	var rows []*Captures
	for i := from; i <= limit; i++ {
		line := m.doc.line(i)
		if r.Terminator != nil && r.Terminator.MatchString(line) {
			break
		}
		groups := map[string]string{}
		if !submatch(r.Pattern, line, groups) {
			if len(rows) == 0 || (r.Continues && m.rs.skip(line)) {
				continue
			}
			break
		}
		values, err := m.parse(nil, groups)
		if err != nil {
			return nil, fmt.Errorf("row on page %d line %d: %w", m.doc.pos(i).Page+1, m.doc.pos(i).Line+1, err)
		}
		row := header.clone()
		row.lines = []int{i}
		for k, v := range values {
			row.values[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// securityFields are the fields a security section captures for the security,
// its other fields are transaction fields.
var securityFields = []string{"name", "isin", "wkn", "ticker", "currency"}

// assign stores values in c according to role.
func assign(role SectionRole, c *Captures, values map[string]any) error {
	switch role {
	case RoleFields:
		for k, v := range values {
			c.values[k] = v
		}
		return nil
	case RoleSecurity:
		for k, v := range values {
			if slices.Contains(securityFields, k) {
				c.security[k] = v
			} else {
				c.values[k] = v
			}
		}
		return nil
	case RoleRate:
		base, ok1 := get[string](values, "baseCurrency")
		term, ok2 := get[string](values, "termCurrency")
		rate, ok3 := get[decimal.Decimal](values, "exchangeRate")
		if !ok1 || !ok2 || !ok3 {
			return errors.New("an exchange rate needs baseCurrency, termCurrency and exchangeRate")
		}
		c.rate = &ExchangeRate{Base: base, Term: term, Rate: rate}
		return nil
	}
	typ, _ := role.unitType()
	amount, ok := get[decimal.Decimal](values, "amount")
	if !ok {
		return fmt.Errorf("a %s section needs an amount", role)
	}
	if amount.IsZero() {
		return nil
	}
	u := pendingUnit{Type: typ, Amount: amount.Abs()}
	u.Currency, _ = get[string](values, "currency")
	if fx, ok := get[decimal.Decimal](values, "fxAmount"); ok {
		u.HasForex = true
		u.FxAmount = fx.Abs()
		u.FxCurrency, _ = get[string](values, "fxCurrency")
		u.Rate, _ = get[decimal.Decimal](values, "exchangeRate")
	}
	c.units = append(c.units, u)
	return nil
}
