package statement

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"regexp"
	"slices"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/patrickmn/go-cache"
)

// RuleSetDef is the data form of a RuleSet, as written in rule set files.
// Map keys must not contain dots.
type RuleSetDef struct {
	Name        string            `koanf:"name"`
	Label       string            `koanf:"label"`
	Locale      string            `koanf:"locale"`
	Identifiers []string          `koanf:"identifiers"`
	Skip        []string          `koanf:"skip"`
	Kinds       map[string]string `koanf:"kinds"`
	Documents   []DocumentDef     `koanf:"documents"`
	Selector    string            `koanf:"selector"`
}

type DocumentDef struct {
	Name    string       `koanf:"name"`
	Include []string     `koanf:"include"`
	Exclude []string     `koanf:"exclude"`
	Context []SectionDef `koanf:"context"`
	Blocks  []BlockDef   `koanf:"blocks"`
}

type BlockDef struct {
	Name      string       `koanf:"name"`
	Start     string       `koanf:"start"`
	End       string       `koanf:"end"`
	MaxSize   int          `koanf:"maxSize"`
	Mandatory bool         `koanf:"mandatory"`
	Sections  []SectionDef `koanf:"sections"`
	Rows      *RowsDef     `koanf:"rows"`
	Produce   ProducerDef  `koanf:"produce"`
}

type SectionDef struct {
	ID         string            `koanf:"id"`
	Role       string            `koanf:"role"`
	Patterns   []string          `koanf:"patterns"`
	Attributes map[string]string `koanf:"attributes"`
	Optional   bool              `koanf:"optional"`
	Multiple   bool              `koanf:"multiple"`
	Continues  bool              `koanf:"continues"`
	OneOf      []SectionDef      `koanf:"oneOf"`
}

type RowsDef struct {
	Pattern    string       `koanf:"pattern"`
	Terminator string       `koanf:"terminator"`
	Continues  bool         `koanf:"continues"`
	Produce    *ProducerDef `koanf:"produce"`
}

type ProducerDef struct {
	Kind         string            `koanf:"kind"`
	Type         string            `koanf:"type"`
	TypeField    string            `koanf:"typeField"`
	Types        map[string]string `koanf:"types"`
	NegativeType string            `koanf:"negativeType"`
	Message      string            `koanf:"message"`
}

// patterns caches compiled expressions, rule sets share most of their boilerplate.
var patterns = cache.New(cache.NoExpiration, 0)

// compileLine compiles expr to match a whole line.
func compileLine(expr string) (*regexp.Regexp, error) {
	return compileCached("line:", `^(?:`+expr+`)$`)
}

// compileFind compiles expr to be found anywhere in a line.
func compileFind(expr string) (*regexp.Regexp, error) {
	return compileCached("find:", expr)
}

func compileCached(prefix, expr string) (*regexp.Regexp, error) {
	if re, ok := patterns.Get(prefix + expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Set(prefix+expr, re, cache.NoExpiration)
	return re, nil
}

// compiler accumulates every error found in a definition, so that a rule
// set author gets them all at once.
type compiler struct {
	errs []error
}

func (c *compiler) fail(where string, format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%s: %s", where, fmt.Sprintf(format, args...)))
}

func (c *compiler) line(where, expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	re, err := compileLine(expr)
	if err != nil {
		c.fail(where, "invalid pattern %q: %v", expr, err)
	}
	return re
}

func (c *compiler) find(where, expr string) *regexp.Regexp {
	re, err := compileFind(expr)
	if err != nil {
		c.fail(where, "invalid pattern %q: %v", expr, err)
	}
	return re
}

// CompileRuleSet validates def and returns the RuleSet it describes. An
// invalid definition is a programming error of its author: every problem
// found is reported, joined in the returned error.
func CompileRuleSet(def RuleSetDef) (*RuleSet, error) {
	var c compiler
	where := fmt.Sprintf("rule set %q", def.Name)
	if def.Name == "" {
		c.fail(where, "missing name")
	}
	rs := &RuleSet{
		Name:        def.Name,
		Label:       def.Label,
		Identifiers: def.Identifiers,
		Kinds:       map[string]FieldKind{},
		Selector:    def.Selector,
	}
	if rs.Label == "" {
		rs.Label = def.Name
	}
	locale := def.Locale
	if locale == "" {
		locale = "de-DE"
	}
	loc, err := LookupLocale(locale)
	if err != nil {
		c.fail(where, "%v", err)
	}
	rs.Locale = loc
	for _, s := range def.Skip {
		rs.Skip = append(rs.Skip, c.line(where+" skip", s))
	}
	for name, k := range def.Kinds {
		kind, err := ParseFieldKind(k)
		if err != nil {
			c.fail(where+" kinds", "field %q: %v", name, err)
		}
		rs.Kinds[name] = kind
	}
	if len(def.Documents) == 0 {
		c.fail(where, "no document types")
	}
	for i, dd := range def.Documents {
		rs.Documents = append(rs.Documents, c.document(fmt.Sprintf("%s document #%d %q", where, i, dd.Name), dd))
	}
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	return rs, nil
}

func (c *compiler) document(where string, dd DocumentDef) *DocumentType {
	dt := &DocumentType{Name: dd.Name}
	for _, p := range dd.Include {
		dt.MustInclude = append(dt.MustInclude, c.find(where+" include", p))
	}
	for _, p := range dd.Exclude {
		dt.MustNotInclude = append(dt.MustNotInclude, c.find(where+" exclude", p))
	}
	ids := map[string]bool{}
	for _, sd := range dd.Context {
		dt.Context = append(dt.Context, c.section(where+" context", sd, ids))
	}
	if len(dd.Blocks) == 0 {
		c.fail(where, "no blocks")
	}
	names := map[string]bool{}
	for i, bd := range dd.Blocks {
		if bd.Name == "" {
			bd.Name = fmt.Sprintf("%s#%d", dd.Name, i)
		}
		if names[bd.Name] {
			c.fail(where, "duplicate block name %q", bd.Name)
		}
		names[bd.Name] = true
		dt.Blocks = append(dt.Blocks, c.block(fmt.Sprintf("%s block %q", where, bd.Name), bd))
	}
	return dt
}

func (c *compiler) block(where string, bd BlockDef) *Block {
	b := &Block{
		Name:      bd.Name,
		Start:     c.line(where+" start", bd.Start),
		End:       c.line(where+" end", bd.End),
		MaxSize:   bd.MaxSize,
		Mandatory: bd.Mandatory,
		Produce:   c.producer(where+" produce", bd.Produce),
	}
	if bd.Start == "" {
		c.fail(where, "missing start pattern")
	}
	if bd.MaxSize < 0 {
		c.fail(where, "negative maxSize %d", bd.MaxSize)
	}
	ids := map[string]bool{}
	for _, sd := range bd.Sections {
		b.Sections = append(b.Sections, c.section(where, sd, ids))
	}
	if bd.Rows != nil {
		b.Rows = &Rows{
			Pattern:    c.line(where+" rows", bd.Rows.Pattern),
			Terminator: c.line(where+" rows terminator", bd.Rows.Terminator),
			Continues:  bd.Rows.Continues,
		}
		if bd.Rows.Pattern == "" {
			c.fail(where+" rows", "missing pattern")
		}
		if bd.Rows.Produce != nil {
			b.Rows.Produce = c.producer(where+" rows produce", *bd.Rows.Produce)
		}
	}
	return b
}

func (c *compiler) section(where string, sd SectionDef, ids map[string]bool) *Section {
	if sd.ID != "" {
		where = fmt.Sprintf("%s section %q", where, sd.ID)
		if ids[sd.ID] {
			c.fail(where, "duplicate section id")
		}
		ids[sd.ID] = true
	}
	s := &Section{
		ID:         sd.ID,
		Attributes: sd.Attributes,
		Optional:   sd.Optional,
		Multiple:   sd.Multiple,
		Continues:  sd.Continues,
	}
	if sd.Role != "" {
		i := slices.Index(roleNames, sd.Role)
		if i < 0 {
			c.fail(where, "unknown role %q, want one of %v", sd.Role, roleNames)
		}
		s.Role = SectionRole(max(i, 0))
	}
	switch {
	case len(sd.OneOf) > 0 && len(sd.Patterns) > 0:
		c.fail(where, "a section has either patterns or alternatives")
	case len(sd.OneOf) == 0 && len(sd.Patterns) == 0:
		c.fail(where, "a section needs patterns or alternatives")
	}
	for _, p := range sd.Patterns {
		s.Patterns = append(s.Patterns, c.line(where, p))
	}
	for _, alt := range sd.OneOf {
		if alt.Role == "" {
			alt.Role = sd.Role
		}
		s.Alternatives = append(s.Alternatives, c.section(where+" alternative", alt, ids))
	}
	return s
}

func (c *compiler) producer(where string, pd ProducerDef) *Producer {
	p := &Producer{TypeField: pd.TypeField, Message: pd.Message, Types: map[string]TxType{}}
	if pd.Kind != "" {
		i := slices.Index(producerNames, pd.Kind)
		if i < 0 {
			c.fail(where, "unknown kind %q, want one of %v", pd.Kind, producerNames)
		}
		p.Kind = ProducerKind(max(i, 0))
	}
	txType := func(s string) TxType {
		if s == "" {
			return ""
		}
		t, err := ParseTxType(s)
		if err != nil {
			c.fail(where, "%v", err)
		}
		return t
	}
	p.Type = txType(pd.Type)
	p.NegativeType = txType(pd.NegativeType)
	for text, s := range pd.Types {
		p.Types[text] = txType(s)
	}
	switch p.Kind {
	case ProduceTransaction, ProduceBuySell:
		if p.Type == "" && p.TypeField == "" {
			c.fail(where, "missing type or typeField")
		}
		if p.TypeField != "" && len(p.Types) == 0 {
			c.fail(where, "typeField %q without types", p.TypeField)
		}
	}
	if p.Kind == ProduceBuySell {
		for _, t := range append(slices.Collect(maps.Values(p.Types)), p.Type, p.NegativeType) {
			if t != "" && !t.IsBuySell() {
				c.fail(where, "buysell producer cannot produce %s", t)
			}
		}
	}
	return p
}

// loadDef unmarshals a rule set definition from a koanf provider.
func loadDef(p koanf.Provider) (RuleSetDef, error) {
	k := koanf.New(".")
	if err := k.Load(p, json.Parser()); err != nil {
		return RuleSetDef{}, err
	}
	var def RuleSetDef
	if err := k.UnmarshalWithConf("", &def, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return RuleSetDef{}, err
	}
	return def, nil
}

// ParseRuleSet compiles the JSON rule set in data.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	def, err := loadDef(rawbytes.Provider(data))
	if err != nil {
		return nil, fmt.Errorf("cannot read rule set: %w", err)
	}
	return CompileRuleSet(def)
}

// LoadRuleSetFile compiles the JSON rule set in file name.
func LoadRuleSetFile(name string) (*RuleSet, error) {
	def, err := loadDef(file.Provider(name))
	if err != nil {
		return nil, fmt.Errorf("cannot read rule set %q: %w", name, err)
	}
	rs, err := CompileRuleSet(def)
	if err != nil {
		return nil, fmt.Errorf("invalid rule set %q: %w", name, err)
	}
	return rs, nil
}

//go:embed rules/*.json
var builtins embed.FS

// Builtins returns the rule sets shipped with the package, sorted by file name.
func Builtins() ([]*RuleSet, error) {
	return LoadRuleSets(builtins, "rules")
}

// LoadRuleSets compiles every .json file in directory dir of fsys.
func LoadRuleSets(fsys fs.FS, dir string) ([]*RuleSet, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list rule sets: %w", err)
	}
	var ruleSets []*RuleSet
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read rule set %q: %w", e.Name(), err)
		}
		rs, err := ParseRuleSet(data)
		if err != nil {
			return nil, fmt.Errorf("invalid rule set %q: %w", e.Name(), err)
		}
		ruleSets = append(ruleSets, rs)
	}
	return ruleSets, nil
}
