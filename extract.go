package statement

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/etnz/statement/security"
)

var (
	// ErrNoRuleSet is reported for a document no rule set recognizes.
	ErrNoRuleSet = errors.New("no rule set recognizes the document")
	// ErrNoDocumentType is reported when no document type of the rule set accepts the document.
	ErrNoDocumentType = errors.New("no document type accepts the document")
	// ErrMissingBlock is reported when a mandatory block never anchors in the document.
	ErrMissingBlock = errors.New("mandatory block not found")
	// ErrNothingExtracted is reported for a document that yields neither items nor errors.
	ErrNothingExtracted = errors.New("nothing extracted")
)

// ExtractionError is an error met while extracting a document, located in
// the document when it concerns a block.
type ExtractionError struct {
	Document string
	RuleSet  string
	Block    string
	From, To Pos
	Err      error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Document)
	if e.Block != "" {
		fmt.Fprintf(&b, ": block %q page %d line %d to page %d line %d", e.Block, e.From.Page+1, e.From.Line+1, e.To.Page+1, e.To.Line+1)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result is the outcome of the extraction of one document.
type Result struct {
	Document string
	RuleSet  string
	Items    []Item
	Errors   []*ExtractionError
}

// NewSecurities returns the securities announced by the result, in order.
func (r *Result) NewSecurities() []*security.Security {
	var secs []*security.Security
	for _, it := range r.Items {
		if s, ok := it.(*SecurityItem); ok {
			secs = append(secs, s.Security)
		}
	}
	return secs
}

// boundBlock is a block of a document type accepting the document, with the
// document context it starts from.
type boundBlock struct {
	block   *Block
	context *Captures
}

// run is the state of one extraction.
type run struct {
	doc      *Document
	rs       *RuleSet
	m        *matcher
	registry *security.Registry
	known    *security.Registry // securities announced by this run
	res      *Result
}

// Extract extracts the items of doc with the rules of rs. Securities are
// resolved against registry, which is only read and may be nil.
//
// Extract never fails as a whole: what cannot be understood is reported in
// Result.Errors, and a document yielding nothing always has an error.
func Extract(doc *Document, rs *RuleSet, registry *security.Registry) *Result {
	r := &run{
		doc:      doc,
		rs:       rs,
		m:        &matcher{doc: doc, rs: rs},
		registry: registry,
		known:    security.NewRegistry(),
		res:      &Result{Document: doc.Name, RuleSet: rs.Name},
	}
	r.extract()
	if len(r.res.Items) == 0 && len(r.res.Errors) == 0 {
		r.fail("", Pos{}, Pos{}, ErrNothingExtracted)
	}
	slog.Debug("extracted", "document", doc.Name, "ruleset", rs.Name, "items", len(r.res.Items), "errors", len(r.res.Errors))
	return r.res
}

func (r *run) fail(block string, from, to Pos, err error) {
	r.res.Errors = append(r.res.Errors, &ExtractionError{
		Document: r.doc.Name, RuleSet: r.rs.Name, Block: block, From: from, To: to, Err: err,
	})
}

func (r *run) extract() {
	types := r.rs.documentTypes(r.doc)
	if len(types) == 0 {
		r.fail("", Pos{}, Pos{}, ErrNoDocumentType)
		return
	}

	var bound []boundBlock
	var blocks []*Block
	for _, dt := range types {
		ctx, err := r.context(dt)
		if err != nil {
			r.fail("", Pos{}, Pos{}, fmt.Errorf("document type %q context: %w", dt.Name, err))
			continue
		}
		for _, b := range dt.Blocks {
			if b.Mandatory {
				if _, found := r.doc.FindNext(Pos{}, b.Start.MatchString); !found {
					r.fail(b.Name, Pos{}, Pos{}, ErrMissingBlock)
					return
				}
			}
			bound = append(bound, boundBlock{block: b, context: ctx})
			blocks = append(blocks, b)
		}
	}

	for cursor := 0; cursor < r.doc.Len(); {
		next, ok := r.anchor(bound, blocks, cursor)
		if !ok {
			cursor++
			continue
		}
		cursor = next
	}
}

// context evaluates the context sections of dt against the whole document.
func (r *run) context(dt *DocumentType) (*Captures, error) {
	c := newCaptures()
	last := r.doc.Len() - 1
	for _, s := range dt.Context {
		if err := r.m.section(s, c, 0, last, last); err != nil {
			return nil, err
		}
	}
	c.lines = nil
	return c, nil
}

// anchor tries, in order, the blocks anchored at cursor. The first that
// completes is built and the line after it is returned. When none completes,
// the failures of mandatory blocks are recorded. Any anchor of blocks ends
// the block being matched.
func (r *run) anchor(bound []boundBlock, blocks []*Block, cursor int) (int, bool) {
	line := r.doc.line(cursor)
	var failures []*MatchError
	for _, bb := range bound {
		if !bb.block.Start.MatchString(line) {
			continue
		}
		slog.Debug("block anchored", "document", r.doc.Name, "block", bb.block.Name, "at", r.doc.pos(cursor))
		m, err := r.m.matchBlock(bb.block, blocks, bb.context, cursor)
		if err != nil {
			slog.Debug("block failed", "document", r.doc.Name, "block", bb.block.Name, "err", err)
			if bb.block.Mandatory {
				failures = append(failures, err)
			}
			continue
		}
		r.build(m)
		return m.to + 1, true
	}
	for _, err := range failures {
		r.fail(err.Block, err.From, err.To, err)
	}
	return 0, false
}

// build turns the records of a completed match into items.
func (r *run) build(m *match) {
	for _, rec := range m.records {
		origin := Origin{Document: r.doc.Name, Block: m.block.Name, From: r.doc.pos(rec.from), To: r.doc.pos(rec.to)}
		items, err := BuildWith(rec.producer, rec.captures, r.lookup)
		if err != nil {
			r.fail(m.block.Name, origin.From, origin.To, err)
			continue
		}
		for _, it := range items {
			if s, ok := it.(*SecurityItem); ok {
				r.resolve(s.Security, origin)
				continue
			}
			r.attach(it, origin)
			r.res.Items = append(r.res.Items, it)
		}
	}
}

// attach sets the origin of it and replaces its security candidates by the
// resolved securities.
func (r *run) attach(it Item, origin Origin) {
	switch it := it.(type) {
	case *TransactionItem:
		it.From = origin
		r.own(it.Transaction, origin)
	case *BuySellEntryItem:
		it.From = origin
		r.own(it.Entry.Portfolio, origin)
		it.Entry.Account.Source = r.doc.Name
		it.Entry.Account.Security = it.Entry.Portfolio.Security
	case *FailureItem:
		it.From = origin
		if it.Partial != nil {
			it.Partial.Source = r.doc.Name
		}
	}
}

func (r *run) own(tx *Transaction, origin Origin) {
	tx.Source = r.doc.Name
	if tx.Security != nil {
		tx.Security = r.resolve(tx.Security, origin)
	}
}

// resolve returns the registry security matching candidate. A candidate found
// neither in the registry nor among the securities already announced by this
// run is announced with a SecurityItem.
func (r *run) resolve(candidate *security.Security, origin Origin) *security.Security {
	if sec, ok := r.find(candidate); ok {
		return sec
	}
	r.known = r.known.With(candidate)
	r.res.Items = append(r.res.Items, &SecurityItem{Security: candidate, From: origin})
	return candidate
}

// find looks candidate up in the registry, then among the securities already
// announced by this run.
func (r *run) find(candidate *security.Security) (*security.Security, bool) {
	for _, reg := range []*security.Registry{r.registry, r.known} {
		if ref := security.Resolve(*candidate, reg); ref.Existing {
			return ref.Security, true
		}
	}
	return nil, false
}

// lookup is the Resolver of the run: the known security for candidate, or
// candidate itself, announced later by own.
func (r *run) lookup(candidate *security.Security) *security.Security {
	if sec, ok := r.find(candidate); ok {
		return sec
	}
	return candidate
}
