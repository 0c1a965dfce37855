package statement

import (
	"context"
	"log/slog"

	"github.com/etnz/statement/security"
	"golang.org/x/sync/errgroup"
)

// DocStatus summarizes the extraction of one document.
type DocStatus int

const (
	// Succeeded documents produced items, all clean.
	Succeeded DocStatus = iota
	// Flagged documents produced items, but also errors, failures,
	// reconciliation issues or currency inconsistencies.
	Flagged
	// Failed documents produced no transaction.
	Failed
)

func (s DocStatus) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Flagged:
		return "flagged"
	}
	return "failed"
}

// Status returns the status of the document extraction.
func (r *Result) Status() DocStatus {
	status, n := Succeeded, 0
	for _, it := range r.Items {
		if _, ok := it.(*SecurityItem); ok {
			continue
		}
		n++
		if _, ok := it.(*FailureItem); ok || IssueOf(it) != nil || CheckCurrencies(it).Status != StatusOK {
			status = Flagged
		}
	}
	switch {
	case n == 0:
		return Failed
	case len(r.Errors) > 0:
		return Flagged
	}
	return status
}

// Batch is the consolidated outcome of the extraction of several documents.
type Batch struct {
	Results []*Result
	// NewSecurities are the securities to add to the registry, without
	// duplicates, in the order documents announced them.
	NewSecurities []*security.Security
	// Registry is the snapshot followed by NewSecurities.
	Registry *security.Registry

	Succeeded, Flagged, Failed int
}

// ExtractAll extracts docs in parallel, with at most workers goroutines, each
// with the first rule set recognizing it. All extractions read the same
// registry snapshot.
//
// Cancelling ctx stops the extraction between documents: the documents not
// extracted yet get a result holding the context error, and ExtractAll
// returns it.
func ExtractAll(ctx context.Context, docs []*Document, ruleSets []*RuleSet, snapshot *security.Registry, workers int) ([]*Result, error) {
	results := make([]*Result, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &Result{Document: doc.Name, Errors: []*ExtractionError{{Document: doc.Name, Err: err}}}
				return err
			}
			rs, ok := Detect(doc, ruleSets)
			if !ok {
				results[i] = &Result{Document: doc.Name, Errors: []*ExtractionError{{Document: doc.Name, Err: ErrNoRuleSet}}}
				return nil
			}
			results[i] = Extract(doc, rs, snapshot)
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Consolidate merges results in order against snapshot: a security announced
// by several documents is kept once, the first announcement wins, and every
// transaction is rewired to the kept security. Nil results are skipped, a
// caller holding no result for a document reports it with an ExtractionError.
func Consolidate(results []*Result, snapshot *security.Registry) *Batch {
	b := &Batch{Registry: security.NewRegistry(snapshot.All()...)}
	for _, r := range results {
		if r == nil {
			continue
		}
		b.merge(r)
		b.Results = append(b.Results, r)
		switch r.Status() {
		case Succeeded:
			b.Succeeded++
		case Flagged:
			b.Flagged++
		case Failed:
			b.Failed++
		}
	}
	slog.Info("batch consolidated", "documents", len(b.Results), "succeeded", b.Succeeded, "flagged", b.Flagged, "failed", b.Failed, "securities", len(b.NewSecurities))
	return b
}

// merge registers the new securities of r and rewires its items.
func (b *Batch) merge(r *Result) {
	canonical := map[*security.Security]*security.Security{}
	items := r.Items[:0]
	for _, it := range r.Items {
		s, ok := it.(*SecurityItem)
		if !ok {
			items = append(items, it)
			continue
		}
		if ref := security.Resolve(*s.Security, b.Registry); ref.Existing {
			canonical[s.Security] = ref.Security
			continue
		}
		b.Registry = b.Registry.With(s.Security)
		b.NewSecurities = append(b.NewSecurities, s.Security)
		items = append(items, it)
	}
	r.Items = items
	rewire := func(tx *Transaction) {
		if tx == nil || tx.Security == nil {
			return
		}
		if c, ok := canonical[tx.Security]; ok {
			tx.Security = c
		}
	}
	for _, it := range r.Items {
		switch it := it.(type) {
		case *TransactionItem:
			rewire(it.Transaction)
		case *BuySellEntryItem:
			rewire(it.Entry.Portfolio)
			rewire(it.Entry.Account)
		case *FailureItem:
			rewire(it.Partial)
		}
	}
}
