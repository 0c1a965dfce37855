package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/etnz/statement"
	"github.com/etnz/statement/renderer"
	"github.com/etnz/statement/security"
	"github.com/google/subcommands"
)

type extractCmd struct {
	json    bool
	html    string
	apply   bool
	workers int
}

func (*extractCmd) Name() string { return "extract" }
func (*extractCmd) Synopsis() string {
	return "extract transactions from bank statements"
}
func (*extractCmd) Usage() string {
	return `stx extract [-json] [-html <file>] [-apply] [-w <workers>] <file|dir>...

  Extracts the transactions of each document with the first rule set
  recognizing it, and prints a report of the extraction.

  Documents are plain text files, with pages separated by form feeds, PDF
  files or JSON exports. Directories are read for .txt, .pdf and .json files.

  Securities are resolved against the security registry. New securities are
  listed in the report, and added to the registry with -apply.

Usage Examples:
# Report the extraction of a directory of statements.
$ stx extract statements/

# Print the extracted items as JSON lines, and register new securities.
$ stx extract -json -apply statements/2024-03/
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the extracted items as JSON lines instead of a report.")
	f.StringVar(&c.html, "html", "", "Also write the report as HTML into this file.")
	f.BoolVar(&c.apply, "apply", false, "Add the new securities to the security registry.")
	f.IntVar(&c.workers, "w", 0, "Number of documents extracted in parallel, overrides the configuration.")
}

func (c *extractCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no document to extract")
		return subcommands.ExitUsageError
	}
	cfg, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	ruleSets, err := RuleSets(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rule sets: %v\n", err)
		return subcommands.ExitFailure
	}
	registry, err := DecodeRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading security registry: %v\n", err)
		return subcommands.ExitFailure
	}

	batch, err := Extract(ctx, f.Args(), ruleSets, registry, cfg.Workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		if err := writeItems(os.Stdout, batch); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		printMarkdown(renderer.BatchMarkdown(batch))
	}

	if c.html != "" {
		html, err := renderer.HTML(renderer.BatchMarkdown(batch))
		if err == nil {
			err = os.WriteFile(c.html, []byte(html), 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing HTML report: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if c.apply && len(batch.NewSecurities) > 0 {
		if err := EncodeRegistry(cfg, batch.Registry); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing security registry %q: %v\n", cfg.RegistryFile, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Added %d securities to %s\n", len(batch.NewSecurities), cfg.RegistryFile)
	}

	if batch.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// Extract loads the documents in paths and extracts them against registry.
// Documents that cannot be loaded are reported as failed.
func Extract(ctx context.Context, paths []string, ruleSets []*statement.RuleSet, registry *security.Registry, workers int) (*statement.Batch, error) {
	files, err := documentFiles(paths)
	if err != nil {
		return nil, err
	}
	var docs []*statement.Document
	var unreadable []*statement.Result
	for _, name := range files {
		doc, err := LoadDocument(name, ruleSets)
		if err != nil {
			slog.Warn("cannot load document", "file", name, "error", err)
			unreadable = append(unreadable, &statement.Result{Document: name, Errors: []*statement.ExtractionError{{Document: name, Err: err}}})
			continue
		}
		slog.Debug("document loaded", "file", name, "pages", doc.Pages(), "lines", doc.Len())
		docs = append(docs, doc)
	}

	results, err := statement.ExtractAll(ctx, docs, ruleSets, registry, workers)
	if err != nil {
		return nil, err
	}
	return statement.Consolidate(append(results, unreadable...), registry), nil
}

// writeItems writes the items of b as JSON lines, one document after the other.
func writeItems(w io.Writer, b *statement.Batch) error {
	for _, r := range b.Results {
		for _, it := range r.Items {
			data, err := statement.MarshalItem(it)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Document, err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return err
			}
		}
	}
	return nil
}
