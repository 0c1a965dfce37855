package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/statement"
	"github.com/google/subcommands"
)

type textCmd struct {
	numbers bool
}

func (*textCmd) Name() string     { return "text" }
func (*textCmd) Synopsis() string { return "print the lines of a document as rule sets read them" }
func (*textCmd) Usage() string {
	return `stx text [-n] <file>...

  Prints the lines of each document, pages separated by form feeds, after the
  normalization applied before extraction. PDF files are read row by row, JSON
  exports are flattened into "path: value" lines, one record per page.

  The output is a valid text document: it is the starting point to write the
  patterns of a new rule set, or a test fixture.
`
}

func (c *textCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.numbers, "n", false, "Prefix each line with its page and line number.")
}

func (c *textCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ruleSets, err := RuleSets(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rule sets: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, name := range f.Args() {
		doc, err := LoadDocument(name, ruleSets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		writeText(os.Stdout, doc, c.numbers)
	}
	return subcommands.ExitSuccess
}

// writeText writes doc in the format read by statement.ParseText.
func writeText(w io.Writer, doc *statement.Document, numbers bool) {
	for p := range doc.Pages() {
		if p > 0 {
			fmt.Fprintf(w, "%c\n", statement.PageBreak)
		}
		for l, line := range doc.Page(p) {
			if numbers {
				fmt.Fprintf(w, "%3d:%-3d ", p+1, l+1)
			}
			fmt.Fprintln(w, line)
		}
	}
}
