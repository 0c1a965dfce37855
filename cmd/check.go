package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/etnz/statement"
	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate rule set files" }
func (*checkCmd) Usage() string {
	return `stx check [<rules.json>...]

  Compiles each rule set file and reports every problem found: invalid
  patterns, unknown transaction types, roles or field kinds, duplicate names.
  Without arguments, checks the rule sets of the configured rules directory.
`
}

func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	files := f.Args()
	if len(files) == 0 {
		if cfg.RulesDir == "" {
			fmt.Fprintln(os.Stderr, "Error: no rule set file given, and no rules directory configured")
			return subcommands.ExitUsageError
		}
		if files, err = filepath.Glob(filepath.Join(cfg.RulesDir, "*.json")); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if n := CheckRuleSets(os.Stdout, files); n > 0 {
		fmt.Fprintf(os.Stderr, "%d invalid rule sets\n", n)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// CheckRuleSets compiles each file, reports the outcome to w and returns the
// number of invalid files.
func CheckRuleSets(w io.Writer, files []string) int {
	invalid := 0
	for _, name := range files {
		rs, err := statement.LoadRuleSetFile(name)
		if err != nil {
			invalid++
			fmt.Fprintf(w, "❌ %v\n", err)
			continue
		}
		fmt.Fprintf(w, "✅ %s: rule set %q, %d document types\n", name, rs.Name, len(rs.Documents))
	}
	return invalid
}
