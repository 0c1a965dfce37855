package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/statement/renderer"
	"github.com/google/subcommands"
)

type rulesCmd struct{}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list the rule sets and the documents they read" }
func (*rulesCmd) Usage() string {
	return `stx rules

  Lists the rule sets in use, custom ones from the configured rules directory
  first, then the builtin ones. A document is extracted with the first rule
  set recognizing it.
`
}

func (*rulesCmd) SetFlags(f *flag.FlagSet) {}

func (*rulesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	printMarkdown(renderer.RuleSetsMarkdown(ruleSets))
	return subcommands.ExitSuccess
}
