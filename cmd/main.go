// Package cmd implements the stx command line application, extracting
// transactions from bank statements.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/etnz/statement"
	"github.com/etnz/statement/security"
	"github.com/google/subcommands"
)

// Commands are the stx subcommands, by group.
var Commands = map[string][]subcommands.Command{
	"extraction": {&extractCmd{}, &textCmd{}},
	"rules":      {&rulesCmd{}, &checkCmd{}},
	"help":       {&topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "stx.json", "Path to the configuration file (JSON)")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "Log debug messages")

// setup loads the configuration and installs the default logger.
func setup() (Config, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return cfg, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return cfg, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if *Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

// RuleSets returns the rule sets of the configured directory, followed by the
// builtin ones.
func RuleSets(cfg Config) ([]*statement.RuleSet, error) {
	builtins, err := statement.Builtins()
	if err != nil {
		return nil, err
	}
	if cfg.RulesDir == "" {
		return builtins, nil
	}
	custom, err := statement.LoadRuleSets(os.DirFS(cfg.RulesDir), ".")
	if err != nil {
		return nil, err
	}
	slog.Debug("custom rule sets loaded", "dir", cfg.RulesDir, "count", len(custom))
	return append(custom, builtins...), nil
}

// DecodeRegistry reads the security registry from the configured file.
func DecodeRegistry(cfg Config) (*security.Registry, error) {
	f, err := os.Open(cfg.RegistryFile)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("security registry does not exist, starting from an empty registry", "file", cfg.RegistryFile)
		return security.NewRegistry(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return security.Import(f)
}

// EncodeRegistry writes r into the configured file.
func EncodeRegistry(cfg Config, r *security.Registry) error {
	f, err := os.Create(cfg.RegistryFile)
	if err != nil {
		return err
	}
	if err := r.Export(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
