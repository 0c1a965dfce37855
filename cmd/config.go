package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes the environment variables overriding the configuration,
// like STX_RULES_DIR.
const EnvPrefix = "STX_"

// Config is the configuration of the stx commands.
type Config struct {
	RulesDir     string `koanf:"rules_dir"`     // directory of custom rule sets
	RegistryFile string `koanf:"registry_file"` // security registry, in the security.Import format
	Workers      int    `koanf:"workers"`       // parallel extractions
	LogLevel     string `koanf:"log_level"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		RegistryFile: "securities.json",
		Workers:      runtime.NumCPU(),
		LogLevel:     "info",
	}
}

// LoadConfig returns the default configuration overridden by the JSON file
// name, when it exists, then by the environment.
func LoadConfig(name string) (Config, error) {
	k := koanf.New(".")
	if name != "" {
		_, err := os.Stat(name)
		switch {
		case err == nil:
			if err := k.Load(file.Provider(name), json.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %q: %w", name, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("loading config file %q: %w", name, err)
		}
	}

	// Load configuration from environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("invalid number of workers %d", cfg.Workers)
	}
	return cfg, nil
}

// envKey maps STX_RULES_DIR to rules_dir.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Environ returns cfg as environment variables, read back by LoadConfig.
func (cfg Config) Environ() []string {
	return []string{
		EnvPrefix + "RULES_DIR=" + cfg.RulesDir,
		EnvPrefix + "REGISTRY_FILE=" + cfg.RegistryFile,
		fmt.Sprintf("%sWORKERS=%d", EnvPrefix, cfg.Workers),
		EnvPrefix + "LOG_LEVEL=" + cfg.LogLevel,
	}
}
