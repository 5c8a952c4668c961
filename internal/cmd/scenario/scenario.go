// Package scenario parses scenario-runner command flags and executes a
// scenario file against a throwaway engine.
package scenario

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/visage-engine/internal/platform/cmd"
	runner "github.com/louisbranch/visage-engine/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario string        `env:"VISAGE_SCENARIO_FILE"`
	Assert   bool          `env:"VISAGE_SCENARIO_ASSERT" envDefault:"true"`
	Verbose  bool          `env:"VISAGE_SCENARIO_VERBOSE" envDefault:"false"`
	Timeout  time.Duration `env:"VISAGE_SCENARIO_TIMEOUT" envDefault:"2m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "Path to the Lua scenario file to run")
	fs.BoolVar(&cfg.Assert, "assert", cfg.Assert, "Abort on the first failed expectation")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log each step as it executes")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Scenario execution timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the configured scenario file.
func Run(ctx context.Context, cfg Config) error {
	if strings.TrimSpace(cfg.Scenario) == "" {
		return fmt.Errorf("scenario file is required")
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		runCfg := runner.Config{Verbose: cfg.Verbose}
		if !cfg.Assert {
			runCfg.Assertions = runner.AssertionLogOnly
		}
		return runner.RunFile(ctx, runCfg, cfg.Scenario)
	})
}
