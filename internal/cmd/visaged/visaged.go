// Package visaged parses engine command flags and launches the engine
// runtime.
package visaged

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/visage-engine/internal/platform/cmd"
	"github.com/louisbranch/visage-engine/internal/visage/app"
)

// Config holds visaged command configuration.
type Config struct {
	Port            int           `env:"VISAGE_PORT" envDefault:"8095"`
	DBPath          string        `env:"VISAGE_DB_PATH" envDefault:"data/visage.db"`
	Holder          string        `env:"VISAGE_HOLDER"`
	RebuildInterval time.Duration `env:"VISAGE_REBUILD_INTERVAL" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The engine health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The engine SQLite database path")
	fs.StringVar(&cfg.Holder, "holder", cfg.Holder, "Authority lease holder identity (defaults to hostname)")
	fs.DurationVar(&cfg.RebuildInterval, "rebuild-interval", cfg.RebuildInterval, "Automation registry rebuild interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the engine runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceVisaged, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:            cfg.Port,
			DBPath:          cfg.DBPath,
			Holder:          cfg.Holder,
			RebuildInterval: cfg.RebuildInterval,
		})
	})
}
