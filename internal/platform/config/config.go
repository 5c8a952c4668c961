// Package config is the single env-parsing surface for engine commands.
// Command config structs declare `env:"VISAGE_*"` tags and load their
// defaults here before flag overrides are applied.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from its env struct tags.
func ParseEnv(target any) error {
	if target == nil {
		return errors.New("config target is required")
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
