package app

import (
	"fmt"

	"github.com/abiibaabi/grr/internal/infra/confloader"
	"github.com/abiibaabi/grr/internal/server/config"
)

// LoadConfig layers the YAML file at path (optional), GRR_ environment
// variables and overrides over the defaults, then verifies the result.
func LoadConfig(path string, overrides map[string]any) (*config.Config, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
