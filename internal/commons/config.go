package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"waypoint/internal/config"
)

// LoadConfig reads a YAML config file over the defaults, so a file only
// needs the keys it changes.
func LoadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := config.Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}
