// # internal/core/config/loader.go
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFile = "qwikbridge.toml"
	ExampleFile = "qwikbridge.example.toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries the working-directory config file and falls back to
// the checked-in example, so a fresh clone runs without any setup.
func LoadDefault() (*Config, string, error) {
	for _, candidate := range []string{DefaultFile, ExampleFile} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cfg, err := Load(candidate)
		if err != nil {
			return nil, candidate, err
		}
		return cfg, candidate, nil
	}

	// No file at all still yields a usable config.
	cfg := &Config{}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}
