// Package config loads the engine's runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// Config holds the engine's runtime configuration.
type Config struct {
	DBPath string `json:"db_path"`
	// PolicyPath optionally points at a governance policy YAML file; when
	// empty the compiled-in tables are used.
	PolicyPath string `json:"policy_path"`
	ListenAddr string `json:"listen_addr"`
	QueryLimit int    `json:"query_limit"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9810"
	}
	if c.QueryLimit == 0 {
		c.QueryLimit = 100
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.QueryLimit < 0 || c.QueryLimit > 100 {
		problems = append(problems, "query_limit must be between 1 and 100")
	}

	if len(problems) > 0 {
		return &domain.MaintError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
