// Package config loads the service configuration from YAML with
// ${ENV_VAR} placeholder expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dutyroster/internal/api"
	"dutyroster/internal/google"
	"dutyroster/internal/notify"
	"dutyroster/internal/storage"
)

type Config struct {
	Server api.Config `yaml:"server"`

	Storage struct {
		Backend string `yaml:"backend"` // "sqlite" or "memory"
		Path    string `yaml:"path"`

		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Backup storage.BackupConfig `yaml:"backup"`

	Telegram notify.Config `yaml:"telegram"`

	Sheets google.Config `yaml:"sheets"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// Load reads the config file, expands ${ENV_VAR} placeholders and
// applies defaults. A missing path falls back to configs/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if cfg.Storage.Backend == "sqlite" {
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/dutyroster.db"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q; expected sqlite or memory", c.Storage.Backend)
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled is set")
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required when sheets.enabled is set")
	}
	if c.Sheets.Enabled && c.Sheets.CredentialsFile == "" {
		return fmt.Errorf("sheets.credentials_file is required when sheets.enabled is set")
	}
	return nil
}
