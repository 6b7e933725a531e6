// Package config loads habitchain settings from the YAML config file with
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/constants"
)

// Config holds user settings. Database is a SQLite path, a .json file path or
// a PostgreSQL connection string without a password.
type Config struct {
	Database        string `yaml:"database" env:"HABITCHAIN_DB"`
	Timezone        string `yaml:"timezone" env:"HABITCHAIN_TIMEZONE"`
	Debug           bool   `yaml:"debug" env:"HABITCHAIN_DEBUG"`
	BackupRetention int    `yaml:"backup_retention" env:"HABITCHAIN_BACKUP_RETENTION"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Database:        constants.DefaultDBPath,
		Timezone:        constants.DefaultTimezone,
		BackupRetention: constants.MaxBackups,
	}
}

// Load reads path (a missing file is fine), applies HABITCHAIN_* environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	expanded, err := ExpandPath(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the timezone and retention settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database must not be empty")
	}
	if !calendar.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q: use an IANA name such as America/New_York or Local", c.Timezone)
	}
	if c.BackupRetention < 1 {
		return fmt.Errorf("backup_retention must be at least 1, got %d", c.BackupRetention)
	}
	return nil
}

// Calendar builds the day-bucket calendar for the configured timezone.
func (c Config) Calendar() (calendar.Calendar, error) {
	return calendar.FromTimezone(c.Timezone)
}

// Save writes the config as YAML, creating parent directories.
func (c Config) Save(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsPostgres reports whether a database setting is a PostgreSQL connection string.
func IsPostgres(database string) bool {
	return strings.HasPrefix(database, "postgres://") ||
		strings.HasPrefix(database, "postgresql://") ||
		strings.Contains(database, "host=") ||
		strings.Contains(database, "dbname=")
}

// IsJSON reports whether a database setting names a JSON ledger file.
func IsJSON(database string) bool {
	return strings.EqualFold(filepath.Ext(database), ".json")
}
