// Package config loads subsweep settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"subsweep/internal/scan"
)

const EnvPrefix = "SUBSWEEP"

type Config struct {
	// Dir holds client_secret.json, the token cache, the database and logs.
	Dir    string     `mapstructure:"-"`
	DBPath string     `mapstructure:"db_path"`
	Scan   ScanConfig `mapstructure:"scan"`
	Auth   AuthConfig `mapstructure:"auth"`
	Log    LogConfig  `mapstructure:"log"`
}

type ScanConfig struct {
	Query      string `mapstructure:"query"`
	MaxResults int64  `mapstructure:"max_results"`
}

type AuthConfig struct {
	// TokenStore is "file" or "keyring".
	TokenStore string `mapstructure:"token_store"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultDir returns ~/.config/subsweep, or the working directory when the
// home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "subsweep")
}

// Load reads dir/config.yaml. A missing file yields the defaults; SUBSWEEP_*
// environment variables override both (SUBSWEEP_SCAN_MAX_RESULTS, ...).
// Relative paths are resolved against dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", "subsweep.db")
	v.SetDefault("scan.query", scan.DefaultQuery)
	v.SetDefault("scan.max_results", scan.DefaultMaxResults)
	v.SetDefault("auth.token_store", "file")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "subsweep.log")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Dir = dir
	cfg.DBPath = resolve(dir, cfg.DBPath)
	cfg.Log.File = resolve(dir, cfg.Log.File)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Scan.MaxResults <= 0 {
		return fmt.Errorf("scan.max_results must be positive, got %d", c.Scan.MaxResults)
	}
	if strings.TrimSpace(c.Scan.Query) == "" {
		return errors.New("scan.query must not be empty")
	}
	switch c.Auth.TokenStore {
	case "file", "keyring":
	default:
		return fmt.Errorf("auth.token_store must be file or keyring, got %q", c.Auth.TokenStore)
	}
	return nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
