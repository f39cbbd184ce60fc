// Package config loads CLI configuration for rostercore.
//
// Precedence (highest to lowest): environment variables > config file >
// defaults. The config file is rostercore.yaml (or .yml) discovered by
// walking up from the working directory, unless an explicit path is given.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all CLI configuration options.
type Config struct {
	StorageDriver string `koanf:"storage_driver"` // memory|sqlite|postgres
	SQLitePath    string `koanf:"sqlite_path"`
	PostgresDSN   string `koanf:"postgres_dsn"`
	BlobDriver    string `koanf:"blob_driver"` // fs|s3|memory
	BlobFSRoot    string `koanf:"blob_fs_root"`
	Output        string `koanf:"output"` // table|json|csv
	Verbose       bool   `koanf:"verbose"`
}

const (
	DefaultStorageDriver = "sqlite"
	DefaultSQLitePath    = "rostercore.db"
	DefaultOutput        = "table"
)

// findConfigFile returns the config file to use. An explicit path wins;
// otherwise rostercore.yaml then rostercore.yml, searched from the working
// directory upward so subdirectories of a project share one config.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range []string{"rostercore.yaml", "rostercore.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads configuration from defaults, the config file, and ROSTERCORE_
// environment variables.
func Load(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"storage_driver": DefaultStorageDriver,
		"sqlite_path":    DefaultSQLitePath,
		"output":         DefaultOutput,
		"verbose":        false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s not found", cfgFile)
		}
	}
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// ROSTERCORE_STORAGE_DRIVER -> storage_driver
	if err := k.Load(env.Provider("ROSTERCORE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ROSTERCORE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
