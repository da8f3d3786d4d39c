// Package config loads charsheet settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"

	EnvDataDir  = "CHARSHEET_DATA_DIR"
	EnvLogLevel = "CHARSHEET_LOG_LEVEL"
)

// Config is the top-level charsheet configuration.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Storage StorageConfig `yaml:"storage"`
	Backup  BackupConfig  `yaml:"backup"`
	Logging LoggingConfig `yaml:"logging"`
	Grid    GridConfig    `yaml:"grid"`
	MCP     MCPConfig     `yaml:"mcp"`
}

// StorageConfig selects where the sheet snapshot lives.
type StorageConfig struct {
	Backend string `yaml:"backend"` // sqlite | file
	SlotKey string `yaml:"slot_key"`
}

// BackupConfig controls scheduled snapshot copies. An empty schedule
// falls back to the default; "off" disables backups.
type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Keep     int    `yaml:"keep"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug | info | warn | error
	Development bool   `yaml:"development"`
}

type GridConfig struct {
	Cols int `yaml:"cols"`
}

// MCPConfig controls the agent surface. With AutoApprove set, destructive
// tools run without asking the user.
type MCPConfig struct {
	AutoApprove bool `yaml:"auto_approve"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// DefaultPath is $XDG_CONFIG_HOME/charsheet/config.yaml, or the OS
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "charsheet.yaml")
	}
	return filepath.Join(dir, "charsheet", "config.yaml")
}

// Load reads path. A missing file yields the defaults; a malformed one is an
// error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		home, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(home, ".charsheet")
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.SlotKey == "" {
		c.Storage.SlotKey = "rpg-sheet-storage"
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "@every 15m"
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = 20
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Grid.Cols <= 0 {
		c.Grid.Cols = 12
	}
}

// Validate rejects settings no component can honor.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// BackupsEnabled reports whether a backup schedule should be started.
func (c *Config) BackupsEnabled() bool {
	return c.Backup.Schedule != "off"
}

// DBPath is the SQLite database inside the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "charsheet.db")
}

// SlotDir is where the file backend keeps snapshots.
func (c *Config) SlotDir() string {
	return filepath.Join(c.DataDir, "slots")
}
