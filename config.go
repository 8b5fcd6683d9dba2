package boardlog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backend selectors for Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	Backend    string `yaml:"backend"`   // "file" or "sqlite"
	DataPath   string `yaml:"data_path"` // JSON file path, or SQLite DSN

	LogFile       string `yaml:"log_file"` // empty logs to stderr
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		Backend:       BackendFile,
		DataPath:      "data/communities.json",
		LogMaxSizeMB:  50,
		LogMaxAgeDays: 14,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path must not be empty")
	}
	return nil
}

// OpenStore opens the storage backend selected by the configuration.
func (c Config) OpenStore() (Store, error) {
	switch c.Backend {
	case BackendSQLite:
		return OpenSQLiteStore(c.DataPath)
	default:
		return OpenFileStore(c.DataPath)
	}
}
