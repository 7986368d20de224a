package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Workspace identifies the experiment workspace records belong to.
type Workspace struct {
	Name string `toml:"name"`
	Root string `toml:"root"`
}

// S3 contains settings for the object-store backend.
type S3 struct {
	Endpoint         string `toml:"endpoint"`
	Bucket           string `toml:"bucket"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	Region           string `toml:"region"`
	UseSSL           bool   `toml:"use_ssl"`
	URLExpirySeconds int    `toml:"url_expiry_seconds"`
}

// Storage selects and configures the record storage backend.
type Storage struct {
	Backend      string `toml:"backend"`
	FSRoot       string `toml:"fs_root"`
	DatabasePath string `toml:"database_path"`
	S3           S3     `toml:"s3"`
}

// Transmit configures collection transmission behavior.
type Transmit struct {
	MaxConcurrency int `toml:"max_concurrency"`
}

// Logging contains logger construction settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Config is the root configuration object threaded through the engine.
type Config struct {
	Workspace Workspace `toml:"workspace"`
	Storage   Storage   `toml:"storage"`
	Transmit  Transmit  `toml:"transmit"`
	Logging   Logging   `toml:"logging"`
}

// Backend kinds accepted by storage.backend.
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Load reads configuration from path, falling back to defaults when path is
// empty or absent, then normalizes and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err == nil {
			path = defaultPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %q: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Defaults stand when no config file exists.
		default:
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ert", "config.toml"), nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Workspace.Root, c.Logging.Dir}
	if c.Storage.Backend == BackendFS {
		dirs = append(dirs, c.Storage.FSRoot)
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.DatabasePath != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.DatabasePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Workspace.Root, err = ExpandPath(c.Workspace.Root); err != nil {
		return fmt.Errorf("workspace.root: %w", err)
	}
	if c.Storage.FSRoot, err = ExpandPath(c.Storage.FSRoot); err != nil {
		return fmt.Errorf("storage.fs_root: %w", err)
	}
	if c.Storage.DatabasePath, err = ExpandPath(c.Storage.DatabasePath); err != nil {
		return fmt.Errorf("storage.database_path: %w", err)
	}
	if c.Logging.Dir, err = ExpandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Transmit.MaxConcurrency <= 0 {
		c.Transmit.MaxConcurrency = defaultMaxConcurrency
	}

	if c.Storage.Backend == BackendSQLite && strings.TrimSpace(c.Storage.DatabasePath) == "" {
		c.Storage.DatabasePath = filepath.Join(c.Workspace.Root, "records.db")
	}
	return nil
}

// ExpandPath expands a leading tilde and environment variables in a path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Clean(path), nil
}
