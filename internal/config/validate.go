package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTransmit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkspace() error {
	if strings.TrimSpace(c.Workspace.Name) == "" {
		return errors.New("workspace.name must be set")
	}
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return errors.New("workspace.root must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendFS:
		if strings.TrimSpace(c.Storage.FSRoot) == "" {
			return errors.New("storage.fs_root must be set for the fs backend")
		}
	case BackendS3:
		if strings.TrimSpace(c.Storage.S3.Endpoint) == "" {
			return errors.New("storage.s3.endpoint must be set for the s3 backend")
		}
		if strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return errors.New("storage.s3.bucket must be set for the s3 backend")
		}
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			return errors.New("storage.s3 credentials must be set for the s3 backend")
		}
		if c.Storage.S3.URLExpirySeconds <= 0 {
			return errors.New("storage.s3.url_expiry_seconds must be positive")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.DatabasePath) == "" {
			return errors.New("storage.database_path must be set for the sqlite backend")
		}
	case BackendMemory:
		// Nothing to validate; the memory backend is self-contained.
	default:
		return fmt.Errorf("storage.backend %q is not one of fs, s3, sqlite, memory", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateTransmit() error {
	if c.Transmit.MaxConcurrency <= 0 {
		return errors.New("transmit.max_concurrency must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
