// Package config loads, normalizes, and validates ert configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the record engine and CLI need: workspace identity, the storage backend
// selection with its per-backend settings, transmission concurrency, and
// logging options.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
