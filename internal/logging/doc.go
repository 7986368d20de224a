// Package logging constructs the slog loggers used across the record
// engine and provides typed attribute helpers so call sites stay terse.
package logging
