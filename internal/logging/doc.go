// Package logging assembles structured slog loggers and formatting helpers used
// across r2c.
//
// A run logs to two places at once: the terminal (console or JSON format) and
// the append-only log file, which always receives one timestamp-prefixed
// line per event. Context helpers tag lines with the run id, CRIS record id
// and workflow stage, and the package provides a no-op logger for tests.
package logging
