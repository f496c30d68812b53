// Package logging assembles structured slog loggers and formatting helpers used
// across dubber.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code can tag log lines with the
// run ID, stage and segment index. A JSON copy of every record is appended to
// the run log under the configured log directory. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
