// Package logging assembles structured slog loggers and formatting helpers used
// across clipsync.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so analysis stages tag their log lines with
// the job reference, stage, and request correlation ID. A no-op logger is
// provided for tests and library callers that do not care about output.
package logging
