// Package logging assembles structured slog loggers and formatting helpers used
// across murmur.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with run IDs, stage names and chunk indices. Per-run JSON logs are opened
// with OpenRunLog and mirrored alongside the console via TeeLogger.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the pipeline.
package logging
