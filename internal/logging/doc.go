// Package logging builds the slog loggers used across strmsync: a pretty
// console handler for interactive use, a JSON handler for machine ingestion,
// and size-rotated file output for the daemon. Context helpers stamp task,
// run, and stage identifiers onto log records.
package logging
