// Package services defines shared utilities consumed by the sync pipeline
// stages and the external service clients.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, run IDs, and stage names for
//     logging and correlation.
//   - Structured error markers plus the Wrap helper that classify failures
//     into fatal (configuration) versus per-entry outcomes.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
