// Package services defines shared utilities consumed by the analysis stages
// and the orchestrator.
//
// Key responsibilities:
//   - Context helpers that stamp job references, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that separate
//     caller-visible contract violations from internal degradation.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the engine.
package services
