// Package parser sequences the analysis stages for one audio buffer and
// assembles the resulting AudioAnalysis.
//
// The orchestrator owns fallback bookkeeping: every stage that substitutes a
// deterministic default appends its stage name to metadata.fallbacks_used and
// logs a warning. Only caller contract violations (empty, oversized, or
// undecodable input) are returned as errors; they wrap services.ErrValidation.
//
// Pool fans a batch of requests out over a bounded set of workers and keeps
// results in input order.
package parser
