// Package analysiscache persists finished analyses keyed by a content hash of
// the input audio.
//
// Keys take the form <namespace>:<schema-version>:<sha256-hex>, so bumping the
// configured schema version invalidates every previous entry without touching
// storage. Three backends implement Backend: sqlite (default, WAL journal with
// busy retry), file (one JSON document per key guarded by a cross-process
// flock), and memory for tests and ephemeral runs.
//
// Cache I/O never fails an analysis. Load reports a miss for any backend or
// decode problem and Store reports false; both log the cause.
package analysiscache
