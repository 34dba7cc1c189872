// Package preflight provides readiness checks for the directories and
// external tools clipsync depends on.
//
// The CLI "clipsync doctor" command runs RunAll and renders each Result.
// Checks are gated by configuration: the cache directory is only checked
// when a persistent cache backend is enabled, and ffmpeg only when
// non-WAV decoding is turned on.
package preflight
