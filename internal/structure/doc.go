// Package structure partitions a track into contiguous, typed, energy
// labeled segments, either from caller supplied breakpoints or from
// loudness and timbre novelty.
package structure
