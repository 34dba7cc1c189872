// Package clips partitions a track into contiguous clip intervals of bounded
// length, cutting on structural boundaries and beats where possible.
//
// The generator walks forward greedily but only ever picks an end inside a
// window that keeps the rest of the track partitionable, so the final clip
// always ends exactly at the track duration.
package clips
