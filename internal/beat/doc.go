// Package beat estimates tempo and beat positions from a mono signal and
// derives rhythmic features (downbeat labels, per-span intensity, note
// subdivisions) from the resulting beat grid.
package beat
