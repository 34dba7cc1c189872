// Package analysis defines AudioAnalysis, the single result the engine
// produces for a track, together with the enumerations shared by every
// analysis stage and a structural validator for the result.
package analysis
