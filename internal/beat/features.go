package beat

import (
	"math"
	"sort"

	"clipsync/internal/analysis"
	"clipsync/internal/dsp"
)

const (
	densityCeiling  = 3.0 // beats per second mapped to a full density score
	highIntensity   = 0.66
	mediumIntensity = 0.33
)

// Span is a half-open time interval [Start, End).
type Span struct {
	Start float64
	End   float64
}

// LabelBeats alternates downbeat and upbeat labels assuming 4/4 time, with
// even indexes as downbeats.
func LabelBeats(beats []float64) []analysis.BeatLabel {
	labels := make([]analysis.BeatLabel, len(beats))
	for i, b := range beats {
		labels[i] = analysis.BeatLabel{Timestamp: b, Downbeat: i%2 == 0}
	}
	return labels
}

// Intensity classifies each span from equal parts beat density and loudness
// relative to the loudest frame of the track. A span holding no beats is low.
func Intensity(spans []Span, beats []float64, loudness dsp.Envelope) []analysis.Energy {
	out := make([]analysis.Energy, len(spans))
	peak := loudness.Peak()
	for i, span := range spans {
		out[i] = analysis.EnergyLow
		length := span.End - span.Start
		if length <= 0 {
			continue
		}
		count := countInSpan(beats, span)
		if count == 0 {
			continue
		}
		density := math.Min(1, float64(count)/length/densityCeiling)
		relative := 0.0
		if peak > 0 {
			relative = math.Min(1, loudness.Mean(span.Start, span.End)/peak)
		}
		out[i] = classifyIntensity(0.5*density + 0.5*relative)
	}
	return out
}

func classifyIntensity(score float64) analysis.Energy {
	switch {
	case score >= highIntensity:
		return analysis.EnergyHigh
	case score >= mediumIntensity:
		return analysis.EnergyMedium
	default:
		return analysis.EnergyLow
	}
}

func countInSpan(beats []float64, span Span) int {
	lo := sort.SearchFloat64s(beats, span.Start)
	hi := sort.SearchFloat64s(beats, span.End)
	return hi - lo
}

// Subdivisions synthesizes eighth and sixteenth note grids. Interior points
// are spaced evenly between consecutive beats; after the last beat the grid
// continues at the tempo period. Both grids are bounded by duration.
func Subdivisions(beats []float64, bpm, duration float64) (eighths, sixteenths []float64) {
	if len(beats) == 0 {
		return []float64{}, []float64{}
	}
	return subdivide(beats, bpm, duration, 2), subdivide(beats, bpm, duration, 4)
}

func subdivide(beats []float64, bpm, duration float64, parts int) []float64 {
	period := 60 / ClampBPM(bpm)
	grid := make([]float64, 0, len(beats)*parts)
	add := func(t float64) {
		t = roundMillis(t)
		if t < 0 || t > duration {
			return
		}
		if len(grid) > 0 && t <= grid[len(grid)-1] {
			return
		}
		grid = append(grid, t)
	}
	for i, b := range beats {
		next := b + period
		if i+1 < len(beats) {
			next = beats[i+1]
		}
		step := (next - b) / float64(parts)
		for k := 0; k < parts; k++ {
			add(b + float64(k)*step)
		}
	}
	last := beats[len(beats)-1]
	step := period / float64(parts)
	for k := parts; ; k++ {
		t := last + float64(k)*step
		if t > duration {
			break
		}
		add(t)
	}
	return grid
}
