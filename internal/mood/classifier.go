package mood

import (
	"math"

	"clipsync/internal/analysis"
)

const (
	secondaryThreshold = 0.3
	minConfidence      = 0.3
	fallbackConfidence = 0.5
)

// Features are the whole-track inputs to classification.
type Features struct {
	Tempo          float64
	Energy         float64 // mean segment energy on the 0.3/0.6/0.9 scale
	CentroidHz     float64
	RolloffHz      float64
	ChromaVariance float64
}

// Result is a classification. Fallback is set when the fixed default was
// returned instead of a scored mood.
type Result struct {
	Mood     analysis.Mood
	Scores   map[analysis.MoodCategory]float64
	Fallback bool
}

// rule gates a category on its precondition and scores it in [0, 1].
type rule struct {
	category     analysis.MoodCategory
	precondition func(Features) bool
	score        func(Features) float64
}

// Table order breaks score ties.
var rules = []rule{
	{
		category: analysis.MoodEnergetic,
		precondition: func(f Features) bool {
			return f.Tempo > 120 && f.Energy > 0.6 && f.CentroidHz > 2000
		},
		score: func(f Features) float64 {
			return 0.4*ramp(f.Tempo, 120, 180) + 0.35*ramp(f.Energy, 0.6, 0.9) + 0.25*ramp(f.CentroidHz, 2000, 4000)
		},
	},
	{
		category: analysis.MoodCalm,
		precondition: func(f Features) bool {
			return f.Tempo < 90 && f.Energy < 0.5 && f.CentroidHz < 1500
		},
		score: func(f Features) float64 {
			return 0.4*ramp(90-f.Tempo, 0, 30) + 0.3*ramp(0.5-f.Energy, 0, 0.3) + 0.3*ramp(1500-f.CentroidHz, 0, 1000)
		},
	},
	{
		category: analysis.MoodDark,
		precondition: func(f Features) bool {
			return f.CentroidHz < 1800 && f.RolloffHz < 4000 && f.ChromaVariance > 0.08
		},
		score: func(f Features) float64 {
			return 0.35*ramp(1800-f.CentroidHz, 0, 1000) + 0.3*ramp(4000-f.RolloffHz, 0, 2000) + 0.35*ramp(f.ChromaVariance, 0.08, 0.2)
		},
	},
	{
		category: analysis.MoodBright,
		precondition: func(f Features) bool {
			return f.CentroidHz > 2500 && f.RolloffHz > 4500 && f.ChromaVariance < 0.06
		},
		score: func(f Features) float64 {
			return 0.35*ramp(f.CentroidHz, 2500, 4000) + 0.3*ramp(f.RolloffHz, 4500, 8000) + 0.35*ramp(0.06-f.ChromaVariance, 0, 0.06)
		},
	},
}

// Categories lists every mood in table order.
func Categories() []analysis.MoodCategory {
	out := make([]analysis.MoodCategory, len(rules))
	for i, r := range rules {
		out[i] = r.category
	}
	return out
}

// Score evaluates every rule; failed preconditions score zero.
func Score(f Features) map[analysis.MoodCategory]float64 {
	scores := make(map[analysis.MoodCategory]float64, len(rules))
	for _, r := range rules {
		if !r.precondition(f) {
			scores[r.category] = 0
			continue
		}
		scores[r.category] = clamp01(r.score(f))
	}
	return scores
}

// Classify picks the primary and optional secondary mood. It never fails:
// malformed input or a weak best score yields the fallback mood.
func Classify(f Features) Result {
	if !finite(f.Tempo, f.Energy, f.CentroidHz, f.RolloffHz, f.ChromaVariance) || f.Tempo <= 0 {
		return fallback(nil)
	}
	scores := Score(f)

	primary, secondary := -1, -1
	for i, r := range rules {
		s := scores[r.category]
		switch {
		case primary < 0 || s > scores[rules[primary].category]:
			secondary = primary
			primary = i
		case secondary < 0 || s > scores[rules[secondary].category]:
			secondary = i
		}
	}

	confidence := scores[rules[primary].category]
	if confidence < minConfidence {
		return fallback(scores)
	}
	mood := analysis.Mood{
		Primary:     rules[primary].category,
		EnergyLevel: EnergyLevel(f.Tempo, f.Energy),
		Confidence:  confidence,
	}
	if secondary >= 0 && scores[rules[secondary].category] > secondaryThreshold {
		mood.Secondary = rules[secondary].category
	}
	return Result{Mood: mood, Scores: scores}
}

// EnergyLevel derives the energy label from tempo and energy alone.
func EnergyLevel(tempo, energy float64) analysis.Energy {
	switch {
	case tempo > 120 && energy > 0.6:
		return analysis.EnergyHigh
	case tempo < 90:
		return analysis.EnergyLow
	default:
		return analysis.EnergyMedium
	}
}

// MeanSegmentEnergy maps segment energy labels onto the numeric scale and
// averages them, weighting each segment by its length.
func MeanSegmentEnergy(segments []analysis.Segment) float64 {
	total, weighted := 0.0, 0.0
	for _, s := range segments {
		length := s.End - s.Start
		if length <= 0 {
			continue
		}
		total += length
		weighted += length * s.Energy.Numeric()
	}
	if total == 0 {
		return analysis.EnergyMedium.Numeric()
	}
	return weighted / total
}

// Fallback is the mood returned when classification is not trustworthy.
func Fallback() analysis.Mood {
	return analysis.Mood{
		Primary:     analysis.MoodEnergetic,
		EnergyLevel: analysis.EnergyMedium,
		Confidence:  fallbackConfidence,
	}
}

func fallback(scores map[analysis.MoodCategory]float64) Result {
	return Result{Mood: Fallback(), Scores: scores, Fallback: true}
}

// ramp maps v linearly from [lo, hi] onto [0, 1].
func ramp(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
