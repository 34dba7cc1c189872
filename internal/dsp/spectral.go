package dsp

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	spectralFrameSize = 2048
	spectralHop       = 1024
	rolloffFraction   = 0.85
	silentFrameEnergy = 1e-9
	chromaMinHz       = 65.0
	chromaMaxHz       = 4000.0
	chromaRefHz       = 261.63
)

// ErrTooShort is returned when a signal has fewer samples than one frame.
var ErrTooShort = errors.New("signal shorter than one analysis frame")

// SpectralSummary holds whole-track spectral statistics.
type SpectralSummary struct {
	CentroidHz     float64
	RolloffHz      float64
	ChromaVariance float64
}

// Centroid returns the magnitude weighted mean frequency of a frame, or ok
// false for a silent frame.
func Centroid(frame []float64, binHz float64) (float64, bool) {
	total := floats.Sum(frame)
	if total < silentFrameEnergy {
		return 0, false
	}
	weighted := 0.0
	for k, m := range frame {
		weighted += float64(k) * binHz * m
	}
	return weighted / total, true
}

// Rolloff returns the frequency below which fraction of the frame's
// magnitude lies, or ok false for a silent frame.
func Rolloff(frame []float64, binHz, fraction float64) (float64, bool) {
	total := floats.Sum(frame)
	if total < silentFrameEnergy {
		return 0, false
	}
	threshold := fraction * total
	acc := 0.0
	for k, m := range frame {
		acc += m
		if acc >= threshold {
			return float64(k) * binHz, true
		}
	}
	return float64(len(frame)-1) * binHz, true
}

// Chroma folds a frame into 12 pitch classes starting at C and normalizes it
// by its largest class. ok is false when the frame has no tonal energy.
func Chroma(frame []float64, binHz float64) ([12]float64, bool) {
	var out [12]float64
	for k := 1; k < len(frame); k++ {
		freq := float64(k) * binHz
		if freq < chromaMinHz || freq > chromaMaxHz {
			continue
		}
		semitones := 12 * math.Log2(freq/chromaRefHz)
		pc := ((int(math.Round(semitones)) % 12) + 12) % 12
		out[pc] += frame[k]
	}
	peak := floats.Max(out[:])
	if peak < silentFrameEnergy {
		return out, false
	}
	floats.Scale(1/peak, out[:])
	return out, true
}

// Summarize computes mean centroid, mean rolloff, and chroma variance over
// the non-silent frames of the signal. Fully silent input yields zeros.
func Summarize(samples []float64, sampleRate int) (SpectralSummary, error) {
	if sampleRate <= 0 {
		return SpectralSummary{}, errors.New("sample rate must be positive")
	}
	if len(samples) < spectralFrameSize {
		return SpectralSummary{}, ErrTooShort
	}
	spec := STFT(samples, sampleRate, spectralFrameSize, spectralHop)

	var centroids, rolloffs []float64
	var classes [12][]float64
	for _, frame := range spec.Frames {
		if c, ok := Centroid(frame, spec.BinHz); ok {
			centroids = append(centroids, c)
		}
		if r, ok := Rolloff(frame, spec.BinHz, rolloffFraction); ok {
			rolloffs = append(rolloffs, r)
		}
		if chroma, ok := Chroma(frame, spec.BinHz); ok {
			for pc, v := range chroma {
				classes[pc] = append(classes[pc], v)
			}
		}
	}

	summary := SpectralSummary{}
	if len(centroids) > 0 {
		summary.CentroidHz = stat.Mean(centroids, nil)
	}
	if len(rolloffs) > 0 {
		summary.RolloffHz = stat.Mean(rolloffs, nil)
	}
	if len(classes[0]) > 1 {
		variances := make([]float64, 12)
		for pc := range classes {
			variances[pc] = stat.Variance(classes[pc], nil)
		}
		summary.ChromaVariance = stat.Mean(variances, nil)
	}

	for _, v := range []float64{summary.CentroidHz, summary.RolloffHz, summary.ChromaVariance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return SpectralSummary{}, errors.New("spectral summary is not finite")
		}
	}
	return summary, nil
}

// Percentile returns the empirical p-quantile (p in [0, 1]) of values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// MeanStdDev returns the mean and sample standard deviation of values.
func MeanStdDev(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
