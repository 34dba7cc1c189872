package beat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"clipsync/internal/analysis"
	"clipsync/internal/dsp"
)

const (
	onsetFrameSize = 1024
	onsetHop       = 512

	minTrackSeconds = 2.0
	silenceRMS      = 1e-4

	fallbackBPM        = 120.0
	fallbackPeriod     = 0.5
	fallbackConfidence = 0.5

	priorCenterBPM = 120.0
	priorOctaves   = 1.0
	refineFraction = 0.10

	// smoothSigma is the gaussian width, in onset frames, applied before
	// autocorrelation so a period that falls between two integer lags still
	// scores at full strength on both.
	smoothSigma = 1.0
	// halfLagRatio is how strong the autocorrelation at half the chosen period
	// must be, relative to the chosen period, for the faster tempo to win.
	halfLagRatio = 0.5
)

// Result is the outcome of tracking one signal.
type Result struct {
	BPM        float64
	Beats      []float64
	Confidence float64
	// Fallback is set when the deterministic default grid was used; Reason
	// says why.
	Fallback bool
	Reason   string
}

// Track estimates tempo and beat timestamps. It never fails: short, silent,
// or unanalyzable input yields the fallback grid.
func Track(samples []float64, sampleRate int) Result {
	duration := 0.0
	if sampleRate > 0 {
		duration = float64(len(samples)) / float64(sampleRate)
	}
	if sampleRate <= 0 {
		return Fallback(duration, "invalid sample rate")
	}
	if duration < minTrackSeconds {
		return Fallback(duration, "track shorter than 2s")
	}
	rms := dsp.FrameRMS(samples, onsetFrameSize, onsetHop)
	if len(rms) == 0 || (dsp.Envelope{Values: rms}).Peak() < silenceRMS {
		return Fallback(duration, "silent input")
	}

	result, err := estimate(samples, sampleRate, duration)
	if err != nil {
		return Fallback(duration, err.Error())
	}
	return result
}

// Fallback returns the deterministic 120 BPM grid with 0.5s spacing over
// duration, always including a beat at 0.
func Fallback(duration float64, reason string) Result {
	if math.IsNaN(duration) || duration < 0 {
		duration = 0
	}
	beats := []float64{0}
	for i := 1; ; i++ {
		t := roundMillis(float64(i) * fallbackPeriod)
		if t > duration {
			break
		}
		beats = append(beats, t)
	}
	return Result{
		BPM:        fallbackBPM,
		Beats:      beats,
		Confidence: fallbackConfidence,
		Fallback:   true,
		Reason:     reason,
	}
}

func estimate(samples []float64, sampleRate int, duration float64) (Result, error) {
	spec := dsp.STFT(samples, sampleRate, onsetFrameSize, onsetHop)
	env := dsp.Envelope{
		Values:     dsp.SpectralFlux(spec),
		FrameSize:  onsetFrameSize,
		Hop:        onsetHop,
		SampleRate: sampleRate,
	}
	n := len(env.Values)
	framesPerSecond := float64(sampleRate) / float64(onsetHop)

	minLag := int(math.Floor(60 * framesPerSecond / analysis.MaxBPM))
	maxLag := int(math.Ceil(60 * framesPerSecond / analysis.MinBPM))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > n/2 {
		maxLag = n / 2
	}
	if maxLag <= minLag {
		return Result{}, errors.New("onset envelope too short for tempo range")
	}

	centered := make([]float64, n)
	mean := stat.Mean(env.Values, nil)
	for i, v := range env.Values {
		centered[i] = v - mean
	}
	smoothed := smooth(centered, smoothSigma)
	zero := autocorrelation(smoothed, 0)
	if !(zero > 0) {
		return Result{}, errors.New("onset envelope has no variation")
	}

	acf := make([]float64, maxLag+2)
	for lag := 1; lag <= maxLag+1 && lag < n; lag++ {
		acf[lag] = autocorrelation(smoothed, lag)
	}

	bestLag, bestScore := minLag, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		bpm := 60 * framesPerSecond / float64(lag)
		prior := math.Exp(-0.5 * math.Pow(math.Log2(bpm/priorCenterBPM)/priorOctaves, 2))
		if score := acf[lag] * prior; score > bestScore {
			bestScore, bestLag = score, lag
		}
	}
	if math.IsNaN(bestScore) || math.IsInf(bestScore, 0) {
		return Result{}, errors.New("tempo score is not finite")
	}

	period := float64(bestLag) + parabolicOffset(acf[bestLag-1], acf[bestLag], acf[bestLag+1])
	period = preferFasterOctave(acf, period, framesPerSecond)
	confidence := clamp01(interpolate(acf, period) / zero)

	frames := trackFrames(env.Values, period)
	beats := make([]float64, 0, len(frames)+8)
	for _, f := range frames {
		beats = append(beats, env.FrameCenter(f))
	}

	bpm := 60 * framesPerSecond / period
	if len(beats) >= 4 {
		idx := make([]float64, len(beats))
		for i := range idx {
			idx[i] = float64(i)
		}
		_, slope := stat.LinearRegression(idx, beats, nil, false)
		if slope > 0 {
			bpm = 60 / slope
		}
	}
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return Result{}, fmt.Errorf("tempo estimate %v is not usable", bpm)
	}
	bpm = ClampBPM(bpm)

	// Frames stop one window short of the end; continue the grid to duration.
	step := 60 / bpm
	if len(beats) > 0 {
		for t := beats[len(beats)-1] + step; t <= duration; t += step {
			beats = append(beats, t)
		}
	}

	beats = normalizeBeats(beats, duration)
	if len(beats) == 0 {
		return Result{}, errors.New("no beats found")
	}
	return Result{
		BPM:        math.Round(bpm*100) / 100,
		Beats:      beats,
		Confidence: confidence,
	}, nil
}

// preferFasterOctave halves period while the autocorrelation at the half
// period stays within halfLagRatio of the current one and the faster tempo is
// still in range. A pulse train correlates at every multiple of its period, so
// the slower octave otherwise wins whenever the prior tips it.
func preferFasterOctave(acf []float64, period, framesPerSecond float64) float64 {
	for {
		half := period / 2
		if half < 1 || 60*framesPerSecond/half > analysis.MaxBPM {
			return period
		}
		current := interpolate(acf, period)
		if current <= 0 || interpolate(acf, half) < halfLagRatio*current {
			return period
		}
		period = half
	}
}

// interpolate reads acf at a fractional lag.
func interpolate(acf []float64, lag float64) float64 {
	if lag < 0 || len(acf) == 0 {
		return 0
	}
	lo := int(math.Floor(lag))
	if lo >= len(acf)-1 {
		return acf[len(acf)-1]
	}
	frac := lag - float64(lo)
	return acf[lo]*(1-frac) + acf[lo+1]*frac
}

// smooth convolves x with a normalized gaussian of the given width in samples.
func smooth(x []float64, sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	total := 0.0
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * d * d / (sigma * sigma))
		total += kernel[i]
	}
	out := make([]float64, len(x))
	for i := range x {
		sum := 0.0
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(x) {
				continue
			}
			sum += w * x[j]
		}
		out[i] = sum / total
	}
	return out
}

// trackFrames picks the phase with the most onset energy on the period grid
// and walks forward, snapping each predicted beat to the strongest onset
// within refineFraction of a period.
func trackFrames(env []float64, period float64) []int {
	n := len(env)
	lag := int(math.Round(period))
	if lag < 1 || n == 0 {
		return nil
	}

	bestPhase, bestEnergy := 0, -1.0
	for phase := 0; phase < lag && phase < n; phase++ {
		energy := 0.0
		for k := 0; ; k++ {
			idx := int(math.Round(float64(phase) + float64(k)*period))
			if idx >= n {
				break
			}
			energy += env[idx]
		}
		if energy > bestEnergy {
			bestEnergy, bestPhase = energy, phase
		}
	}

	radius := int(math.Max(1, math.Round(refineFraction*period)))
	frames := []int{refine(env, bestPhase, radius)}
	for {
		predicted := int(math.Round(float64(frames[len(frames)-1]) + period))
		if predicted >= n {
			break
		}
		next := refine(env, predicted, radius)
		if next <= frames[len(frames)-1] {
			next = predicted
		}
		frames = append(frames, next)
	}
	return frames
}

func refine(env []float64, center, radius int) int {
	best := center
	for i := center - radius; i <= center+radius; i++ {
		if i < 0 || i >= len(env) {
			continue
		}
		if env[i] > env[best] {
			best = i
		}
	}
	return best
}

func autocorrelation(x []float64, lag int) float64 {
	n := len(x) - lag
	if n <= 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += x[i] * x[i+lag]
	}
	return sum / float64(n)
}

// parabolicOffset returns the sub-sample peak offset in [-0.5, 0.5].
func parabolicOffset(a, b, c float64) float64 {
	denom := a - 2*b + c
	if denom >= 0 {
		return 0
	}
	offset := 0.5 * (a - c) / denom
	return math.Max(-0.5, math.Min(0.5, offset))
}

// ClampBPM bounds a tempo to the range of real music.
func ClampBPM(bpm float64) float64 {
	return math.Max(analysis.MinBPM, math.Min(analysis.MaxBPM, bpm))
}

// normalizeBeats rounds to milliseconds, drops anything outside
// [0, duration], and removes duplicates created by rounding.
func normalizeBeats(beats []float64, duration float64) []float64 {
	out := make([]float64, 0, len(beats))
	for _, b := range beats {
		if math.IsNaN(b) {
			continue
		}
		t := roundMillis(b)
		if t < 0 || t > duration {
			continue
		}
		if len(out) > 0 && t <= out[len(out)-1] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
