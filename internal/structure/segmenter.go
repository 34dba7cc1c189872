package structure

import (
	"math"
	"sort"

	"clipsync/internal/analysis"
	"clipsync/internal/dsp"
)

const (
	frameSize = 2048
	hop       = 1024

	noveltyWindow    = 1.0 // seconds
	mergeDistance    = 1.0
	minPeakSpacing   = 8.0
	secondsPerPeak   = 12.0
	peakStdDevFactor = 0.5
	minNovelty       = 0.1 // relative change below which windows are treated as steady
	beatSnapRadius   = 0.5

	introFraction = 0.15
	outroFraction = 0.85

	breakpointConfidence = 0.9
	singleConfidence     = 0.5
)

// Input is everything the segmenter needs for one track.
type Input struct {
	Samples     []float64
	SampleRate  int
	Duration    float64
	Beats       []float64
	Breakpoints []float64
}

// Result is the segmentation of a track.
type Result struct {
	Segments   []analysis.Segment
	Confidence float64
	// Inferred is false when caller breakpoints defined the boundaries.
	Inferred bool
}

// Segment partitions [0, Duration] into contiguous segments.
func Segment(in Input) Result {
	if !(in.Duration > 0) {
		return Result{
			Segments:   []analysis.Segment{{Type: analysis.SegmentVerse, Start: 0, End: math.Max(0, in.Duration), Energy: analysis.EnergyMedium}},
			Confidence: singleConfidence,
			Inferred:   true,
		}
	}

	rms := dsp.NewRMSEnvelope(in.Samples, in.SampleRate, frameSize, hop)

	var boundaries []float64
	result := Result{}
	if cleaned := SanitizeBreakpoints(in.Breakpoints, in.Duration); len(cleaned) > 0 {
		boundaries = cleaned
		result.Confidence = breakpointConfidence
	} else {
		var strength float64
		boundaries, strength = inferBoundaries(in, rms)
		result.Inferred = true
		result.Confidence = singleConfidence
		if len(boundaries) > 0 {
			result.Confidence = math.Max(singleConfidence, math.Min(1, strength))
		}
	}

	result.Segments = buildSegments(boundaries, in.Duration, rms)
	return result
}

// SanitizeBreakpoints drops non-finite values and values outside
// (0, duration), sorts the rest, and merges points closer than one second,
// keeping the earlier point.
func SanitizeBreakpoints(points []float64, duration float64) []float64 {
	cleaned := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 || p >= duration {
			continue
		}
		cleaned = append(cleaned, p)
	}
	sort.Float64s(cleaned)
	merged := cleaned[:0]
	for _, p := range cleaned {
		if len(merged) > 0 && p-merged[len(merged)-1] < mergeDistance {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func inferBoundaries(in Input, rms dsp.Envelope) ([]float64, float64) {
	novelty := noveltyCurve(in, rms)
	if len(novelty) < 3 {
		return nil, 0
	}
	mean, sd := dsp.MeanStdDev(novelty)
	threshold := mean + peakStdDevFactor*sd
	peakMax := maxOf(novelty)
	if peakMax < minNovelty {
		return nil, 0
	}

	type peak struct {
		index int
		value float64
	}
	var candidates []peak
	for i := 1; i < len(novelty)-1; i++ {
		v := novelty[i]
		if v > threshold && v >= minNovelty && v >= novelty[i-1] && v >= novelty[i+1] {
			candidates = append(candidates, peak{i, v})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].value > candidates[b].value })

	limit := int(in.Duration / secondsPerPeak)
	var accepted []peak
	for _, c := range candidates {
		if len(accepted) >= limit {
			break
		}
		at := float64(c.index) * noveltyWindow
		ok := true
		for _, a := range accepted {
			if math.Abs(at-float64(a.index)*noveltyWindow) < minPeakSpacing {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}
	if len(accepted) == 0 {
		return nil, 0
	}

	points := make([]float64, 0, len(accepted))
	strength := 0.0
	for _, a := range accepted {
		points = append(points, snapToBeat(float64(a.index)*noveltyWindow, in.Beats))
		strength += a.value / peakMax
	}
	return SanitizeBreakpoints(points, in.Duration), strength / float64(len(accepted))
}

// noveltyCurve scores the change in loudness and spectral centroid between
// consecutive one second windows; entry i is the change entering window i.
func noveltyCurve(in Input, rms dsp.Envelope) []float64 {
	windows := int(in.Duration / noveltyWindow)
	if windows < 2 || in.SampleRate <= 0 {
		return nil
	}
	spec := dsp.STFT(in.Samples, in.SampleRate, frameSize, hop)
	centroids := make([]float64, windows)
	counts := make([]int, windows)
	for i, frame := range spec.Frames {
		w := int(rms.FrameCenter(i) / noveltyWindow)
		if w >= windows {
			break
		}
		if c, ok := dsp.Centroid(frame, spec.BinHz); ok {
			centroids[w] += c
			counts[w]++
		}
	}
	loud := make([]float64, windows)
	for w := range loud {
		loud[w] = rms.Mean(float64(w)*noveltyWindow, float64(w+1)*noveltyWindow)
		if counts[w] > 0 {
			centroids[w] /= float64(counts[w])
		}
	}

	loudMax := maxOf(loud)
	centMax := maxOf(centroids)
	novelty := make([]float64, windows)
	for w := 1; w < windows; w++ {
		v := 0.0
		if loudMax > 0 {
			v += math.Abs(loud[w]-loud[w-1]) / loudMax
		}
		if centMax > 0 {
			v += math.Abs(centroids[w]-centroids[w-1]) / centMax
		}
		novelty[w] = v
	}
	return novelty
}

func maxOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	return peak
}

func snapToBeat(t float64, beats []float64) float64 {
	best, bestDist := t, beatSnapRadius
	idx := sort.SearchFloat64s(beats, t)
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(beats) {
			continue
		}
		if d := math.Abs(beats[i] - t); d <= bestDist {
			best, bestDist = beats[i], d
		}
	}
	return best
}

func buildSegments(boundaries []float64, duration float64, rms dsp.Envelope) []analysis.Segment {
	edges := make([]float64, 0, len(boundaries)+2)
	edges = append(edges, 0)
	edges = append(edges, boundaries...)
	edges = append(edges, duration)

	p33 := dsp.Percentile(rms.Values, 0.33)
	p66 := dsp.Percentile(rms.Values, 0.66)

	segments := make([]analysis.Segment, 0, len(edges)-1)
	for i := 0; i+1 < len(edges); i++ {
		start, end := edges[i], edges[i+1]
		segments = append(segments, analysis.Segment{
			Start:  start,
			End:    end,
			Energy: energyLevel(rms.Mean(start, end), p33, p66),
		})
	}
	assignTypes(segments, duration)
	return segments
}

func energyLevel(mean, p33, p66 float64) analysis.Energy {
	switch {
	case p66 > p33 && mean >= p66:
		return analysis.EnergyHigh
	case p66 > p33 && mean < p33:
		return analysis.EnergyLow
	default:
		return analysis.EnergyMedium
	}
}

func assignTypes(segments []analysis.Segment, duration float64) {
	if len(segments) == 1 {
		segments[0].Type = analysis.SegmentVerse
		return
	}
	last := len(segments) - 1
	for i := range segments {
		seg := &segments[i]
		switch {
		case i == 0 && seg.Start < introFraction*duration && seg.Energy != analysis.EnergyHigh:
			seg.Type = analysis.SegmentIntro
		case i == last && seg.Start > outroFraction*duration && seg.Energy != analysis.EnergyHigh:
			seg.Type = analysis.SegmentOutro
		case seg.Energy == analysis.EnergyHigh:
			seg.Type = analysis.SegmentChorus
		case seg.Energy == analysis.EnergyLow && i != 0 && i != last:
			seg.Type = analysis.SegmentBridge
		default:
			seg.Type = analysis.SegmentVerse
		}
	}
}
