package clips

import (
	"math"
	"sort"

	"clipsync/internal/analysis"
	"clipsync/internal/structure"
)

const epsilon = 1e-9

// Options bounds clip lengths. MaxClips of zero disables the ceiling.
type Options struct {
	MinSeconds    float64
	MaxSeconds    float64
	TargetSeconds float64
	MaxClips      int
}

// DefaultOptions returns the standard 3-7s bounds with a 5s target.
func DefaultOptions() Options {
	return Options{
		MinSeconds:    analysis.MinClipSeconds,
		MaxSeconds:    analysis.MaxClipSeconds,
		TargetSeconds: 5,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinSeconds <= 0 {
		o.MinSeconds = d.MinSeconds
	}
	if o.MaxSeconds < o.MinSeconds {
		o.MaxSeconds = math.Max(d.MaxSeconds, o.MinSeconds)
	}
	if o.TargetSeconds < o.MinSeconds || o.TargetSeconds > o.MaxSeconds {
		o.TargetSeconds = (o.MinSeconds + o.MaxSeconds) / 2
	}
	if o.MaxClips < 0 {
		o.MaxClips = 0
	}
	return o
}

// Input is the timing information clips are cut from.
type Input struct {
	Beats       []float64
	BPM         float64
	Duration    float64
	Segments    []analysis.Segment
	Breakpoints []float64
}

// Result holds the generated clips. Relaxed is set when the clip ceiling
// forced clips past the maximum length.
type Result struct {
	Clips   []analysis.ClipBoundary
	Relaxed bool
}

// Generate partitions [0, Duration] into clips.
func Generate(in Input, opts Options) Result {
	opts = opts.normalized()
	duration := in.Duration
	if !(duration > 0) {
		return Result{Clips: []analysis.ClipBoundary{{Start: 0, End: math.Max(0, duration), Duration: math.Max(0, duration)}}}
	}

	g := generator{
		opts:     opts,
		duration: duration,
		beats:    in.Beats,
		segments: in.Segments,
		cuts:     structuralCuts(in.Segments, in.Breakpoints, duration),
	}
	ends := g.walk()
	return finalize(ends, duration, opts)
}

type generator struct {
	opts     Options
	duration float64
	beats    []float64
	segments []analysis.Segment
	cuts     []float64
}

// walk returns the end time of every clip except the last, which always
// ends at duration.
func (g *generator) walk() []float64 {
	var ends []float64
	t := 0.0
	for {
		remaining := g.duration - t
		if remaining <= g.opts.MaxSeconds+epsilon {
			return ends
		}
		budget := math.MaxInt32
		if g.opts.MaxClips > 0 {
			budget = g.opts.MaxClips - len(ends)
			if budget <= 1 {
				return ends
			}
		}

		lo := t + g.opts.MinSeconds
		hi := math.Min(t+g.opts.MaxSeconds, g.duration-g.opts.MinSeconds)
		goal := t + g.goalLength(t)
		if g.opts.MaxClips > 0 {
			lo = math.Max(lo, g.duration-g.opts.MaxSeconds*float64(budget-1))
			goal = math.Max(goal, t+remaining/float64(budget))
		}

		var end float64
		if lo > hi+epsilon {
			// The ceiling cannot be met within MaxSeconds; spread evenly.
			end = t + remaining/float64(budget)
		} else {
			end = snapMillis(g.pick(lo, hi, goal), lo, hi)
		}
		if end <= t {
			return ends
		}
		ends = append(ends, end)
		t = end
	}
}

// goalLength biases clips shorter in high energy sections and longer in low
// energy ones. Without a beat grid the target is used as a fixed interval.
func (g *generator) goalLength(t float64) float64 {
	target := g.opts.TargetSeconds
	if len(g.beats) == 0 {
		return target
	}
	switch segmentEnergyAt(g.segments, t) {
	case analysis.EnergyHigh:
		return math.Max(g.opts.MinSeconds, target-1)
	case analysis.EnergyLow:
		return math.Min(g.opts.MaxSeconds, target+1)
	default:
		return target
	}
}

// pick prefers a structural cut, then a beat, then the goal itself, always
// choosing the candidate nearest the goal inside [lo, hi].
func (g *generator) pick(lo, hi, goal float64) float64 {
	if c, ok := nearestInWindow(g.cuts, lo, hi, goal); ok {
		return c
	}
	if b, ok := nearestInWindow(g.beats, lo, hi, goal); ok {
		return b
	}
	return math.Max(lo, math.Min(hi, goal))
}

func nearestInWindow(points []float64, lo, hi, goal float64) (float64, bool) {
	start := sort.SearchFloat64s(points, lo-epsilon)
	best, found := 0.0, false
	for i := start; i < len(points) && points[i] <= hi+epsilon; i++ {
		if !found || math.Abs(points[i]-goal) < math.Abs(best-goal) {
			best, found = points[i], true
		}
	}
	return best, found
}

func segmentEnergyAt(segments []analysis.Segment, t float64) analysis.Energy {
	for _, s := range segments {
		if t >= s.Start && t < s.End {
			return s.Energy
		}
	}
	return analysis.EnergyMedium
}

// structuralCuts merges interior segment starts and caller breakpoints into
// one sorted list.
func structuralCuts(segments []analysis.Segment, breakpoints []float64, duration float64) []float64 {
	points := append([]float64(nil), breakpoints...)
	for _, s := range segments {
		points = append(points, s.Start)
	}
	return structure.SanitizeBreakpoints(points, duration)
}

// snapMillis rounds to whole milliseconds while staying inside [lo, hi].
// Windows narrower than a millisecond keep the exact value.
func snapMillis(v, lo, hi float64) float64 {
	loMs := math.Ceil(lo*1000-1e-6) / 1000
	hiMs := math.Floor(hi*1000+1e-6) / 1000
	if loMs > hiMs {
		return v
	}
	r := math.Round(v*1000) / 1000
	return math.Max(loMs, math.Min(hiMs, r))
}

func finalize(ends []float64, duration float64, opts Options) Result {
	edges := make([]float64, 0, len(ends)+2)
	edges = append(edges, 0)
	edges = append(edges, ends...)
	edges = append(edges, duration)

	// A tail shorter than the minimum folds into the previous clip.
	if n := len(edges); n > 2 && edges[n-1]-edges[n-2] < opts.MinSeconds-epsilon {
		edges = append(edges[:n-2], duration)
	}

	res := Result{Clips: make([]analysis.ClipBoundary, 0, len(edges)-1)}
	for i := 0; i+1 < len(edges); i++ {
		start, end := edges[i], edges[i+1]
		length := end - start
		if length > opts.MaxSeconds+1e-6 {
			res.Relaxed = true
		}
		res.Clips = append(res.Clips, analysis.ClipBoundary{Start: start, End: end, Duration: length})
	}
	return res
}
