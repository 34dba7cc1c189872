package dsp

import (
	"errors"
	"math"
	"testing"
)

func tone(seconds, freq float64, rate int) []float64 {
	out := make([]float64, int(seconds*float64(rate)))
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestFrameCount(t *testing.T) {
	cases := []struct {
		length, n, hop, want int
	}{
		{100, 200, 50, 0},
		{200, 200, 50, 1},
		{300, 200, 50, 3},
		{300, 0, 50, 0},
	}
	for _, tc := range cases {
		if got := FrameCount(tc.length, tc.n, tc.hop); got != tc.want {
			t.Fatalf("FrameCount(%d,%d,%d) = %d want %d", tc.length, tc.n, tc.hop, got, tc.want)
		}
	}
}

func TestSTFTPeaksAtToneFrequency(t *testing.T) {
	rate := 8000
	spec := STFT(tone(0.5, 1000, rate), rate, 1024, 512)
	if len(spec.Frames) == 0 {
		t.Fatal("expected frames")
	}
	frame := spec.Frames[0]
	if len(frame) != 513 {
		t.Fatalf("expected 513 bins, got %d", len(frame))
	}
	best := 0
	for k := range frame {
		if frame[k] > frame[best] {
			best = k
		}
	}
	if got := float64(best) * spec.BinHz; math.Abs(got-1000) > spec.BinHz {
		t.Fatalf("expected peak near 1000 Hz, got %.1f", got)
	}
}

func TestFrameRMSOfSine(t *testing.T) {
	rms := FrameRMS(tone(0.5, 440, 8000), 800, 400)
	for i, v := range rms {
		if math.Abs(v-0.5/math.Sqrt2) > 0.01 {
			t.Fatalf("frame %d rms %.4f, want ~0.354", i, v)
		}
	}
}

func TestSpectralFluxRespondsToOnset(t *testing.T) {
	rate := 8000
	samples := make([]float64, rate)
	copy(samples[rate/2:], tone(0.5, 800, rate))
	spec := STFT(samples, rate, 512, 256)
	flux := SpectralFlux(spec)
	if flux[0] != 0 {
		t.Fatalf("first frame flux should be zero, got %v", flux[0])
	}
	onsetFrame := int(float64(rate/2) / 256)
	peak := 0
	for i := range flux {
		if flux[i] > flux[peak] {
			peak = i
		}
	}
	if peak < onsetFrame-2 || peak > onsetFrame+1 {
		t.Fatalf("expected flux peak near frame %d, got %d", onsetFrame, peak)
	}
}

func TestSummarizeTone(t *testing.T) {
	summary, err := Summarize(tone(2, 440, 22050), 22050)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if math.Abs(summary.CentroidHz-440) > 60 {
		t.Fatalf("expected centroid near 440 Hz, got %.1f", summary.CentroidHz)
	}
	if summary.RolloffHz < 400 || summary.RolloffHz > 700 {
		t.Fatalf("unexpected rolloff %.1f", summary.RolloffHz)
	}
	if summary.ChromaVariance > 0.01 {
		t.Fatalf("steady tone should have near-zero chroma variance, got %.4f", summary.ChromaVariance)
	}
}

func TestSummarizeSilenceAndShortInput(t *testing.T) {
	summary, err := Summarize(make([]float64, 22050), 22050)
	if err != nil {
		t.Fatalf("Summarize silence: %v", err)
	}
	if summary != (SpectralSummary{}) {
		t.Fatalf("expected zero summary for silence, got %+v", summary)
	}
	if _, err := Summarize(make([]float64, 100), 22050); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestPercentileAndMeanStdDev(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	if got := Percentile(values, 0.5); got != 3 {
		t.Fatalf("median = %v want 3", got)
	}
	if values[0] != 5 {
		t.Fatal("Percentile must not reorder its input")
	}
	mean, sd := MeanStdDev([]float64{2, 4})
	if mean != 3 || math.Abs(sd-math.Sqrt2) > 1e-9 {
		t.Fatalf("unexpected mean/sd %v %v", mean, sd)
	}
}

func TestEnvelopeMeanAndPeak(t *testing.T) {
	env := Envelope{Values: []float64{1, 2, 3, 4}, FrameSize: 2, Hop: 2, SampleRate: 2}
	// frame centers: 0.5, 1.5, 2.5, 3.5
	if got := env.Mean(0, 2); got != 1.5 {
		t.Fatalf("Mean(0,2) = %v want 1.5", got)
	}
	if got := env.Peak(); got != 4 {
		t.Fatalf("Peak = %v want 4", got)
	}
	if got := env.Mean(3.6, 3.7); got != 4 {
		t.Fatalf("narrow span should use nearest frame, got %v", got)
	}
	if got := (Envelope{}).Mean(0, 1); got != 0 {
		t.Fatalf("empty envelope mean = %v", got)
	}
}
