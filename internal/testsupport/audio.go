package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultSampleRate keeps synthesized fixtures small while leaving headroom
// for spectral analysis up to 11 kHz.
const DefaultSampleRate = 22050

// ClickTrack synthesizes a mono click track: a short decaying 1 kHz burst on
// every beat at the given tempo, over a quiet 220 Hz bed so frames are never
// digitally silent.
func ClickTrack(seconds, bpm float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	period := 60.0 / bpm
	clickLen := int(0.03 * float64(sampleRate))
	for i := range samples {
		tm := float64(i) / float64(sampleRate)
		samples[i] = 0.02 * math.Sin(2*math.Pi*220*tm)
	}
	for beat := 0.0; beat < seconds; beat += period {
		start := int(beat * float64(sampleRate))
		for k := 0; k < clickLen && start+k < n; k++ {
			env := math.Exp(-float64(k) / (0.005 * float64(sampleRate)))
			tm := float64(k) / float64(sampleRate)
			samples[start+k] += 0.8 * env * math.Sin(2*math.Pi*1000*tm)
		}
	}
	return samples
}

// Tone synthesizes a constant sine wave.
func Tone(seconds, freq, amplitude float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

// Silence returns seconds of zero samples.
func Silence(seconds float64, sampleRate int) []float64 {
	return make([]float64, int(seconds*float64(sampleRate)))
}

// EncodeWAV renders float samples in [-1, 1] as 16-bit PCM WAV bytes with
// the given channel count; mono input is duplicated across channels.
func EncodeWAV(t testing.TB, samples []float64, sampleRate, channels int) []byte {
	t.Helper()
	if channels <= 0 {
		channels = 1
	}

	path := filepath.Join(t.TempDir(), "fixture.wav")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	data := make([]int, 0, len(samples)*channels)
	for _, sample := range samples {
		sample = math.Max(-1, math.Min(1, sample))
		value := int(sample * 32767.0)
		for c := 0; c < channels; c++ {
			data = append(data, value)
		}
	}

	encoder := wav.NewEncoder(out, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close wav file: %v", err)
	}

	encoded, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return encoded
}

// ClickTrackWAV is ClickTrack encoded as mono WAV at DefaultSampleRate.
func ClickTrackWAV(t testing.TB, seconds, bpm float64) []byte {
	t.Helper()
	return EncodeWAV(t, ClickTrack(seconds, bpm, DefaultSampleRate), DefaultSampleRate, 1)
}
