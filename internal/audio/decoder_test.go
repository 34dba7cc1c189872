package audio_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"clipsync/internal/audio"
	"clipsync/internal/testsupport"
)

func TestDecodeWAVMono(t *testing.T) {
	samples := testsupport.Tone(1.0, 440, 0.5, 8000)
	data := testsupport.EncodeWAV(t, samples, 8000, 1)

	sig, err := audio.NewDecoder(audio.Options{}).Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sig.SampleRate != 8000 {
		t.Fatalf("unexpected sample rate %d", sig.SampleRate)
	}
	if len(sig.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(sig.Samples))
	}
	if math.Abs(sig.Duration()-1.0) > 1e-3 {
		t.Fatalf("unexpected duration %.4f", sig.Duration())
	}
	if peak := sig.Peak(); math.Abs(peak-0.5) > 0.01 {
		t.Fatalf("expected peak near 0.5, got %.4f", peak)
	}
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	samples := testsupport.Tone(0.5, 220, 0.25, 8000)
	data := testsupport.EncodeWAV(t, samples, 8000, 2)

	sig, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if sig.Channels != 2 {
		t.Fatalf("expected source channel count 2, got %d", sig.Channels)
	}
	if len(sig.Samples) != len(samples) {
		t.Fatalf("expected %d mono frames, got %d", len(samples), len(sig.Samples))
	}
	for i := range samples {
		if math.Abs(sig.Samples[i]-samples[i]) > 1e-3 {
			t.Fatalf("sample %d: got %.5f want %.5f", i, sig.Samples[i], samples[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dec := audio.NewDecoder(audio.Options{FFmpegFallback: false})
	_, err := dec.Decode(context.Background(), []byte("definitely not audio"))
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	_, err = dec.Decode(context.Background(), nil)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for empty input, got %v", err)
	}
}

func TestDecodeRejectsTruncatedWAV(t *testing.T) {
	data := testsupport.EncodeWAV(t, testsupport.Tone(0.1, 440, 0.5, 8000), 8000, 1)
	_, err := audio.DecodeWAV(data[:20])
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeFFmpegFailureIsUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'invalid data' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	dec := audio.NewDecoder(audio.Options{FFmpegFallback: true, FFmpegBinary: stub})
	_, err := dec.Decode(context.Background(), []byte("ID3 not really an mp3"))
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeFFmpegReadsPCM(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	pcmPath := filepath.Join(dir, "out.pcm")
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(16384))
	neg := int16(-16384)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(neg))
	if err := os.WriteFile(pcmPath, pcm, 0o644); err != nil {
		t.Fatalf("write pcm: %v", err)
	}
	stub := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\ncat >/dev/null\ncat " + pcmPath + "\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	dec := audio.NewDecoder(audio.Options{FFmpegFallback: true, FFmpegBinary: stub})
	sig, err := dec.Decode(context.Background(), []byte("fLaC pretend"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sig.SampleRate != audio.FFmpegSampleRate {
		t.Fatalf("unexpected sample rate %d", sig.SampleRate)
	}
	if len(sig.Samples) != 2 || sig.Samples[0] != 0.5 || sig.Samples[1] != -0.5 {
		t.Fatalf("unexpected samples %v", sig.Samples)
	}
}

func TestIsWAV(t *testing.T) {
	if audio.IsWAV([]byte("RIFF")) {
		t.Fatal("short header should not be treated as wav")
	}
	if !audio.IsWAV([]byte("RIFF\x00\x00\x00\x00WAVEfmt ")) {
		t.Fatal("expected RIFF/WAVE header to be detected")
	}
}
