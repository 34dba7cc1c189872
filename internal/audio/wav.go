package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DecodeWAV decodes PCM WAV bytes and downmixes them to mono by averaging
// channels. Samples are scaled into [-1, 1] by the source bit depth.
func DecodeWAV(data []byte) (Signal, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Signal{}, fmt.Errorf("%w: invalid wav container", ErrUnsupportedFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("%w: read pcm: %v", ErrUnsupportedFormat, err)
	}
	if buf == nil || buf.Format == nil {
		return Signal{}, fmt.Errorf("%w: missing pcm format", ErrUnsupportedFormat)
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if channels <= 0 || sampleRate <= 0 || bitDepth <= 0 {
		return Signal{}, fmt.Errorf("%w: channels=%d rate=%d bits=%d", ErrUnsupportedFormat, channels, sampleRate, bitDepth)
	}

	frames := len(buf.Data) / channels
	if frames == 0 {
		return Signal{}, fmt.Errorf("%w: no samples", ErrUnsupportedFormat)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	// 8-bit PCM is unsigned.
	offset := 0.0
	if bitDepth == 8 {
		offset = scale
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = clampUnit(sum / float64(channels))
	}

	return Signal{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
