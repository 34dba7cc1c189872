package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"clipsync/internal/logging"
)

// ErrUnsupportedFormat marks input that could not be decoded.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// FFmpegSampleRate is the rate ffmpeg resamples non-WAV input to.
const FFmpegSampleRate = 22050

// Options configures a Decoder.
type Options struct {
	// FFmpegFallback enables decoding of non-WAV containers through ffmpeg.
	FFmpegFallback bool
	FFmpegBinary   string
	Logger         *slog.Logger
}

// Decoder decodes audio buffers into mono signals.
type Decoder struct {
	ffmpegFallback bool
	ffmpegBinary   string
	logger         *slog.Logger
}

// NewDecoder constructs a Decoder.
func NewDecoder(opts Options) *Decoder {
	binary := strings.TrimSpace(opts.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Decoder{
		ffmpegFallback: opts.FFmpegFallback,
		ffmpegBinary:   binary,
		logger:         logging.NewComponentLogger(opts.Logger, "audio"),
	}
}

// Decode returns the mono signal contained in data.
func (d *Decoder) Decode(ctx context.Context, data []byte) (Signal, error) {
	if len(data) == 0 {
		return Signal{}, fmt.Errorf("%w: empty buffer", ErrUnsupportedFormat)
	}
	if IsWAV(data) {
		return DecodeWAV(data)
	}
	if !d.ffmpegFallback {
		return Signal{}, fmt.Errorf("%w: not a wav file and ffmpeg decoding is disabled", ErrUnsupportedFormat)
	}
	return d.decodeFFmpeg(ctx, data)
}

func (d *Decoder) decodeFFmpeg(ctx context.Context, data []byte) (Signal, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, d.ffmpegBinary,
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(FFmpegSampleRate),
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.WithContext(ctx, d.logger).Debug("decoding through ffmpeg",
		logging.String("binary", d.ffmpegBinary),
		logging.Int("input_bytes", len(data)),
	)
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return Signal{}, fmt.Errorf("%w: ffmpeg: %s", ErrUnsupportedFormat, detail)
	}

	samples := PCM16ToFloat(stdout.Bytes())
	if len(samples) == 0 {
		return Signal{}, fmt.Errorf("%w: ffmpeg produced no samples", ErrUnsupportedFormat)
	}
	return Signal{
		Samples:    samples,
		SampleRate: FFmpegSampleRate,
		Channels:   1,
		BitDepth:   16,
	}, nil
}

// PCM16ToFloat converts little-endian signed 16-bit PCM into [-1, 1] floats.
// A trailing odd byte is ignored.
func PCM16ToFloat(raw []byte) []float64 {
	n := len(raw) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i] = float64(v) / 32768.0
	}
	return out
}
