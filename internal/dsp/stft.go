package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrogram is a sequence of magnitude spectra. Each frame has
// FrameSize/2+1 bins spaced BinHz apart.
type Spectrogram struct {
	Frames     [][]float64
	FrameSize  int
	Hop        int
	SampleRate int
	BinHz      float64
}

// FrameTime returns the start time in seconds of frame i.
func (s Spectrogram) FrameTime(i int) float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(i*s.Hop) / float64(s.SampleRate)
}

// Hann returns a symmetric Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// FrameCount is the number of full frames of size n at the given hop.
func FrameCount(length, n, hop int) int {
	if n <= 0 || hop <= 0 || length < n {
		return 0
	}
	return 1 + (length-n)/hop
}

// STFT computes Hann windowed magnitude spectra over full frames.
func STFT(samples []float64, sampleRate, frameSize, hop int) Spectrogram {
	spec := Spectrogram{
		FrameSize:  frameSize,
		Hop:        hop,
		SampleRate: sampleRate,
	}
	if frameSize > 0 && sampleRate > 0 {
		spec.BinHz = float64(sampleRate) / float64(frameSize)
	}
	frames := FrameCount(len(samples), frameSize, hop)
	if frames == 0 {
		return spec
	}

	win := Hann(frameSize)
	fft := fourier.NewFFT(frameSize)
	buf := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)
	spec.Frames = make([][]float64, frames)
	for i := 0; i < frames; i++ {
		start := i * hop
		for k := 0; k < frameSize; k++ {
			buf[k] = samples[start+k] * win[k]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		mags := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mags[k] = cmplx.Abs(c)
		}
		spec.Frames[i] = mags
	}
	return spec
}

// FrameRMS returns the root mean square of each full frame.
func FrameRMS(samples []float64, frameSize, hop int) []float64 {
	frames := FrameCount(len(samples), frameSize, hop)
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		start := i * hop
		sum := 0.0
		for _, v := range samples[start : start+frameSize] {
			sum += v * v
		}
		out[i] = math.Sqrt(sum / float64(frameSize))
	}
	return out
}

// SpectralFlux returns the half-wave rectified frame to frame magnitude
// increase. The first frame has no predecessor and scores zero.
func SpectralFlux(spec Spectrogram) []float64 {
	out := make([]float64, len(spec.Frames))
	for i := 1; i < len(spec.Frames); i++ {
		prev, cur := spec.Frames[i-1], spec.Frames[i]
		flux := 0.0
		for k := range cur {
			if d := cur[k] - prev[k]; d > 0 {
				flux += d
			}
		}
		out[i] = flux
	}
	return out
}
