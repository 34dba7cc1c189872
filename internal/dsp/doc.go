// Package dsp holds the signal processing primitives shared by the beat,
// structure, and mood stages: windowed STFT magnitudes, frame RMS, spectral
// flux onsets, and whole-track spectral summaries.
package dsp
