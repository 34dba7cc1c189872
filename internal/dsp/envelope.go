package dsp

import "gonum.org/v1/gonum/floats"

// Envelope is a frame-rate curve (RMS, onset strength) over a signal.
type Envelope struct {
	Values     []float64
	FrameSize  int
	Hop        int
	SampleRate int
}

// NewRMSEnvelope computes frame RMS with the given framing.
func NewRMSEnvelope(samples []float64, sampleRate, frameSize, hop int) Envelope {
	return Envelope{
		Values:     FrameRMS(samples, frameSize, hop),
		FrameSize:  frameSize,
		Hop:        hop,
		SampleRate: sampleRate,
	}
}

// FrameCenter returns the time in seconds at the center of frame i.
func (e Envelope) FrameCenter(i int) float64 {
	if e.SampleRate <= 0 {
		return 0
	}
	return float64(i*e.Hop+e.FrameSize/2) / float64(e.SampleRate)
}

// Peak returns the largest value, or zero for an empty envelope.
func (e Envelope) Peak() float64 {
	if len(e.Values) == 0 {
		return 0
	}
	return floats.Max(e.Values)
}

// Mean averages the frames whose centers fall in [start, end). When the span
// is narrower than one hop the nearest frame is used.
func (e Envelope) Mean(start, end float64) float64 {
	if len(e.Values) == 0 || e.SampleRate <= 0 || end <= start {
		return 0
	}
	sum, count := 0.0, 0
	for i, v := range e.Values {
		c := e.FrameCenter(i)
		if c >= end {
			break
		}
		if c >= start {
			sum += v
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}
	return e.Values[e.nearest((start+end)/2)]
}

func (e Envelope) nearest(t float64) int {
	idx := int((t*float64(e.SampleRate) - float64(e.FrameSize/2)) / float64(e.Hop))
	if idx < 0 {
		return 0
	}
	if idx >= len(e.Values) {
		return len(e.Values) - 1
	}
	return idx
}
