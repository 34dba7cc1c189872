package audio

// Signal is a decoded mono track.
type Signal struct {
	Samples    []float64
	SampleRate int
	// Channels and BitDepth describe the source before downmixing.
	Channels int
	BitDepth int
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Peak returns the largest absolute sample value.
func (s Signal) Peak() float64 {
	peak := 0.0
	for _, v := range s.Samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
