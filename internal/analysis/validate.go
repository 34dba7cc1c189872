package analysis

import (
	"errors"
	"fmt"
	"math"
)

const timeTolerance = 1e-6

// Validate checks the structural invariants of the result and returns every
// violation it finds joined into one error.
func (a *AudioAnalysis) Validate() error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if math.IsNaN(a.BPM) || a.BPM < MinBPM || a.BPM > MaxBPM {
		add("bpm %.3f outside [%.0f, %.0f]", a.BPM, MinBPM, MaxBPM)
	}
	if !(a.Duration > 0) || math.IsInf(a.Duration, 0) {
		add("duration %.3f must be positive", a.Duration)
	}

	for i, beat := range a.BeatTimestamps {
		if beat < 0 || beat > a.Duration+timeTolerance {
			add("beat %d at %.3f outside [0, %.3f]", i, beat, a.Duration)
		}
		if i > 0 && beat <= a.BeatTimestamps[i-1] {
			add("beat %d at %.3f not after %.3f", i, beat, a.BeatTimestamps[i-1])
		}
	}

	errs = append(errs, a.validateStructure()...)
	errs = append(errs, a.validateMood()...)
	errs = append(errs, a.validateClips()...)

	for i, lyric := range a.Lyrics {
		if lyric.Confidence < 0 || lyric.Confidence > 1 {
			add("lyric %d confidence %.3f outside [0, 1]", i, lyric.Confidence)
		}
		if i > 0 && lyric.Timestamp < a.Lyrics[i-1].Timestamp {
			add("lyric %d out of timestamp order", i)
		}
	}

	return errors.Join(errs...)
}

func (a *AudioAnalysis) validateStructure() []error {
	var errs []error
	if len(a.SongStructure) == 0 {
		return []error{errors.New("song_structure is empty")}
	}
	if first := a.SongStructure[0].Start; math.Abs(first) > timeTolerance {
		errs = append(errs, fmt.Errorf("song_structure starts at %.3f, want 0", first))
	}
	if last := a.SongStructure[len(a.SongStructure)-1].End; math.Abs(last-a.Duration) > timeTolerance {
		errs = append(errs, fmt.Errorf("song_structure ends at %.3f, want %.3f", last, a.Duration))
	}
	for i, seg := range a.SongStructure {
		if seg.End <= seg.Start {
			errs = append(errs, fmt.Errorf("segment %d has non-positive length", i))
		}
		if !seg.Type.Valid() {
			errs = append(errs, fmt.Errorf("segment %d has unknown type %q", i, seg.Type))
		}
		if !seg.Energy.Valid() {
			errs = append(errs, fmt.Errorf("segment %d has unknown energy %q", i, seg.Energy))
		}
		if i > 0 && math.Abs(seg.Start-a.SongStructure[i-1].End) > timeTolerance {
			errs = append(errs, fmt.Errorf("segment %d starts at %.3f, previous ends at %.3f", i, seg.Start, a.SongStructure[i-1].End))
		}
	}
	return errs
}

func (a *AudioAnalysis) validateMood() []error {
	var errs []error
	if !a.Mood.Primary.Valid() {
		errs = append(errs, fmt.Errorf("mood primary %q unknown", a.Mood.Primary))
	}
	if a.Mood.Secondary != "" && !a.Mood.Secondary.Valid() {
		errs = append(errs, fmt.Errorf("mood secondary %q unknown", a.Mood.Secondary))
	}
	if !a.Mood.EnergyLevel.Valid() {
		errs = append(errs, fmt.Errorf("mood energy_level %q unknown", a.Mood.EnergyLevel))
	}
	if a.Mood.Confidence < 0 || a.Mood.Confidence > 1 {
		errs = append(errs, fmt.Errorf("mood confidence %.3f outside [0, 1]", a.Mood.Confidence))
	}
	return errs
}

func (a *AudioAnalysis) validateClips() []error {
	var errs []error
	clips := a.ClipBoundaries
	if len(clips) == 0 {
		return []error{errors.New("clip_boundaries is empty")}
	}
	if clips[0].Start != 0 {
		errs = append(errs, fmt.Errorf("first clip starts at %.3f, want 0", clips[0].Start))
	}
	if last := clips[len(clips)-1].End; last != a.Duration {
		errs = append(errs, fmt.Errorf("last clip ends at %.6f, want %.6f", last, a.Duration))
	}

	enforceBounds := a.Duration >= MinClipSeconds && !a.Metadata.UsedFallback(StageClipMaxRelaxed)
	for i, clip := range clips {
		if clip.End <= clip.Start {
			errs = append(errs, fmt.Errorf("clip %d has start %.3f >= end %.3f", i, clip.Start, clip.End))
		}
		if math.Abs(clip.Duration-(clip.End-clip.Start)) > timeTolerance {
			errs = append(errs, fmt.Errorf("clip %d duration %.6f != end-start", i, clip.Duration))
		}
		if enforceBounds && (clip.Duration < MinClipSeconds-timeTolerance || clip.Duration > MaxClipSeconds+timeTolerance) {
			errs = append(errs, fmt.Errorf("clip %d duration %.3f outside [%.0f, %.0f]", i, clip.Duration, MinClipSeconds, MaxClipSeconds))
		}
		if i > 0 && clip.Start != clips[i-1].End {
			errs = append(errs, fmt.Errorf("clip %d starts at %.6f, previous ends at %.6f", i, clip.Start, clips[i-1].End))
		}
	}
	return errs
}
