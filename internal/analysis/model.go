package analysis

import "time"

// Energy is a coarse three level loudness/intensity label.
type Energy string

const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

// Valid reports whether e is one of the known levels.
func (e Energy) Valid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	}
	return false
}

// Numeric maps the level onto the 0.3/0.6/0.9 scale used for scoring.
func (e Energy) Numeric() float64 {
	switch e {
	case EnergyHigh:
		return 0.9
	case EnergyMedium:
		return 0.6
	default:
		return 0.3
	}
}

// SegmentType labels a structural section of a song.
type SegmentType string

const (
	SegmentIntro  SegmentType = "intro"
	SegmentVerse  SegmentType = "verse"
	SegmentChorus SegmentType = "chorus"
	SegmentBridge SegmentType = "bridge"
	SegmentOutro  SegmentType = "outro"
)

func (s SegmentType) Valid() bool {
	switch s {
	case SegmentIntro, SegmentVerse, SegmentChorus, SegmentBridge, SegmentOutro:
		return true
	}
	return false
}

// MoodCategory is one of the four rule-scored moods.
type MoodCategory string

const (
	MoodEnergetic MoodCategory = "energetic"
	MoodCalm      MoodCategory = "calm"
	MoodDark      MoodCategory = "dark"
	MoodBright    MoodCategory = "bright"
)

func (m MoodCategory) Valid() bool {
	switch m {
	case MoodEnergetic, MoodCalm, MoodDark, MoodBright:
		return true
	}
	return false
}

// Stage names used in metadata.fallbacks_used and metadata.confidence.
const (
	StageBeatTracking     = "beat_tracking"
	StageSpectralFeatures = "spectral_features"
	StageStructure        = "structure"
	StageMood             = "mood"
	StageLyrics           = "lyrics"
	StageClipMaxRelaxed   = "clip_max_relaxed"
)

// Segment is one contiguous, typed section of the song.
type Segment struct {
	Type   SegmentType `json:"type"`
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
	Energy Energy      `json:"energy"`
}

// Lyric is one transcribed word placed on the track timeline.
type Lyric struct {
	Text          string  `json:"text"`
	Timestamp     float64 `json:"timestamp"`
	Confidence    float64 `json:"confidence"`
	FormattedText string  `json:"formatted_text"`
}

// Mood describes the classified mood of the whole track. Secondary is empty
// when no runner-up scored high enough.
type Mood struct {
	Primary     MoodCategory `json:"primary"`
	Secondary   MoodCategory `json:"secondary,omitempty"`
	EnergyLevel Energy       `json:"energy_level"`
	Confidence  float64      `json:"confidence"`
}

// ClipBoundary is one interval a downstream stage renders as a single clip.
type ClipBoundary struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Lyrics   string  `json:"lyrics,omitempty"`
}

// Spectral holds whole-track spectral summary statistics.
type Spectral struct {
	CentroidHz     float64 `json:"centroid_hz"`
	RolloffHz      float64 `json:"rolloff_hz"`
	ChromaVariance float64 `json:"chroma_variance"`
}

// BeatLabel marks a beat as a downbeat or upbeat under an assumed 4/4 meter.
type BeatLabel struct {
	Timestamp float64 `json:"timestamp"`
	Downbeat  bool    `json:"downbeat"`
}

// BeatFeatures carries the rhythmic features derived from the beat grid.
type BeatFeatures struct {
	Downbeats        []BeatLabel `json:"downbeats"`
	SegmentIntensity []Energy    `json:"segment_intensity"`
	ClipIntensity    []Energy    `json:"clip_intensity"`
	EighthNotes      []float64   `json:"eighth_notes"`
	SixteenthNotes   []float64   `json:"sixteenth_notes"`
}

// Metadata holds diagnostics about how a result was produced.
type Metadata struct {
	CacheHit      bool               `json:"cache_hit"`
	FallbacksUsed []string           `json:"fallbacks_used"`
	Confidence    map[string]float64 `json:"confidence"`
	SchemaVersion int                `json:"schema_version"`
	SampleRate    int                `json:"sample_rate"`
	AnalyzedAt    time.Time          `json:"analyzed_at"`
	ProcessingMS  int64              `json:"processing_ms"`
	Spectral      Spectral           `json:"spectral"`
	BeatFeatures  BeatFeatures       `json:"beat_features"`
}

// UsedFallback reports whether stage appears in FallbacksUsed.
func (m Metadata) UsedFallback(stage string) bool {
	for _, name := range m.FallbacksUsed {
		if name == stage {
			return true
		}
	}
	return false
}

// AudioAnalysis is the complete description of one track. Values are built
// once and treated as read-only afterwards.
type AudioAnalysis struct {
	JobReference   string         `json:"job_reference"`
	BPM            float64        `json:"bpm"`
	Duration       float64        `json:"duration"`
	BeatTimestamps []float64      `json:"beat_timestamps"`
	SongStructure  []Segment      `json:"song_structure"`
	Lyrics         []Lyric        `json:"lyrics"`
	Mood           Mood           `json:"mood"`
	ClipBoundaries []ClipBoundary `json:"clip_boundaries"`
	Metadata       Metadata       `json:"metadata"`
}

// MinBPM and MaxBPM bound every reported tempo.
const (
	MinBPM = 60.0
	MaxBPM = 200.0
)

// Clip duration bounds applied unless the track or the clip ceiling makes them
// unsatisfiable.
const (
	MinClipSeconds = 3.0
	MaxClipSeconds = 7.0
)
