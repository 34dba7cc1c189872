package parser

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"clipsync/internal/lyrics"
	"clipsync/internal/services"
)

const validateStage = "validate"

// Request is one analysis job.
type Request struct {
	// JobReference correlates the result with the caller's job. A random
	// reference is generated when empty.
	JobReference string
	Audio        []byte
	// Breakpoints are optional structural boundaries in seconds.
	Breakpoints []float64
	// Words are optional pre-transcribed, timestamped lyric words.
	Words []lyrics.Word
	// MaxClips overrides engine.max_clips when positive. A negative value
	// removes the ceiling for this request.
	MaxClips int
}

// cacheable reports whether the result depends on the audio bytes alone.
// Requests carrying breakpoints, words, or a clip ceiling override would
// otherwise be served results computed for different inputs.
func (r Request) cacheable() bool {
	return len(r.Breakpoints) == 0 && len(r.Words) == 0 && r.MaxClips == 0
}

func validateRequest(req Request, maxBytes int64) error {
	if len(req.Audio) == 0 {
		return services.Wrap(services.ErrValidation, validateStage, "check input", "audio buffer is empty", nil)
	}
	if maxBytes > 0 && int64(len(req.Audio)) > maxBytes {
		return services.Wrap(
			services.ErrValidation,
			validateStage,
			"check input",
			fmt.Sprintf("audio buffer is %s, limit is %s",
				humanize.IBytes(uint64(len(req.Audio))), humanize.IBytes(uint64(maxBytes))),
			nil,
		)
	}
	return nil
}

func jobReference(ref string, generate func() string) string {
	if trimmed := strings.TrimSpace(ref); trimmed != "" {
		return trimmed
	}
	return "job-" + generate()
}
