package lyrics

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"clipsync/internal/analysis"
)

// Word is one transcribed word with its onset time in seconds.
type Word struct {
	Text       string  `json:"text"`
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// Normalize returns a cleaned copy of words: text is NFC normalized with
// whitespace collapsed, empty or untimed words are dropped, confidence is
// clamped to [0, 1], and the result is stably sorted by timestamp.
func Normalize(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		text := normalizeText(w.Text)
		if text == "" || math.IsNaN(w.Timestamp) || math.IsInf(w.Timestamp, 0) || w.Timestamp < 0 {
			continue
		}
		conf := w.Confidence
		if math.IsNaN(conf) {
			conf = 0
		}
		out = append(out, Word{
			Text:       text,
			Timestamp:  w.Timestamp,
			Confidence: math.Max(0, math.Min(1, conf)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// TextFor joins the words whose timestamp lies in [start, end), or in
// [start, end] when last is set so trailing words on the final clip are
// kept. ok is false when no word qualifies. Words must be sorted.
func TextFor(start, end float64, words []Word, last bool) (string, bool) {
	var parts []string
	for _, w := range words {
		if w.Timestamp < start {
			continue
		}
		if w.Timestamp > end || (!last && w.Timestamp == end) {
			break
		}
		parts = append(parts, w.Text)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// Align returns a copy of clips with each clip's Lyrics set from words.
func Align(clips []analysis.ClipBoundary, words []Word) []analysis.ClipBoundary {
	out := make([]analysis.ClipBoundary, len(clips))
	copy(out, clips)
	for i := range out {
		if text, ok := TextFor(out[i].Start, out[i].End, words, i == len(out)-1); ok {
			out[i].Lyrics = text
		}
	}
	return out
}

// Lyrics converts normalized words into result entries, with the
// normalized text as the formatted text. Words after duration are dropped.
func Lyrics(words []Word, duration float64) []analysis.Lyric {
	out := make([]analysis.Lyric, 0, len(words))
	for _, w := range words {
		if w.Timestamp > duration {
			continue
		}
		out = append(out, analysis.Lyric{
			Text:          w.Text,
			Timestamp:     w.Timestamp,
			Confidence:    w.Confidence,
			FormattedText: w.Text,
		})
	}
	return out
}

// Confidence is the mean word confidence, or zero without words.
func Confidence(lyrics []analysis.Lyric) float64 {
	if len(lyrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range lyrics {
		sum += l.Confidence
	}
	return sum / float64(len(lyrics))
}
