package logging

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// maxListValues bounds how many entries of a numeric list (beat grids,
// breakpoints) a console line shows.
const maxListValues = 6

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		if s, ok := formatList(v.Any()); ok {
			return s
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return formatFloat(v.Float64())
	case slog.KindDuration:
		return formatElapsed(v.Duration())
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		if s, ok := formatList(v.Any()); ok {
			return s
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

// formatFloat prints seconds, tempos, and confidences at millisecond
// precision with trailing zeros dropped.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	rounded := math.Round(f*1000) / 1000
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// formatList renders float and string slices compactly, eliding the middle of
// long lists.
func formatList(v any) (string, bool) {
	var items []string
	switch list := v.(type) {
	case []float64:
		items = make([]string, len(list))
		for i, f := range list {
			items[i] = formatFloat(f)
		}
	case []string:
		items = make([]string, len(list))
		for i, s := range list {
			items[i] = quoteIfNeeded(s)
		}
	default:
		return "", false
	}
	if len(items) > maxListValues {
		head := items[:maxListValues/2]
		tail := items[len(items)-maxListValues/2:]
		return fmt.Sprintf("[%s … %s] (%d values)", strings.Join(head, " "), strings.Join(tail, " "), len(items)), true
	}
	return "[" + strings.Join(items, " ") + "]", true
}

func quoteIfNeeded(s string) string {
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
