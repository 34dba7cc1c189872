package logging

import (
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		name  string
		value slog.Value
		want  string
	}{
		{"tempo", slog.Float64Value(119.99834), "119.998"},
		{"whole float", slog.Float64Value(120), "120"},
		{"negative zero", slog.Float64Value(-0.0001), "0"},
		{"nan", slog.Float64Value(math.NaN()), "NaN"},
		{"elapsed", slog.DurationValue(1234567 * time.Microsecond), "1.235s"},
		{"fast stage", slog.DurationValue(420 * time.Microsecond), "420µs"},
		{"zero elapsed", slog.DurationValue(0), "0s"},
		{"quoted string", slog.StringValue("two words"), `"two words"`},
		{"plain string", slog.StringValue("chorus"), "chorus"},
		{"error", slog.AnyValue(errors.New("decode failed")), `"decode failed"`},
		{"short list", slog.AnyValue([]float64{0.5, 1, 1.5}), "[0.5 1 1.5]"},
		{"long list", slog.AnyValue([]float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5}), "[0 0.5 1 … 2.5 3 3.5] (8 values)"},
		{"stages", slog.AnyValue([]string{"mood", "lyrics"}), "[mood lyrics]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatValue(tc.value); got != tc.want {
				t.Fatalf("formatValue = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatTimestampIncludesMilliseconds(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 89*int(time.Millisecond), time.Local)
	if got := formatTimestamp(ts); got != "2026-03-04 05:06:07.089" {
		t.Fatalf("formatTimestamp = %q", got)
	}
	if got := formatTimestamp(time.Time{}); got != "" {
		t.Fatalf("zero time = %q, want empty", got)
	}
}
