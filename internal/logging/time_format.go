package logging

import "time"

// Analysis runs finish in well under a second per stage, so console lines
// carry milliseconds.
const logTimestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

// formatElapsed renders a duration at millisecond resolution; sub-millisecond
// values keep microseconds so fast stages do not print as 0s.
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
