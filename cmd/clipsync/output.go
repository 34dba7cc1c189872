package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ansiBlue   = "\033[34m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(s, color string, enabled bool) string {
	if !enabled || s == "" {
		return s
	}
	return color + s + ansiReset
}

// sectionHeader returns a title line with a matching rule.
func sectionHeader(title string, color bool) []string {
	line := strings.TrimSpace(title)
	rule := strings.Repeat("-", len([]rune(line)))
	return []string{colorize(line, ansiBlue, color), colorize(rule, ansiBlue, color)}
}

// titleLabel renders an enum value such as "chorus" for display.
func titleLabel(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return "-"
	}
	return cases.Title(language.English).String(value)
}

// formatClock renders seconds as m:ss.mmm.
func formatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	minutes := totalMillis / 60000
	rest := totalMillis % 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, rest/1000, rest%1000)
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.2fs", seconds)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
