package main

import (
	"fmt"
	"strconv"
	"strings"

	"clipsync/internal/analysis"
)

const lyricColumnWidth = 40

func renderAnalysis(file string, a *analysis.AudioAnalysis, color bool) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	for _, line := range sectionHeader(file, color) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	md := a.Metadata
	fields := [][2]string{
		{"Job", a.JobReference},
		{"Duration", formatClock(a.Duration)},
		{"Tempo", fmt.Sprintf("%.1f BPM (%d beats, confidence %.2f)", a.BPM, len(a.BeatTimestamps), md.Confidence[analysis.StageBeatTracking])},
		{"Mood", moodSummary(a.Mood)},
		{"Clips", strconv.Itoa(len(a.ClipBoundaries))},
		{"Cache hit", yesNo(md.CacheHit)},
		{"Fallbacks", fallbackSummary(md.FallbacksUsed)},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%-10s %s\n", f[0]+":", f[1])
	}

	b.WriteString("\nStructure\n")
	b.WriteString(renderStructure(a))
	b.WriteString("\n\nClips\n")
	b.WriteString(renderClips(a))
	b.WriteByte('\n')
	return b.String()
}

func moodSummary(m analysis.Mood) string {
	label := titleLabel(string(m.Primary))
	if m.Secondary != "" {
		label += " / " + titleLabel(string(m.Secondary))
	}
	return fmt.Sprintf("%s (%s energy, confidence %.2f)", label, m.EnergyLevel, m.Confidence)
}

func fallbackSummary(stages []string) string {
	if len(stages) == 0 {
		return "none"
	}
	labels := make([]string, len(stages))
	for i, s := range stages {
		labels[i] = titleLabel(s)
	}
	return strings.Join(labels, ", ")
}

func renderStructure(a *analysis.AudioAnalysis) string {
	intensity := a.Metadata.BeatFeatures.SegmentIntensity
	rows := make([][]string, 0, len(a.SongStructure))
	for i, seg := range a.SongStructure {
		beatIntensity := "-"
		if i < len(intensity) {
			beatIntensity = titleLabel(string(intensity[i]))
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			titleLabel(string(seg.Type)),
			formatClock(seg.Start),
			formatClock(seg.End),
			titleLabel(string(seg.Energy)),
			beatIntensity,
		})
	}
	return renderTable(
		[]string{"#", "Section", "Start", "End", "Energy", "Beat Intensity"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func renderClips(a *analysis.AudioAnalysis) string {
	rows := make([][]string, 0, len(a.ClipBoundaries))
	for i, c := range a.ClipBoundaries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatClock(c.Start),
			formatClock(c.End),
			formatSeconds(c.Duration),
			truncate(c.Lyrics, lyricColumnWidth),
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Length", "Lyrics"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
