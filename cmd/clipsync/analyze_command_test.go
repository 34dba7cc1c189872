package main

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"clipsync/internal/analysis"
	"clipsync/internal/testsupport"
)

func TestAnalyzeJSONAndCacheReuse(t *testing.T) {
	env := setupCLITestEnv(t)
	track := testsupport.WriteClickTrack(t, env.baseDir, "click.wav", 20, 120)

	out, _, err := runCLI(t, []string{"analyze", "--json", "--job-id", "job-1", track}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var first analysis.AudioAnalysis
	if err := json.Unmarshal([]byte(out), &first); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if first.JobReference != "job-1" {
		t.Fatalf("job reference = %q", first.JobReference)
	}
	if math.Abs(first.BPM-120) > 3 {
		t.Fatalf("bpm = %.2f, want ~120", first.BPM)
	}
	if len(first.ClipBoundaries) == 0 {
		t.Fatal("expected clip boundaries")
	}
	if first.Metadata.CacheHit {
		t.Fatal("first run should not be a cache hit")
	}

	out, _, err = runCLI(t, []string{"analyze", "--json", "--job-id", "job-2", track}, env.configPath)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	var second analysis.AudioAnalysis
	if err := json.Unmarshal([]byte(out), &second); err != nil {
		t.Fatalf("decode second output: %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Fatal("second run should hit the cache")
	}
	if second.JobReference != "job-2" {
		t.Fatalf("cached job reference = %q", second.JobReference)
	}
	if second.BPM != first.BPM || len(second.ClipBoundaries) != len(first.ClipBoundaries) {
		t.Fatal("cached analysis differs from the original")
	}

	stats, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, stats, "Entries:  1 (0 expired)")

	cleared, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, cleared, "Cleared 1 entry")
}

func TestAnalyzeNoCacheSkipsStore(t *testing.T) {
	env := setupCLITestEnv(t)
	track := testsupport.WriteClickTrack(t, env.baseDir, "click.wav", 12, 120)

	if _, _, err := runCLI(t, []string{"analyze", "--json", "--no-cache", track}, env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	stats, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, stats, "Entries:  0 (0 expired)")
}

func TestAnalyzeTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	track := testsupport.WriteClickTrack(t, env.baseDir, "demo.wav", 15, 120)

	out, _, err := runCLI(t, []string{"analyze", track}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Job:")
	requireContains(t, out, "demo")
	requireContains(t, out, "Structure")
	requireContains(t, out, "Clips")
	requireContains(t, out, "Cache hit: no")
}

func TestAnalyzeBatchReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	good := testsupport.WriteClickTrack(t, env.baseDir, "good.wav", 10, 120)
	bad := testsupport.WriteFile(t, filepath.Join(env.baseDir, "bad.wav"), []byte("not audio at all"))

	out, _, err := runCLI(t, []string{"analyze", "--json", good, bad}, env.configPath)
	if err == nil {
		t.Fatal("expected batch failure error")
	}
	requireContains(t, err.Error(), "1 of 2 files failed")

	var results []fileResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode batch output: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Analysis == nil || results[0].Error != "" {
		t.Fatalf("first result should succeed: %+v", results[0])
	}
	if results[1].Analysis != nil || results[1].Error == "" {
		t.Fatalf("second result should fail: %+v", results[1])
	}
}

func TestAnalyzeRejectsOversizedInput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMaxInputMB(1))
	big := testsupport.WriteFile(t, filepath.Join(env.baseDir, "big.wav"), testsupport.OversizedInput(1))

	_, _, err := runCLI(t, []string{"analyze", "--json", big}, env.configPath)
	if err == nil {
		t.Fatal("expected oversized input to fail")
	}
	requireContains(t, err.Error(), "limit is 1.0 MiB")
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	track := testsupport.WriteClickTrack(t, env.baseDir, "click.wav", 6, 120)

	if _, _, err := runCLI(t, []string{"analyze", "--max-clips", "-1", track}, env.configPath); err == nil {
		t.Fatal("expected negative max-clips to fail")
	}
	if _, _, err := runCLI(t, []string{"analyze", "--breakpoints", "1,abc", track}, env.configPath); err == nil {
		t.Fatal("expected invalid breakpoint to fail")
	}
	if _, _, err := runCLI(t, []string{"analyze", "--words", filepath.Join(env.baseDir, "missing.json"), track}, env.configPath); err == nil {
		t.Fatal("expected missing words file to fail")
	}
}

func TestAnalyzeWithWordsAndBreakpoints(t *testing.T) {
	env := setupCLITestEnv(t)
	track := testsupport.WriteClickTrack(t, env.baseDir, "click.wav", 20, 120)
	words := `[{"text":"Hello","timestamp":0.5,"confidence":0.9},{"text":"world","timestamp":1.0,"confidence":0.8}]`
	wordsPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "words.json"), []byte(words))

	out, _, err := runCLI(t, []string{"analyze", "--json", "--words", wordsPath, "--breakpoints", "10", track}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result analysis.AudioAnalysis
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Lyrics) != 2 {
		t.Fatalf("lyrics = %d, want 2", len(result.Lyrics))
	}
	if len(result.SongStructure) < 2 {
		t.Fatalf("segments = %d, want at least 2", len(result.SongStructure))
	}
	if result.Metadata.CacheHit {
		t.Fatal("requests with words must bypass the cache")
	}
}

func TestParseBreakpoints(t *testing.T) {
	got, err := parseBreakpoints(" 1.5, 8 ,,12")
	if err != nil {
		t.Fatalf("parseBreakpoints: %v", err)
	}
	want := []float64{1.5, 8, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if got, err := parseBreakpoints(""); err != nil || got != nil {
		t.Fatalf("empty input = %v, %v", got, err)
	}
	if _, err := parseBreakpoints("NaN"); err == nil {
		t.Fatal("expected NaN to be rejected")
	}
}

func TestJobReferenceFor(t *testing.T) {
	cases := []struct {
		jobID string
		file  string
		i, n  int
		want  string
	}{
		{"", "/music/song.mp3", 0, 1, "song"},
		{"", "track.wav", 1, 3, "track"},
		{"job", "a.wav", 0, 1, "job"},
		{"job", "b.wav", 1, 3, "job-2"},
	}
	for _, tc := range cases {
		if got := jobReferenceFor(tc.jobID, tc.file, tc.i, tc.n); got != tc.want {
			t.Fatalf("jobReferenceFor(%q, %q, %d, %d) = %q, want %q", tc.jobID, tc.file, tc.i, tc.n, got, tc.want)
		}
	}
}
