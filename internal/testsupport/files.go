package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to path, creating parent directories, and returns
// path.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteClickTrack writes a mono click track WAV to dir/name and returns its
// path.
func WriteClickTrack(t testing.TB, dir, name string, seconds, bpm float64) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, name), ClickTrackWAV(t, seconds, bpm))
}

// OversizedInput returns a RIFF-prefixed buffer one byte larger than
// maxInputMB so size limits are hit before any decoding.
func OversizedInput(maxInputMB int) []byte {
	if maxInputMB <= 0 {
		maxInputMB = 1
	}
	buf := make([]byte, maxInputMB*1024*1024+1)
	copy(buf, "RIFF")
	for i := 4; i < len(buf); i++ {
		buf[i] = 0x42
	}
	return buf
}
