package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const ffmpegDescription = "Decodes non-WAV audio (mp3, flac, m4a, ogg)"

// ResolveFFmpeg reports the FFmpeg binary the decoder will execute.
//
// An explicit path is checked in place. A bare name is resolved from PATH,
// and when that fails an ffmpeg sitting next to the running executable is
// accepted so bundled installs work without PATH changes.
func ResolveFFmpeg(configured string) Status {
	command := strings.TrimSpace(configured)
	if command == "" {
		command = "ffmpeg"
	}
	result := Status{
		Name:        "FFmpeg",
		Description: ffmpegDescription,
		Optional:    true,
		Command:     command,
	}

	if strings.ContainsRune(command, os.PathSeparator) {
		info, err := os.Stat(command)
		if err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Detail = fmt.Sprintf("binary %q is not executable", command)
		return result
	}

	if found := CheckBinaries([]Requirement{FFmpegRequirement(command)})[0]; found.Available {
		return found
	}

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), executableName(command))
		if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
			result.Command = candidate
			result.Available = true
			return result
		}
	}

	result.Detail = fmt.Sprintf("binary %q not found", command)
	return result
}

// FFmpegRequirement describes ffmpeg for CheckBinaries.
func FFmpegRequirement(binary string) Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: ffmpegDescription,
		Optional:    true,
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(base, ".exe") {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
