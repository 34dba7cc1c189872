package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"clipsync/internal/analysiscache"
	"clipsync/internal/config"
	"clipsync/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := uint64(st.Bavail) * uint64(st.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckFFmpeg reports whether the ffmpeg decoder fallback can run. Missing
// ffmpeg only limits input to WAV, so the check is optional.
func CheckFFmpeg(binary string) Result {
	status := deps.ResolveFFmpeg(binary)
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	if status.Available {
		result.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Description)
	} else {
		result.Detail = fmt.Sprintf("%s; only WAV input will decode", status.Detail)
	}
	return result
}

// CheckCache opens the configured backend and reads its statistics.
func CheckCache(ctx context.Context, cfg *config.Config) Result {
	name := "Cache backend"
	backend, err := analysiscache.OpenBackend(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Cache.Backend, err)}
	}
	defer backend.Close()

	stats, err := backend.Stats(ctx, time.Now())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", backend.Name(), err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s, %d entries, %s", backend.Name(), stats.Entries, humanize.IBytes(uint64(stats.Bytes))),
	}
}
