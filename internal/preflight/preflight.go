package preflight

import (
	"context"

	"clipsync/internal/config"
)

// minFreeCacheBytes is the free space below which the cache directory check
// fails.
const minFreeCacheBytes = 64 << 20

// Result reports the outcome of a single preflight check. Optional checks
// never make the overall run fail.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Cache.Enabled && cfg.Cache.Backend != config.BackendMemory {
		results = append(results,
			CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
			CheckFreeSpace("Cache free space", cfg.Paths.CacheDir, minFreeCacheBytes),
			CheckCache(ctx, cfg),
		)
	}

	if cfg.Engine.FFmpegFallback {
		results = append(results, CheckFFmpeg(cfg.Engine.FFmpegBinary))
	}

	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
