package analysiscache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"clipsync/internal/config"
)

// Open builds the cache described by cfg. It returns a nil *Cache when
// caching is disabled.
func Open(cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, nil
	}
	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, err
	}
	return New(backend, OptionsFromConfig(cfg), logger), nil
}

// OptionsFromConfig maps the cache section onto Options. The namespace is
// suffixed with EngineFingerprint so a change to the clip settings misses
// instead of serving clips cut under the old bounds.
func OptionsFromConfig(cfg *config.Config) Options {
	ns := strings.TrimSpace(cfg.Cache.Namespace)
	if ns == "" {
		ns = DefaultNamespace
	}
	return Options{
		Namespace:     ns + "-" + EngineFingerprint(cfg.Engine),
		SchemaVersion: cfg.Cache.SchemaVersion,
		TTL:           cfg.CacheTTL(),
	}
}

// EngineFingerprint digests the engine settings that shape a cached result
// into eight hex characters.
func EngineFingerprint(e config.Engine) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("min=%g;max=%g;target=%g;max_clips=%d",
		e.MinClipSeconds, e.MaxClipSeconds, e.TargetClipSeconds, e.MaxClips)))
	return hex.EncodeToString(sum[:4])
}

// OpenBackend opens the configured storage backend.
func OpenBackend(cfg *config.Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Cache.Backend)) {
	case config.BackendSQLite, "":
		return OpenSQLite(cfg.CachePath())
	case config.BackendFile:
		return OpenFile(cfg.CachePath())
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
