package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"clipsync/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("CLIPSYNC_CACHE_DIR", "")
	t.Setenv("CLIPSYNC_LOG_LEVEL", "")
	return tempHome
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := isolateEnv(t)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "clipsync")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "clipsync", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected cache enabled by default")
	}
	if cfg.Cache.Backend != config.BackendSQLite {
		t.Fatalf("unexpected backend: %q", cfg.Cache.Backend)
	}
	if cfg.CacheTTL() != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", cfg.CacheTTL())
	}
	if cfg.Engine.MinClipSeconds != 3 || cfg.Engine.MaxClipSeconds != 7 || cfg.Engine.TargetClipSeconds != 5 {
		t.Fatalf("unexpected clip bounds: %+v", cfg.Engine)
	}
	if cfg.MaxInputBytes() != 100*1024*1024 {
		t.Fatalf("unexpected max input bytes: %d", cfg.MaxInputBytes())
	}
	if got := cfg.CachePath(); got != filepath.Join(wantCache, "analysis_cache.db") {
		t.Fatalf("unexpected cache path: %q", got)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "clipsync.toml")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
		Cache struct {
			Backend       string `toml:"backend"`
			SchemaVersion int    `toml:"schema_version"`
			TTLHours      int    `toml:"ttl_hours"`
		} `toml:"cache"`
		Engine struct {
			MaxClips int `toml:"max_clips"`
		} `toml:"engine"`
	}
	custom := payload{}
	custom.Paths.CacheDir = filepath.Join(tempDir, "cache")
	custom.Cache.Backend = " FILE "
	custom.Cache.SchemaVersion = 4
	custom.Cache.TTLHours = 2
	custom.Engine.MaxClips = 12

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Cache.Backend != config.BackendFile {
		t.Fatalf("expected normalized backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.SchemaVersion != 4 {
		t.Fatalf("unexpected schema version: %d", cfg.Cache.SchemaVersion)
	}
	if cfg.CacheTTL() != 2*time.Hour {
		t.Fatalf("unexpected ttl: %s", cfg.CacheTTL())
	}
	if cfg.Engine.MaxClips != 12 {
		t.Fatalf("unexpected max clips: %d", cfg.Engine.MaxClips)
	}
	if cfg.CachePath() != filepath.Join(tempDir, "cache", "entries") {
		t.Fatalf("unexpected cache path: %q", cfg.CachePath())
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	cacheDir := t.TempDir()
	t.Setenv("CLIPSYNC_CACHE_DIR", cacheDir)
	t.Setenv("CLIPSYNC_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CacheDir != cacheDir {
		t.Fatalf("expected env cache dir, got %q", cfg.Paths.CacheDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"max clips", func(c *config.Config) { c.Engine.MaxClips = -1 }, "engine.max_clips"},
		{"clip bounds", func(c *config.Config) { c.Engine.MaxClipSeconds = 2 }, "engine.max_clip_seconds"},
		{"target", func(c *config.Config) { c.Engine.TargetClipSeconds = 9 }, "engine.target_clip_seconds"},
		{"input size", func(c *config.Config) { c.Engine.MaxInputMB = -5 }, "engine.max_input_mb"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"workers", func(c *config.Config) { c.Engine.Workers = -2 }, "engine.workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Cache.Namespace != "audio-analysis" {
		t.Fatalf("unexpected namespace from sample: %q", cfg.Cache.Namespace)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "schema_version") {
		t.Fatalf("expected encoded config to include schema_version, got %s", encoded)
	}
}
