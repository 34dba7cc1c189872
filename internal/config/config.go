package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Cache contains configuration for the analysis result cache.
type Cache struct {
	Enabled bool `toml:"enabled"`
	// Backend selects the storage: "sqlite", "file", or "memory".
	Backend   string `toml:"backend"`
	Namespace string `toml:"namespace"`
	// SchemaVersion is part of every cache key. Bumping it invalidates all
	// previously stored results without deleting them.
	SchemaVersion int `toml:"schema_version"`
	TTLHours      int `toml:"ttl_hours"`
}

// Engine contains limits and tuning for the analysis pipeline.
type Engine struct {
	MaxInputMB        int     `toml:"max_input_mb"`
	MaxClips          int     `toml:"max_clips"` // 0 disables the ceiling
	MinClipSeconds    float64 `toml:"min_clip_seconds"`
	MaxClipSeconds    float64 `toml:"max_clip_seconds"`
	TargetClipSeconds float64 `toml:"target_clip_seconds"`
	Workers           int     `toml:"workers"` // 0 uses one worker per CPU
	FFmpegFallback    bool    `toml:"ffmpeg_fallback"`
	FFmpegBinary      string  `toml:"ffmpeg_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipsync.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - Cache: result cache backend, key namespace, schema version, TTL
//   - Engine: input limits, clip duration bounds, worker pool, decoding
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Cache   Cache   `toml:"cache"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Cache.Enabled && c.Cache.Backend != BackendMemory {
		dirs = append(dirs, c.Paths.CacheDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheTTL returns the configured cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// MaxInputBytes returns the largest audio buffer the engine accepts.
func (c *Config) MaxInputBytes() int64 {
	return int64(c.Engine.MaxInputMB) * 1024 * 1024
}

// CachePath returns the location of the cache store for file-backed backends.
// The sqlite backend uses a database file; the file backend uses a directory.
func (c *Config) CachePath() string {
	switch c.Cache.Backend {
	case BackendSQLite:
		return filepath.Join(c.Paths.CacheDir, "analysis_cache.db")
	case BackendFile:
		return filepath.Join(c.Paths.CacheDir, "entries")
	default:
		return ""
	}
}

// LogPath returns the CLI log file path.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "clipsync.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "clipsync")
	}
	return "~/.cache/clipsync"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the config as TOML, used by `clipsync config show`.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
