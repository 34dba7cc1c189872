package config

const (
	// BackendSQLite stores cache entries in a single SQLite database.
	BackendSQLite = "sqlite"
	// BackendFile stores one JSON document per cache key.
	BackendFile = "file"
	// BackendMemory keeps entries in process memory only.
	BackendMemory = "memory"
)

const (
	defaultLogDir            = "~/.local/share/clipsync/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultCacheBackend      = BackendSQLite
	defaultCacheNamespace    = "audio-analysis"
	defaultCacheSchema       = 1
	defaultCacheTTLHours     = 24
	defaultMaxInputMB        = 100
	defaultMinClipSeconds    = 3.0
	defaultMaxClipSeconds    = 7.0
	defaultTargetClipSeconds = 5.0
	defaultFFmpegBinary      = "ffmpeg"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Cache: Cache{
			Enabled:       true,
			Backend:       defaultCacheBackend,
			Namespace:     defaultCacheNamespace,
			SchemaVersion: defaultCacheSchema,
			TTLHours:      defaultCacheTTLHours,
		},
		Engine: Engine{
			MaxInputMB:        defaultMaxInputMB,
			MinClipSeconds:    defaultMinClipSeconds,
			MaxClipSeconds:    defaultMaxClipSeconds,
			TargetClipSeconds: defaultTargetClipSeconds,
			FFmpegFallback:    true,
			FFmpegBinary:      defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
