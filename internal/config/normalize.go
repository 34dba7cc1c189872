package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCache()
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CLIPSYNC_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	c.Cache.Namespace = strings.TrimSpace(c.Cache.Namespace)
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = defaultCacheNamespace
	}
	if c.Cache.TTLHours == 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
}

func (c *Config) normalizeEngine() {
	if c.Engine.MaxInputMB == 0 {
		c.Engine.MaxInputMB = defaultMaxInputMB
	}
	if c.Engine.MinClipSeconds == 0 {
		c.Engine.MinClipSeconds = defaultMinClipSeconds
	}
	if c.Engine.MaxClipSeconds == 0 {
		c.Engine.MaxClipSeconds = defaultMaxClipSeconds
	}
	if c.Engine.TargetClipSeconds == 0 {
		c.Engine.TargetClipSeconds = defaultTargetClipSeconds
	}
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("CLIPSYNC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
