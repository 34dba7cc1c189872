package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("cache.backend: unsupported value %q (use sqlite, file, or memory)", c.Cache.Backend)
	}
	if c.Cache.SchemaVersion < 0 {
		return errors.New("cache.schema_version must be >= 0")
	}
	if c.Cache.TTLHours < 0 {
		return errors.New("cache.ttl_hours must not be negative")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if err := ensurePositiveMap(map[string]int{
		"engine.max_input_mb": c.Engine.MaxInputMB,
	}); err != nil {
		return err
	}
	if c.Engine.MaxClips < 0 {
		return errors.New("engine.max_clips must be >= 0 (0 disables the ceiling)")
	}
	if c.Engine.Workers < 0 {
		return errors.New("engine.workers must be >= 0 (0 uses one worker per CPU)")
	}
	minClip, maxClip, target := c.Engine.MinClipSeconds, c.Engine.MaxClipSeconds, c.Engine.TargetClipSeconds
	if minClip <= 0 {
		return errors.New("engine.min_clip_seconds must be positive")
	}
	if maxClip <= minClip {
		return errors.New("engine.max_clip_seconds must be greater than engine.min_clip_seconds")
	}
	if target < minClip || target > maxClip {
		return errors.New("engine.target_clip_seconds must lie between engine.min_clip_seconds and engine.max_clip_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
