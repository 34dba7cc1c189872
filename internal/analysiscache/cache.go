package analysiscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipsync/internal/analysis"
	"clipsync/internal/logging"
)

const (
	// DefaultNamespace prefixes every key when Options.Namespace is empty.
	DefaultNamespace = "audio-analysis"
	// DefaultTTL applies when Options.TTL is zero. Use a negative TTL for
	// entries that never expire.
	DefaultTTL = 24 * time.Hour
)

// Options configure key construction and entry lifetime.
type Options struct {
	Namespace     string
	SchemaVersion int
	TTL           time.Duration
}

func (o Options) normalized() Options {
	o.Namespace = strings.TrimSpace(o.Namespace)
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.SchemaVersion <= 0 {
		o.SchemaVersion = 1
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	return o
}

// Key builds the cache key for audio bytes.
func Key(namespace string, schemaVersion int, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%d:%s", namespace, schemaVersion, hex.EncodeToString(sum[:]))
}

// Cache stores serialized analyses in a Backend. A nil *Cache is a disabled
// cache: Load always misses and Store is a no-op.
type Cache struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New wraps backend with key and TTL handling.
func New(backend Backend, opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		backend: backend,
		opts:    opts.normalized(),
		logger:  logging.NewComponentLogger(logger, "analysiscache"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Key returns the key this cache uses for data.
func (c *Cache) Key(data []byte) string {
	if c == nil {
		return ""
	}
	return Key(c.opts.Namespace, c.opts.SchemaVersion, data)
}

// Options returns the normalized options.
func (c *Cache) Options() Options {
	if c == nil {
		return Options{}.normalized()
	}
	return c.opts
}

// Backend exposes the underlying storage.
func (c *Cache) Backend() Backend {
	if c == nil {
		return nil
	}
	return c.backend
}

// Load returns the cached analysis for data. Misses, expired entries,
// backend errors, and undecodable entries all report ok=false.
func (c *Cache) Load(ctx context.Context, data []byte) (*analysis.AudioAnalysis, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}
	ctx = ensureContext(ctx)
	logger := logging.WithContext(ctx, c.logger)
	key := c.Key(data)

	entry, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "cache lookup failed",
			"cache_lookup_failed",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache directory permissions or run 'clipsync cache clear'"),
			logging.String(logging.FieldImpact, "analysis recomputed"))
		return nil, false
	}
	if !ok {
		c.decision(logger, "miss", "no entry", key)
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.decision(logger, "miss", "entry expired", key)
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}

	var result analysis.AudioAnalysis
	if err := json.Unmarshal(entry.Value, &result); err != nil {
		logging.WarnWithContext(logger, "cache entry undecodable",
			"cache_decode_failed",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "entry removed; it will be rebuilt"),
			logging.String(logging.FieldImpact, "analysis recomputed"))
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}
	c.decision(logger, "hit", "entry valid", key)
	return &result, true
}

// Store writes result under the key for data. It reports whether the write
// succeeded; failures are logged.
func (c *Cache) Store(ctx context.Context, data []byte, result *analysis.AudioAnalysis) bool {
	if c == nil || c.backend == nil || result == nil {
		return false
	}
	ctx = ensureContext(ctx)
	logger := logging.WithContext(ctx, c.logger)
	key := c.Key(data)

	payload, err := json.Marshal(result)
	if err != nil {
		logging.WarnWithContext(logger, "cache entry not encodable",
			"cache_encode_failed",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "result not cached"))
		return false
	}
	now := c.now()
	entry := Entry{Key: key, Value: payload, StoredAt: now}
	if c.opts.TTL > 0 {
		entry.ExpiresAt = now.Add(c.opts.TTL)
	}
	if err := c.backend.Set(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "cache store failed",
			"cache_store_failed",
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache directory permissions"),
			logging.String(logging.FieldImpact, "result not cached"))
		return false
	}
	logger.Debug("cached analysis",
		logging.String("cache_key", key),
		logging.Int("bytes", len(payload)))
	return true
}

// Stats summarizes the backend.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	if c == nil || c.backend == nil {
		return Stats{Backend: "disabled"}, nil
	}
	return c.backend.Stats(ensureContext(ctx), c.now())
}

// Purge removes expired entries.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	if c == nil || c.backend == nil {
		return 0, nil
	}
	return c.backend.Purge(ensureContext(ctx), c.now())
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c == nil || c.backend == nil {
		return 0, nil
	}
	return c.backend.Clear(ensureContext(ctx))
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

func (c *Cache) decision(logger *slog.Logger, result, reason, key string) {
	attrs := append(logging.DecisionAttrs("cache_lookup", result, reason), logging.String("cache_key", key))
	logger.Debug("cache decision", logging.Args(attrs...)...)
}
