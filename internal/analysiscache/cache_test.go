package analysiscache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"clipsync/internal/analysis"
	"clipsync/internal/config"
	"clipsync/internal/testsupport"
)

func sampleAnalysis() *analysis.AudioAnalysis {
	return &analysis.AudioAnalysis{
		JobReference:   "job-1",
		BPM:            120,
		Duration:       6,
		BeatTimestamps: []float64{0.5, 1, 1.5},
		ClipBoundaries: []analysis.ClipBoundary{{Start: 0, End: 6, Duration: 6}},
		Mood:           analysis.Mood{Primary: analysis.MoodEnergetic, EnergyLevel: analysis.EnergyMedium, Confidence: 0.5},
	}
}

func newTestCache(t *testing.T, backend Backend, opts Options) *Cache {
	t.Helper()
	c := New(backend, opts, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKeyFormat(t *testing.T) {
	key := Key("audio-analysis", 3, []byte("abc"))
	want := "audio-analysis:3:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if key != want {
		t.Fatalf("Key = %q want %q", key, want)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryBackend(), Options{Namespace: "test", SchemaVersion: 1})
	audio := []byte("audio bytes")

	if _, ok := c.Load(ctx, audio); ok {
		t.Fatal("expected miss on empty cache")
	}
	if !c.Store(ctx, audio, sampleAnalysis()) {
		t.Fatal("Store reported failure")
	}
	got, ok := c.Load(ctx, audio)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.BPM != 120 || len(got.ClipBoundaries) != 1 || got.JobReference != "job-1" {
		t.Fatalf("unexpected cached analysis %+v", got)
	}
	if _, ok := c.Load(ctx, []byte("other bytes")); ok {
		t.Fatal("different bytes must miss")
	}
}

func TestCacheSchemaVersionBumpInvalidates(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	audio := []byte("audio bytes")
	v1 := New(backend, Options{Namespace: "test", SchemaVersion: 1}, nil)
	if !v1.Store(ctx, audio, sampleAnalysis()) {
		t.Fatal("Store failed")
	}
	v2 := New(backend, Options{Namespace: "test", SchemaVersion: 2}, nil)
	if _, ok := v2.Load(ctx, audio); ok {
		t.Fatal("entry from previous schema version must not be served")
	}
	if _, ok := v1.Load(ctx, audio); !ok {
		t.Fatal("old version entry should still be readable under its own key")
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	c := newTestCache(t, backend, Options{TTL: time.Hour})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	audio := []byte("audio")

	if !c.Store(ctx, audio, sampleAnalysis()) {
		t.Fatal("Store failed")
	}
	now = now.Add(59 * time.Minute)
	if _, ok := c.Load(ctx, audio); !ok {
		t.Fatal("entry should be valid before the TTL elapses")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Load(ctx, audio); ok {
		t.Fatal("expired entry must miss")
	}
	if _, ok, _ := backend.Get(ctx, c.Key(audio)); ok {
		t.Fatal("expired entry should be deleted on lookup")
	}
}

func TestCacheNegativeTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryBackend(), Options{TTL: -1})
	now := time.Now()
	c.now = func() time.Time { return now }
	if !c.Store(ctx, []byte("a"), sampleAnalysis()) {
		t.Fatal("Store failed")
	}
	now = now.Add(10000 * time.Hour)
	if _, ok := c.Load(ctx, []byte("a")); !ok {
		t.Fatal("entry without TTL should not expire")
	}
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(backend, Options{}, logger)
	audio := []byte("audio")
	if err := backend.Set(ctx, Entry{Key: c.Key(audio), Value: []byte("not json"), StoredAt: time.Now()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := c.Load(ctx, audio); ok {
		t.Fatal("corrupt entry must miss")
	}
	if !strings.Contains(buf.String(), "cache_decode_failed") {
		t.Fatalf("expected decode warning, got %q", buf.String())
	}
	if _, ok, _ := backend.Get(ctx, c.Key(audio)); ok {
		t.Fatal("corrupt entry should be removed")
	}
}

type failingBackend struct{ MemoryBackend }

var errBackend = errors.New("disk on fire")

func (*failingBackend) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errBackend
}

func (*failingBackend) Set(context.Context, Entry) error { return errBackend }

func TestCacheBackendErrorsAreNonFatal(t *testing.T) {
	ctx := context.Background()
	c := New(&failingBackend{}, Options{}, nil)
	if _, ok := c.Load(ctx, []byte("a")); ok {
		t.Fatal("failing backend must miss")
	}
	if c.Store(ctx, []byte("a"), sampleAnalysis()) {
		t.Fatal("failing backend must report store failure")
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	if _, ok := c.Load(ctx, []byte("a")); ok {
		t.Fatal("nil cache must miss")
	}
	if c.Store(ctx, []byte("a"), sampleAnalysis()) {
		t.Fatal("nil cache must not store")
	}
	if stats, err := c.Stats(ctx); err != nil || stats.Backend != "disabled" {
		t.Fatalf("Stats = %+v, %v", stats, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenFromConfig(t *testing.T) {
	for _, backend := range []string{"sqlite", "file", "memory"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithCacheBackend(backend))
			c, err := Open(cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer c.Close()
			if c.Backend().Name() != backend {
				t.Fatalf("backend = %q want %q", c.Backend().Name(), backend)
			}
			wantNS := cfg.Cache.Namespace + "-" + EngineFingerprint(cfg.Engine)
			if c.Options().Namespace != wantNS || c.Options().TTL != cfg.CacheTTL() {
				t.Fatalf("options not taken from config: %+v", c.Options())
			}
			audio := []byte("payload")
			if !c.Store(context.Background(), audio, sampleAnalysis()) {
				t.Fatal("Store failed")
			}
			if _, ok := c.Load(context.Background(), audio); !ok {
				t.Fatal("expected hit")
			}
		})
	}

	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	c, err := Open(cfg, nil)
	if err != nil || c != nil {
		t.Fatalf("disabled cache Open = %v, %v", c, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithCacheBackend("redis"))
	if _, err := Open(cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestEngineFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := EngineFingerprint(cfg.Engine)
	if len(base) != 8 {
		t.Fatalf("fingerprint %q, want 8 hex chars", base)
	}
	if EngineFingerprint(cfg.Engine) != base {
		t.Fatal("fingerprint is not stable")
	}

	changes := map[string]func(e *config.Engine){
		"min":       func(e *config.Engine) { e.MinClipSeconds = 2.5 },
		"max":       func(e *config.Engine) { e.MaxClipSeconds = 8 },
		"target":    func(e *config.Engine) { e.TargetClipSeconds = 4 },
		"max clips": func(e *config.Engine) { e.MaxClips = 12 },
	}
	for name, change := range changes {
		e := cfg.Engine
		change(&e)
		if EngineFingerprint(e) == base {
			t.Fatalf("changing %s did not change the fingerprint", name)
		}
	}

	e := cfg.Engine
	e.Workers = 16
	e.FFmpegBinary = "/opt/ffmpeg"
	if EngineFingerprint(e) != base {
		t.Fatal("settings that do not shape results changed the fingerprint")
	}

	opts := OptionsFromConfig(cfg)
	if !strings.HasPrefix(opts.Namespace, cfg.Cache.Namespace+"-") {
		t.Fatalf("namespace %q does not keep the configured prefix", opts.Namespace)
	}
	if strings.Contains(opts.Namespace, ":") {
		t.Fatalf("namespace %q must not contain the key separator", opts.Namespace)
	}
}
