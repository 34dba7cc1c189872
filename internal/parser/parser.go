package parser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipsync/internal/analysis"
	"clipsync/internal/analysiscache"
	"clipsync/internal/audio"
	"clipsync/internal/beat"
	"clipsync/internal/clips"
	"clipsync/internal/config"
	"clipsync/internal/dsp"
	"clipsync/internal/logging"
	"clipsync/internal/lyrics"
	"clipsync/internal/mood"
	"clipsync/internal/services"
	"clipsync/internal/structure"
)

const (
	loudnessFrameSize = 2048
	loudnessHop       = 1024
)

// Parser runs the analysis pipeline. It is safe for concurrent use; the cache
// is the only shared state.
type Parser struct {
	cfg      *config.Config
	cache    *analysiscache.Cache
	decoder  *audio.Decoder
	logger   *slog.Logger
	clipOpts clips.Options

	now   func() time.Time
	newID func() string
}

// New constructs a Parser. cache may be nil to disable caching.
func New(cfg *config.Config, cache *analysiscache.Cache, logger *slog.Logger) *Parser {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Parser{
		cfg:   cfg,
		cache: cache,
		decoder: audio.NewDecoder(audio.Options{
			FFmpegFallback: cfg.Engine.FFmpegFallback,
			FFmpegBinary:   cfg.Engine.FFmpegBinary,
			Logger:         logger,
		}),
		logger: logging.NewComponentLogger(logger, "parser"),
		clipOpts: clips.Options{
			MinSeconds:    cfg.Engine.MinClipSeconds,
			MaxSeconds:    cfg.Engine.MaxClipSeconds,
			TargetSeconds: cfg.Engine.TargetClipSeconds,
			MaxClips:      cfg.Engine.MaxClips,
		},
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Parse analyzes req.Audio. Validation failures wrap services.ErrValidation;
// every other problem degrades to a recorded fallback.
func (p *Parser) Parse(ctx context.Context, req Request) (*analysis.AudioAnalysis, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "parser", "start", "context done before analysis", err)
	}

	ref := jobReference(req.JobReference, p.newID)
	ctx = services.WithJobReference(ctx, ref)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, p.newID())
	}
	logger := logging.WithContext(ctx, p.logger)

	if err := validateRequest(req, p.cfg.MaxInputBytes()); err != nil {
		logger.Warn("rejected analysis request",
			logging.String(logging.FieldEventType, "request_rejected"),
			logging.Int("bytes", len(req.Audio)),
			logging.Error(err))
		return nil, err
	}

	useCache := p.cache != nil && req.cacheable()
	if useCache {
		if cached, ok := p.cache.Load(ctx, req.Audio); ok {
			cached.JobReference = ref
			cached.Metadata.CacheHit = true
			logger.Info("analysis served from cache",
				logging.Args(logging.DecisionAttrs("cache", "hit", "content hash matched")...)...)
			return cached, nil
		}
	} else if p.cache != nil {
		logger.Debug("cache bypassed",
			logging.Args(logging.DecisionAttrs("cache", "bypass", "request carries per-call inputs")...)...)
	}

	started := time.Now()
	signal, err := p.decoder.Decode(ctx, req.Audio)
	if err != nil {
		wrapped := services.Wrap(services.ErrValidation, "decode", "decode audio", "unparseable audio container", err)
		logger.Warn("rejected analysis request",
			logging.String(logging.FieldEventType, "decode_rejected"),
			logging.Int("bytes", len(req.Audio)),
			logging.Error(err))
		return nil, wrapped
	}

	result := p.analyze(ctx, signal, req, ref)
	result.Metadata.ProcessingMS = time.Since(started).Milliseconds()

	if err := result.Validate(); err != nil {
		logging.ErrorWithContext(logger, "analysis violates output invariants",
			"invariant_violation",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "report the input file; result returned as computed"))
	}

	if useCache {
		p.cache.Store(ctx, req.Audio, result)
	}

	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.Float64("bpm", result.BPM),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int("beats", len(result.BeatTimestamps)),
		logging.Int("segments", len(result.SongStructure)),
		logging.Int("clips", len(result.ClipBoundaries)),
		logging.String("mood", string(result.Mood.Primary)),
		logging.Any("fallbacks_used", result.Metadata.FallbacksUsed),
		logging.Duration("elapsed", time.Duration(result.Metadata.ProcessingMS)*time.Millisecond))
	return result, nil
}

// analyze runs every stage on a decoded signal.
func (p *Parser) analyze(ctx context.Context, signal audio.Signal, req Request, ref string) *analysis.AudioAnalysis {
	duration := signal.Duration()
	rec := newFallbackRecorder(ctx, p.logger)

	var (
		beats    beat.Result
		spectral dsp.SpectralSummary
		specErr  error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		beats = beat.Track(signal.Samples, signal.SampleRate)
	}()
	go func() {
		defer wg.Done()
		spectral, specErr = dsp.Summarize(signal.Samples, signal.SampleRate)
	}()
	wg.Wait()

	if beats.Fallback {
		rec.record(analysis.StageBeatTracking, "beat tracking fell back to default grid", beats.Reason,
			logging.Float64("bpm", beats.BPM))
	}
	if specErr != nil {
		spectral = dsp.SpectralSummary{}
		rec.record(analysis.StageSpectralFeatures, "spectral features unavailable", specErr.Error())
	}

	breakpoints := structure.SanitizeBreakpoints(req.Breakpoints, duration)
	seg := structure.Segment(structure.Input{
		Samples:     signal.Samples,
		SampleRate:  signal.SampleRate,
		Duration:    duration,
		Beats:       beats.Beats,
		Breakpoints: breakpoints,
	})

	var moodResult mood.Result
	if specErr != nil {
		moodResult = mood.Result{Mood: mood.Fallback(), Fallback: true}
	} else {
		moodResult = mood.Classify(mood.Features{
			Tempo:          beats.BPM,
			Energy:         mood.MeanSegmentEnergy(seg.Segments),
			CentroidHz:     spectral.CentroidHz,
			RolloffHz:      spectral.RolloffHz,
			ChromaVariance: spectral.ChromaVariance,
		})
	}
	if moodResult.Fallback {
		reason := "no mood rule reached minimum confidence"
		if specErr != nil {
			reason = "spectral features unavailable"
		}
		rec.record(analysis.StageMood, "mood classification fell back to default", reason)
	}

	clipResult := clips.Generate(clips.Input{
		Beats:       beats.Beats,
		BPM:         beats.BPM,
		Duration:    duration,
		Segments:    seg.Segments,
		Breakpoints: breakpoints,
	}, p.clipOptions(req.MaxClips))
	if clipResult.Relaxed {
		rec.record(analysis.StageClipMaxRelaxed, "clip ceiling forced clips past maximum length",
			"max_clips too low for track duration",
			logging.Int("clips", len(clipResult.Clips)),
			logging.String(logging.FieldImpact, "some clips are longer than the configured maximum"))
	}

	loudness := dsp.NewRMSEnvelope(signal.Samples, signal.SampleRate, loudnessFrameSize, loudnessHop)
	eighths, sixteenths := beat.Subdivisions(beats.Beats, beats.BPM, duration)
	features := analysis.BeatFeatures{
		Downbeats:        beat.LabelBeats(beats.Beats),
		SegmentIntensity: beat.Intensity(segmentSpans(seg.Segments), beats.Beats, loudness),
		ClipIntensity:    beat.Intensity(clipSpans(clipResult.Clips), beats.Beats, loudness),
		EighthNotes:      eighths,
		SixteenthNotes:   sixteenths,
	}

	words := lyrics.Normalize(req.Words)
	aligned := lyrics.Align(clipResult.Clips, words)
	lyricList := lyrics.Lyrics(words, duration)

	return &analysis.AudioAnalysis{
		JobReference:   ref,
		BPM:            beats.BPM,
		Duration:       duration,
		BeatTimestamps: beats.Beats,
		SongStructure:  seg.Segments,
		Lyrics:         lyricList,
		Mood:           moodResult.Mood,
		ClipBoundaries: aligned,
		Metadata: analysis.Metadata{
			CacheHit:      false,
			FallbacksUsed: rec.stages(),
			Confidence: map[string]float64{
				analysis.StageBeatTracking: beats.Confidence,
				analysis.StageStructure:    seg.Confidence,
				analysis.StageMood:         moodResult.Mood.Confidence,
				analysis.StageLyrics:       lyrics.Confidence(lyricList),
			},
			SchemaVersion: p.schemaVersion(),
			SampleRate:    signal.SampleRate,
			AnalyzedAt:    p.now(),
			Spectral: analysis.Spectral{
				CentroidHz:     spectral.CentroidHz,
				RolloffHz:      spectral.RolloffHz,
				ChromaVariance: spectral.ChromaVariance,
			},
			BeatFeatures: features,
		},
	}
}

func (p *Parser) schemaVersion() int {
	if p.cache != nil {
		return p.cache.Options().SchemaVersion
	}
	return analysiscache.OptionsFromConfig(p.cfg).SchemaVersion
}

func (p *Parser) clipOptions(maxClips int) clips.Options {
	opts := p.clipOpts
	switch {
	case maxClips > 0:
		opts.MaxClips = maxClips
	case maxClips < 0:
		opts.MaxClips = 0
	}
	return opts
}

func segmentSpans(segments []analysis.Segment) []beat.Span {
	spans := make([]beat.Span, len(segments))
	for i, s := range segments {
		spans[i] = beat.Span{Start: s.Start, End: s.End}
	}
	return spans
}

func clipSpans(boundaries []analysis.ClipBoundary) []beat.Span {
	spans := make([]beat.Span, len(boundaries))
	for i, c := range boundaries {
		spans[i] = beat.Span{Start: c.Start, End: c.End}
	}
	return spans
}

// IsValidation reports whether err is a caller contract violation.
func IsValidation(err error) bool {
	return errors.Is(err, services.ErrValidation)
}
