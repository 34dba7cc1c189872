package parser

import (
	"context"
	"log/slog"

	"clipsync/internal/logging"
	"clipsync/internal/services"
)

// fallbackRecorder collects stage fallbacks in the order they happen.
type fallbackRecorder struct {
	ctx    context.Context
	logger *slog.Logger
	used   []string
}

func newFallbackRecorder(ctx context.Context, logger *slog.Logger) *fallbackRecorder {
	return &fallbackRecorder{ctx: ctx, logger: logger, used: []string{}}
}

func (r *fallbackRecorder) record(stage, msg, reason string, attrs ...logging.Attr) {
	for _, name := range r.used {
		if name == stage {
			return
		}
	}
	r.used = append(r.used, stage)
	logger := logging.WithContext(services.WithStage(r.ctx, stage), r.logger)
	attrs = append(attrs, logging.String("reason", reason))
	logging.WarnWithContext(logger, msg, "stage_fallback", attrs...)
}

func (r *fallbackRecorder) stages() []string {
	return append([]string{}, r.used...)
}
