package services

import "context"

type contextKey string

const (
	jobReferenceKey contextKey = "job_reference"
	stageKey        contextKey = "stage"
	requestIDKey    contextKey = "request_id"
)

// WithJobReference annotates context with the caller-owned job reference.
func WithJobReference(ctx context.Context, ref string) context.Context {
	if ref == "" {
		return ctx
	}
	return context.WithValue(ctx, jobReferenceKey, ref)
}

// JobReferenceFromContext extracts the job reference if present.
func JobReferenceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobReferenceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the analysis stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
