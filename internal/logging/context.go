package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one analyze invocation across all of its videos.
	FieldRunID = "run_id"
	// FieldShop is the shop a video was recorded in.
	FieldShop = "shop"
	// FieldVideo is the video name a label directory belongs to.
	FieldVideo = "video"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	runIDKey contextKey = iota
	shopKey
	videoKey
)

// WithRunID tags ctx with the analyze run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withValue(ctx, runIDKey, runID)
}

// WithShop tags ctx with the shop name.
func WithShop(ctx context.Context, shop string) context.Context {
	return withValue(ctx, shopKey, shop)
}

// WithVideo tags ctx with the video name.
func WithVideo(ctx context.Context, video string) context.Context {
	return withValue(ctx, videoKey, video)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	for _, entry := range []struct {
		key   contextKey
		field string
	}{
		{runIDKey, FieldRunID},
		{shopKey, FieldShop},
		{videoKey, FieldVideo},
	} {
		if value, ok := ctx.Value(entry.key).(string); ok && value != "" {
			fields = append(fields, slog.String(entry.field, value))
		}
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
