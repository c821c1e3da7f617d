package services

import "context"

type contextKey string

const (
	jobIDKey     contextKey = "job_id"
	seriesIDKey  contextKey = "series_id"
	providerKey  contextKey = "provider"
	requestIDKey contextKey = "request_id"
)

// WithJobID annotates context with the metadata job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the metadata job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSeriesID annotates context with the local series identifier.
func WithSeriesID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, seriesIDKey, id)
}

// SeriesIDFromContext returns the local series identifier if present.
func SeriesIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(seriesIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithProvider annotates context with the provider currently being queried.
func WithProvider(ctx context.Context, provider string) context.Context {
	if provider == "" {
		return ctx
	}
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFromContext returns the provider name if present.
func ProviderFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(providerKey).(string); ok && v != "" {
		return v, true
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
