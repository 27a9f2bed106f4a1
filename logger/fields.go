package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldSessionID = "session_id"
	FieldUserID    = "user_id"

	// Components
	FieldComponent = "component"
	FieldProvider  = "provider"

	// Operations
	FieldOperation = "operation"
	FieldPath      = "path"
	FieldURL       = "url"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount     = "count"
	FieldBatchSize = "batch_size"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Design comparison
	FieldPlatform = "platform"
	FieldFileKey  = "file_key"
	FieldIdentity = "identity"
	FieldGroups   = "groups"
	FieldFeatures = "features"
	FieldCards    = "cards"
)

type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	sessionIDKey contextKey = "logger_session_id"
	platformKey  contextKey = "logger_platform"
)

// WithRunID adds an analysis run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithSessionID adds a session ID to the context for logging
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithPlatform adds the platform being processed to the context for logging
func WithPlatform(ctx context.Context, platform string) context.Context {
	return context.WithValue(ctx, platformKey, platform)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok && sessionID != "" {
		fields = append(fields, FieldSessionID, sessionID)
	}
	if platform, ok := ctx.Value(platformKey).(string); ok && platform != "" {
		fields = append(fields, FieldPlatform, platform)
	}

	return fields
}

// FromContext returns base (or the global logger when base is nil) with
// fields extracted from ctx attached.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	m := matcher.New(oracle, matcher.Options{
//	    Logger: logger.ComponentLogger("matcher"),
//	})
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
