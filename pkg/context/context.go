package context

import (
	"context"

	"github.com/Ramsey-B/storedb/pkg/tracing"
	"github.com/google/uuid"
)

type ContextKey string

var (
	RunIDKey = ContextKey("X-Run-Id")
	FileKey  = ContextKey("X-File")
)

// NewRunID returns a fresh identifier for one ingestion run.
func NewRunID() string {
	return uuid.NewString()
}

func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func GetRunID(ctx context.Context) string {
	value, ok := ctx.Value(RunIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, FileKey, file)
}

func GetFile(ctx context.Context) string {
	value, ok := ctx.Value(FileKey).(string)
	if !ok {
		return ""
	}
	return value
}

// Fields returns the values carried by ctx as log fields.
func Fields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	if runID := GetRunID(ctx); runID != "" {
		fields["run_id"] = runID
	}
	if file := GetFile(ctx); file != "" {
		fields["file"] = file
	}
	if traceID := tracing.TraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	return fields
}
