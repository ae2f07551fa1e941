package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type ctxKey string

const syncIDKey ctxKey = "syncID"

// Init installs a process-wide slog default built from config.
func Init(config Config) {
	InitWithWriter(config, os.Stdout)
}

// InitWithWriter installs a slog default writing to w. Split out for tests.
func InitWithWriter(config Config, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level:     config.LogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.IsJSON() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	handler = handler.WithAttrs(config.BaseAttributes())
	slog.SetDefault(slog.New(handler))
}

// GenerateSyncID creates a new UUID for tracing one sync operation
// (a record, refresh or replay pass) through the log stream.
func GenerateSyncID() string {
	return uuid.NewString()
}

// WithSyncID returns a new context carrying the sync operation ID.
func WithSyncID(ctx context.Context, syncID string) context.Context {
	return context.WithValue(ctx, syncIDKey, syncID)
}

// SyncIDFromContext extracts the sync operation ID from the context, if present.
func SyncIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(syncIDKey)
	if v == nil {
		return "", false
	}
	if id, ok := v.(string); ok {
		return id, true
	}
	return "", false
}

// FromContext returns a logger that includes the sync_id attribute when present.
func FromContext(ctx context.Context) *slog.Logger {
	if id, ok := SyncIDFromContext(ctx); ok {
		return slog.Default().With("sync_id", id)
	}
	return slog.Default()
}
