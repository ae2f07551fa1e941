package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/studyquest/progress-engine/internal/domain"
	"github.com/studyquest/progress-engine/internal/engine"
	"github.com/studyquest/progress-engine/internal/store"
)

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// progressResponse is the /api/v1/progress body.
type progressResponse struct {
	Snapshot     *domain.Snapshot `json:"snapshot,omitempty"`
	QueuePending int              `json:"queuePending"`
}

// queueEntryView is one pending event, with a display name for tooling.
type queueEntryView struct {
	EventID     string    `json:"eventId"`
	EventType   string    `json:"eventType"`
	DisplayName string    `json:"displayName"`
	Value       int       `json:"value"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"lastError,omitempty"`
}

type queueResponse struct {
	Pending int              `json:"pending"`
	Entries []queueEntryView `json:"entries"`
}

var titleCaser = cases.Title(language.English)

// eventDisplayName turns an event type into a human-readable label,
// e.g. quiz_completed -> "Quiz Completed".
func eventDisplayName(t domain.EventType) string {
	return titleCaser.String(strings.ReplaceAll(string(t), "_", " "))
}

func handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// handleReadyz reports ready only when the durable store answers.
func handleReadyz(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if _, _, err := st.Get(ctx, engine.CacheBucket, "readyz"); err != nil {
			slog.Error("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "unavailable",
				Message: "local store unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

func handleGetProgress(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := progressResponse{}
		if snap, ok := eng.Snapshot(); ok {
			resp.Snapshot = &snap
		}
		if n, err := eng.QueueLen(r.Context()); err == nil {
			resp.QueuePending = n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetQueue(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := eng.PendingEvents(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, HealthResponse{
				Status:  "error",
				Message: err.Error(),
			})
			return
		}

		resp := queueResponse{
			Pending: len(entries),
			Entries: make([]queueEntryView, 0, len(entries)),
		}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, queueEntryView{
				EventID:     entry.Event.ID,
				EventType:   string(entry.Event.Type),
				DisplayName: eventDisplayName(entry.Event.Type),
				Value:       entry.Event.Value,
				EnqueuedAt:  entry.EnqueuedAt,
				Attempts:    entry.Attempts,
				LastError:   entry.LastError,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleSync triggers a manual replay pass and returns the report.
func handleSync(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := eng.SyncPending(r.Context())
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
