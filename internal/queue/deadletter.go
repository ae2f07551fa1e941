package queue

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/studyquest/progress-engine/internal/domain"
)

// DeadLetterSchemaVersion is the current version of the dead-letter log format
// Increment this when changing the DeadLetterEntry structure
const DeadLetterSchemaVersion = "1.0"

// DeadLetterFilePermissions for the JSONL log
const DeadLetterFilePermissions = 0644

// DeadLetterWriter appends authoritatively rejected events to a JSONL file.
// A rejected event can never be accepted by retrying, so it leaves the queue
// here instead of blocking the head forever.
type DeadLetterWriter struct {
	file *os.File
	mu   sync.Mutex
}

// DeadLetterEntry represents an event the remote service refused
type DeadLetterEntry struct {
	SchemaVersion string                  `json:"schema_version"` // Format version for future migrations
	Timestamp     time.Time               `json:"timestamp"`
	Event         domain.AchievementEvent `json:"event"`
	Attempts      int                     `json:"attempts"`
	LastError     string                  `json:"last_error,omitempty"`
}

// NewDeadLetterWriter creates a new DeadLetterWriter
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, err
	}
	return &DeadLetterWriter{file: f}, nil
}

// Write appends a rejected event to the dead-letter file
func (dlw *DeadLetterWriter) Write(ev domain.AchievementEvent, attempts int, lastError error) error {
	dlw.mu.Lock()
	defer dlw.mu.Unlock()

	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     time.Now().UTC(),
		Event:         ev,
		Attempts:      attempts,
	}
	if lastError != nil {
		entry.LastError = lastError.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = dlw.file.Write(append(data, '\n'))
	return err
}

// Close closes the dead-letter file
func (dlw *DeadLetterWriter) Close() error {
	return dlw.file.Close()
}
