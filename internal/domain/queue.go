package domain

import "time"

// QueueEntry wraps an achievement event with retry bookkeeping while it waits
// in the offline queue. Entries are removed only after confirmed acceptance;
// an ambiguous failure (timeout) always leaves the entry in place for retry.
type QueueEntry struct {
	Event      AchievementEvent `json:"event"`
	EnqueuedAt time.Time        `json:"enqueuedAt"`
	Attempts   int              `json:"attempts"`
	LastError  string           `json:"lastError,omitempty"`
}

// ReplayReport summarizes one replay pass over the offline queue.
type ReplayReport struct {
	Synced       int    `json:"synced"`
	StillPending int    `json:"stillPending"`
	DeadLettered int    `json:"deadLettered"`
	LastError    string `json:"lastError,omitempty"`
}
