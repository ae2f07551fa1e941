package engine

// XPPerCorrectAnswer is the optimistic XP awarded per correct quiz answer.
// Provisional until the next successful refresh overwrites it.
const XPPerCorrectAnswer = 10

// CacheBucket is the store namespace for offline defaults (last known
// snapshot per user).
const CacheBucket = "offline_defaults"

// SnapshotCacheSize bounds the in-memory per-user snapshot cache.
const SnapshotCacheSize = 16

// Event source tags forwarded in metadata, never interpreted here.
const (
	SourceQuiz   = "quiz"
	SourceStreak = "streak"
)
