package domain

import "time"

// ProgressSummary is the normalized view of a user's overall progress.
// It is derived from the remote authoritative summary, never stored
// authoritatively on the client.
type ProgressSummary struct {
	TotalXP               int     `json:"totalXP"`
	CurrentLevel          int     `json:"currentLevel"`
	XPToNextLevel         int     `json:"xpToNextLevel"`
	TotalPoints           int     `json:"totalPoints"`
	TotalAchievements     int     `json:"totalAchievements"`
	CompletedAchievements int     `json:"completedAchievements"`
	CompletionPercentage  float64 `json:"completionPercentage"`
}

// StreakRecord is the normalized view of a user's study streak.
type StreakRecord struct {
	CurrentStreak    int       `json:"currentStreak"`
	LongestStreak    int       `json:"longestStreak"`
	LastActivityDate time.Time `json:"lastActivityDate"`
	FreezesAvailable int       `json:"freezesAvailable"`
	IsActive         bool      `json:"isActive"`
}

// Snapshot is the read-only state published to subscribers. The UI layer only
// ever sees copies of this; it never touches queue or event state directly.
type Snapshot struct {
	Summary   ProgressSummary `json:"summary"`
	Streak    StreakRecord    `json:"streak"`
	FetchedAt time.Time       `json:"fetchedAt"`
}
