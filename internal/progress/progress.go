// Package progress derives level, XP-to-next-level and streak invariants
// from a normalized summary. Everything here is a pure function: identical
// input always yields identical output.
package progress

import "github.com/studyquest/progress-engine/internal/domain"

// XPPerLevel is the fixed width of one level.
const XPPerLevel = 250

// Level derives the level tier from total XP: floor(xp/250) + 1.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/XPPerLevel + 1
}

// XPToNext derives the XP remaining until the next level. A stale read can
// make the subtraction non-positive; that case floors to a full level width
// rather than reporting an impossible remainder.
func XPToNext(totalXP int) int {
	remaining := Level(totalXP)*XPPerLevel - totalXP
	if remaining <= 0 {
		return XPPerLevel
	}
	return remaining
}

// Aggregate fills the derived fields of a normalized summary using the fixed
// formula, ignoring whatever level arithmetic the remote may have sent.
func Aggregate(s domain.ProgressSummary) domain.ProgressSummary {
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.CurrentLevel = Level(s.TotalXP)
	s.XPToNextLevel = XPToNext(s.TotalXP)
	if s.CompletionPercentage < 0 {
		s.CompletionPercentage = 0
	} else if s.CompletionPercentage > 100 {
		s.CompletionPercentage = 100
	}
	return s
}

// ReconcileStreak enforces the streak invariants the remote is supposed to
// uphold but occasionally does not: longest >= current, counts >= 0.
func ReconcileStreak(r domain.StreakRecord) domain.StreakRecord {
	if r.CurrentStreak < 0 {
		r.CurrentStreak = 0
	}
	if r.LongestStreak < r.CurrentStreak {
		r.LongestStreak = r.CurrentStreak
	}
	if r.FreezesAvailable < 0 {
		r.FreezesAvailable = 0
	}
	return r
}
