package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyquest/progress-engine/internal/domain"
)

func TestLevel(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{1, 1},
		{249, 1},
		{250, 2},
		{499, 2},
		{500, 3},
		{999, 4},
		{2450, 10},
		{2510, 11},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Level(tc.xp), "Level(%d)", tc.xp)
	}

	t.Run("negative XP treated as zero", func(t *testing.T) {
		assert.Equal(t, 1, Level(-50))
	})
}

func TestXPToNext(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 250},
		{100, 150},
		{249, 1},
		{250, 250}, // exactly on a boundary: a full level remains
		{400, 100},
		{2450, 50},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, XPToNext(tc.xp), "XPToNext(%d)", tc.xp)
	}

	t.Run("always at least 1", func(t *testing.T) {
		for xp := 0; xp <= 1000; xp++ {
			assert.GreaterOrEqual(t, XPToNext(xp), 1, "XPToNext(%d)", xp)
		}
	})
}

func TestAggregate(t *testing.T) {
	t.Run("fills derived fields from total XP", func(t *testing.T) {
		s := Aggregate(domain.ProgressSummary{TotalXP: 2450})
		assert.Equal(t, 10, s.CurrentLevel)
		assert.Equal(t, 50, s.XPToNextLevel)
	})

	t.Run("overrides upstream level arithmetic", func(t *testing.T) {
		s := Aggregate(domain.ProgressSummary{
			TotalXP:       600,
			CurrentLevel:  99,
			XPToNextLevel: -7,
		})
		assert.Equal(t, 3, s.CurrentLevel)
		assert.Equal(t, 150, s.XPToNextLevel)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		in := domain.ProgressSummary{TotalXP: 777, CompletionPercentage: 42}
		assert.Equal(t, Aggregate(in), Aggregate(in))
	})

	t.Run("clamps completion percentage", func(t *testing.T) {
		assert.Equal(t, 100.0, Aggregate(domain.ProgressSummary{CompletionPercentage: 250}).CompletionPercentage)
		assert.Equal(t, 0.0, Aggregate(domain.ProgressSummary{CompletionPercentage: -1}).CompletionPercentage)
	})
}

func TestReconcileStreak(t *testing.T) {
	t.Run("longest raised to current when remote reports otherwise", func(t *testing.T) {
		r := ReconcileStreak(domain.StreakRecord{CurrentStreak: 9, LongestStreak: 4})
		assert.Equal(t, 9, r.CurrentStreak)
		assert.Equal(t, 9, r.LongestStreak, "invariant longestStreak >= currentStreak must be reconciled, not copied")
	})

	t.Run("consistent record passes through unchanged", func(t *testing.T) {
		in := domain.StreakRecord{CurrentStreak: 3, LongestStreak: 10, FreezesAvailable: 1, IsActive: true}
		assert.Equal(t, in, ReconcileStreak(in))
	})

	t.Run("negative values floored", func(t *testing.T) {
		r := ReconcileStreak(domain.StreakRecord{CurrentStreak: -1, LongestStreak: -5, FreezesAvailable: -2})
		assert.Equal(t, 0, r.CurrentStreak)
		assert.Equal(t, 0, r.LongestStreak)
		assert.Equal(t, 0, r.FreezesAvailable)
	})
}
