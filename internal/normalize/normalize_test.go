package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSummaryShape(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    Shape
	}{
		{"flat with totalXP", `{"totalXP":500,"totalPoints":20}`, ShapeFlat},
		{"flat with achievements list", `{"achievements":[{"id":1}]}`, ShapeFlat},
		{"enveloped with summary", `{"data":{"summary":{"total_xp":500}}}`, ShapeEnveloped},
		{"enveloped with userAchievements", `{"data":{"userAchievements":[]}}`, ShapeEnveloped},
		{"empty object", `{}`, ShapeUnknown},
		{"unrelated fields", `{"foo":"bar"}`, ShapeUnknown},
		{"invalid json", `{nope`, ShapeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectSummaryShape(json.RawMessage(tc.payload)))
		})
	}
}

func TestSummaryNormalization(t *testing.T) {
	t.Run("equivalent payloads in either shape normalize identically", func(t *testing.T) {
		flat := json.RawMessage(`{
			"totalXP": 2450,
			"totalPoints": 130,
			"totalAchievements": 24,
			"completedAchievements": 9,
			"completionPercentage": 37.5
		}`)
		enveloped := json.RawMessage(`{
			"data": {
				"summary": {
					"total_xp": 2450,
					"total_points": 130,
					"total_achievements": 24,
					"completed_achievements": 9,
					"completion_percentage": 37.5
				}
			}
		}`)

		fromFlat, ok := Summary(flat)
		require.True(t, ok)
		fromEnveloped, ok := Summary(enveloped)
		require.True(t, ok)

		assert.Equal(t, fromFlat, fromEnveloped, "the two shapes carry the same values and must map to the same model")

		// Byte equality, the strongest form of the property
		a, err := json.Marshal(fromFlat)
		require.NoError(t, err)
		b, err := json.Marshal(fromEnveloped)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("flat fields win over nested when both present", func(t *testing.T) {
		mixed := json.RawMessage(`{
			"totalXP": 100,
			"data": {"summary": {"total_xp": 999, "total_points": 7}}
		}`)

		s, ok := Summary(mixed)
		require.True(t, ok)
		assert.Equal(t, 100, s.TotalXP, "flat/camelCase field is preferred")
		assert.Equal(t, 7, s.TotalPoints, "nested field fills the gap when flat is absent")
	})

	t.Run("missing counts default to zero", func(t *testing.T) {
		s, ok := Summary(json.RawMessage(`{"totalXP": 50}`))
		require.True(t, ok)
		assert.Equal(t, 50, s.TotalXP)
		assert.Zero(t, s.TotalPoints)
		assert.Zero(t, s.TotalAchievements)
		assert.Zero(t, s.CompletionPercentage)
	})

	t.Run("achievement counts derived from lists when absent", func(t *testing.T) {
		s, ok := Summary(json.RawMessage(`{"achievements":[{},{},{}]}`))
		require.True(t, ok)
		assert.Equal(t, 3, s.TotalAchievements)

		s, ok = Summary(json.RawMessage(`{"data":{"userAchievements":[{},{}],"completedAchievements":[{}]}}`))
		require.True(t, ok)
		assert.Equal(t, 2, s.TotalAchievements)
		assert.Equal(t, 1, s.CompletedAchievements)
	})

	t.Run("out-of-range values are clamped, not fatal", func(t *testing.T) {
		s, ok := Summary(json.RawMessage(`{"totalXP": -10, "completionPercentage": 140.0}`))
		require.True(t, ok)
		assert.Equal(t, 0, s.TotalXP)
		assert.Equal(t, 100.0, s.CompletionPercentage)

		s, ok = Summary(json.RawMessage(`{"totalXP": 5, "completionPercentage": -3.0}`))
		require.True(t, ok)
		assert.Equal(t, 0.0, s.CompletionPercentage)
	})

	t.Run("unknown shape reports not-ok instead of fabricating", func(t *testing.T) {
		_, ok := Summary(json.RawMessage(`{"unexpected":true}`))
		assert.False(t, ok)

		_, ok = Summary(json.RawMessage(`not even json`))
		assert.False(t, ok)
	})

	t.Run("normalization is idempotent over repeated calls", func(t *testing.T) {
		raw := json.RawMessage(`{"data":{"summary":{"total_xp":777,"completion_percentage":50}}}`)
		first, ok := Summary(raw)
		require.True(t, ok)
		second, ok := Summary(raw)
		require.True(t, ok)
		assert.Equal(t, first, second, "no hidden state")
	})
}

func TestStreakNormalization(t *testing.T) {
	t.Run("equivalent payloads in either shape normalize identically", func(t *testing.T) {
		flat := json.RawMessage(`{
			"currentStreak": 6,
			"longestStreak": 14,
			"lastStudyDate": "2025-03-09T00:00:00Z",
			"freezesAvailable": 2,
			"streakActive": true
		}`)
		enveloped := json.RawMessage(`{
			"data": {
				"streakStats": {
					"current_streak": 6,
					"max_streak": 14,
					"last_activity_date": "2025-03-09T00:00:00Z",
					"freeze_available": 2,
					"is_active": true
				},
				"daysSinceLastActivity": 1
			}
		}`)

		fromFlat, ok := Streak(flat)
		require.True(t, ok)
		fromEnveloped, ok := Streak(enveloped)
		require.True(t, ok)

		assert.Equal(t, fromFlat, fromEnveloped)
		assert.Equal(t, 6, fromFlat.CurrentStreak)
		assert.Equal(t, 14, fromFlat.LongestStreak)
		assert.Equal(t, 2, fromFlat.FreezesAvailable)
		assert.True(t, fromFlat.IsActive)
	})

	t.Run("bare date format is accepted", func(t *testing.T) {
		r, ok := Streak(json.RawMessage(`{"currentStreak":1,"lastStudyDate":"2025-03-09"}`))
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), r.LastActivityDate)
	})

	t.Run("unparseable date degrades to zero time", func(t *testing.T) {
		r, ok := Streak(json.RawMessage(`{"currentStreak":1,"lastStudyDate":"yesterday-ish"}`))
		require.True(t, ok)
		assert.True(t, r.LastActivityDate.IsZero())
	})

	t.Run("missing date is the documented null", func(t *testing.T) {
		r, ok := Streak(json.RawMessage(`{"currentStreak":3}`))
		require.True(t, ok)
		assert.True(t, r.LastActivityDate.IsZero())
	})

	t.Run("negative counts clamp to zero", func(t *testing.T) {
		r, ok := Streak(json.RawMessage(`{"currentStreak":-2,"freezesAvailable":-1}`))
		require.True(t, ok)
		assert.Equal(t, 0, r.CurrentStreak)
		assert.Equal(t, 0, r.FreezesAvailable)
	})

	t.Run("unknown shape reports not-ok", func(t *testing.T) {
		_, ok := Streak(json.RawMessage(`{"data":{}}`))
		assert.False(t, ok)
	})
}
