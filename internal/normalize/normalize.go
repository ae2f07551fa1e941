// Package normalize maps the two known remote payload shapes into the one
// internal model. The shapes are a documented contract, not implicit
// behavior: a legacy flat shape with camelCase fields directly on the
// payload, and a nested shape with snake_case fields under a "data"
// envelope. Field resolution prefers the flat field, then the nested one,
// then a documented default (0 for counts, zero time for dates).
package normalize

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/studyquest/progress-engine/internal/domain"
)

// Shape tags which payload variant was detected.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeFlat
	ShapeEnveloped
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeEnveloped:
		return "enveloped"
	}
	return "unknown"
}

// flatSummaryPayload is the legacy flat summary shape.
type flatSummaryPayload struct {
	TotalXP               *int              `json:"totalXP"`
	TotalPoints           *int              `json:"totalPoints"`
	TotalAchievements     *int              `json:"totalAchievements"`
	CompletedAchievements *int              `json:"completedAchievements"`
	CompletionPercentage  *float64          `json:"completionPercentage"`
	Achievements          []json.RawMessage `json:"achievements"`
}

// envelopedSummaryPayload is the current enveloped summary shape.
type envelopedSummaryPayload struct {
	Data *struct {
		Summary *struct {
			TotalXP               *int     `json:"total_xp"`
			TotalPoints           *int     `json:"total_points"`
			TotalAchievements     *int     `json:"total_achievements"`
			CompletedAchievements *int     `json:"completed_achievements"`
			CompletionPercentage  *float64 `json:"completion_percentage"`
		} `json:"summary"`
		UserAchievements      []json.RawMessage `json:"userAchievements"`
		CompletedAchievements []json.RawMessage `json:"completedAchievements"`
	} `json:"data"`
}

// flatStreakPayload is the legacy flat streak shape.
type flatStreakPayload struct {
	CurrentStreak    *int    `json:"currentStreak"`
	LongestStreak    *int    `json:"longestStreak"`
	LastStudyDate    *string `json:"lastStudyDate"`
	FreezesAvailable *int    `json:"freezesAvailable"`
	StreakActive     *bool   `json:"streakActive"`
}

// envelopedStreakPayload is the current enveloped streak shape.
type envelopedStreakPayload struct {
	Data *struct {
		StreakStats *struct {
			CurrentStreak    *int    `json:"current_streak"`
			MaxStreak        *int    `json:"max_streak"`
			LastActivityDate *string `json:"last_activity_date"`
			FreezeAvailable  *int    `json:"freeze_available"`
			IsActive         *bool   `json:"is_active"`
		} `json:"streakStats"`
	} `json:"data"`
}

// DetectSummaryShape reports which summary variant the payload is.
func DetectSummaryShape(raw json.RawMessage) Shape {
	var env envelopedSummaryPayload
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil && (env.Data.Summary != nil || env.Data.UserAchievements != nil) {
		return ShapeEnveloped
	}
	var flat flatSummaryPayload
	if err := json.Unmarshal(raw, &flat); err == nil &&
		(flat.TotalXP != nil || flat.Achievements != nil || flat.TotalPoints != nil || flat.CompletionPercentage != nil) {
		return ShapeFlat
	}
	return ShapeUnknown
}

// DetectStreakShape reports which streak variant the payload is.
func DetectStreakShape(raw json.RawMessage) Shape {
	var env envelopedStreakPayload
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil && env.Data.StreakStats != nil {
		return ShapeEnveloped
	}
	var flat flatStreakPayload
	if err := json.Unmarshal(raw, &flat); err == nil &&
		(flat.CurrentStreak != nil || flat.LongestStreak != nil || flat.StreakActive != nil) {
		return ShapeFlat
	}
	return ShapeUnknown
}

// Summary normalizes a raw summary payload. ok is false only when neither
// known shape matches at all; partial payloads normalize with defaults.
// Level fields are left for the aggregator - the level formula is fixed
// client-side and must not trust upstream arithmetic.
func Summary(raw json.RawMessage) (domain.ProgressSummary, bool) {
	shape := DetectSummaryShape(raw)
	if shape == ShapeUnknown {
		return domain.ProgressSummary{}, false
	}

	var flat flatSummaryPayload
	var env envelopedSummaryPayload
	// Both decodes are best-effort; the detected shape guarantees one of
	// them carries data, and resolution is flat-first either way.
	_ = json.Unmarshal(raw, &flat)
	_ = json.Unmarshal(raw, &env)

	var nested *struct {
		TotalXP               *int     `json:"total_xp"`
		TotalPoints           *int     `json:"total_points"`
		TotalAchievements     *int     `json:"total_achievements"`
		CompletedAchievements *int     `json:"completed_achievements"`
		CompletionPercentage  *float64 `json:"completion_percentage"`
	}
	if env.Data != nil {
		nested = env.Data.Summary
	}

	s := domain.ProgressSummary{}
	if nested != nil {
		s.TotalXP = resolveInt(flat.TotalXP, nested.TotalXP)
		s.TotalPoints = resolveInt(flat.TotalPoints, nested.TotalPoints)
		s.TotalAchievements = resolveInt(flat.TotalAchievements, nested.TotalAchievements)
		s.CompletedAchievements = resolveInt(flat.CompletedAchievements, nested.CompletedAchievements)
		s.CompletionPercentage = resolveFloat(flat.CompletionPercentage, nested.CompletionPercentage)
	} else {
		s.TotalXP = resolveInt(flat.TotalXP, nil)
		s.TotalPoints = resolveInt(flat.TotalPoints, nil)
		s.TotalAchievements = resolveInt(flat.TotalAchievements, nil)
		s.CompletedAchievements = resolveInt(flat.CompletedAchievements, nil)
		s.CompletionPercentage = resolveFloat(flat.CompletionPercentage, nil)
	}

	// Counts may be absent but derivable from the achievement lists.
	if s.TotalAchievements == 0 {
		if flat.Achievements != nil {
			s.TotalAchievements = len(flat.Achievements)
		} else if env.Data != nil && env.Data.UserAchievements != nil {
			s.TotalAchievements = len(env.Data.UserAchievements)
		}
	}
	if s.CompletedAchievements == 0 && env.Data != nil && env.Data.CompletedAchievements != nil {
		s.CompletedAchievements = len(env.Data.CompletedAchievements)
	}

	s.TotalXP = clampNonNegative("totalXP", s.TotalXP)
	s.TotalPoints = clampNonNegative("totalPoints", s.TotalPoints)
	s.TotalAchievements = clampNonNegative("totalAchievements", s.TotalAchievements)
	s.CompletedAchievements = clampNonNegative("completedAchievements", s.CompletedAchievements)
	s.CompletionPercentage = clampPercentage(s.CompletionPercentage)

	return s, true
}

// Streak normalizes a raw streak payload. Reconciliation of the
// longest-vs-current invariant happens in the aggregator.
func Streak(raw json.RawMessage) (domain.StreakRecord, bool) {
	shape := DetectStreakShape(raw)
	if shape == ShapeUnknown {
		return domain.StreakRecord{}, false
	}

	var flat flatStreakPayload
	var env envelopedStreakPayload
	_ = json.Unmarshal(raw, &flat)
	_ = json.Unmarshal(raw, &env)

	var nested *struct {
		CurrentStreak    *int    `json:"current_streak"`
		MaxStreak        *int    `json:"max_streak"`
		LastActivityDate *string `json:"last_activity_date"`
		FreezeAvailable  *int    `json:"freeze_available"`
		IsActive         *bool   `json:"is_active"`
	}
	if env.Data != nil {
		nested = env.Data.StreakStats
	}

	r := domain.StreakRecord{}
	if nested != nil {
		r.CurrentStreak = resolveInt(flat.CurrentStreak, nested.CurrentStreak)
		r.LongestStreak = resolveInt(flat.LongestStreak, nested.MaxStreak)
		r.FreezesAvailable = resolveInt(flat.FreezesAvailable, nested.FreezeAvailable)
		r.IsActive = resolveBool(flat.StreakActive, nested.IsActive)
		r.LastActivityDate = resolveDate(flat.LastStudyDate, nested.LastActivityDate)
	} else {
		r.CurrentStreak = resolveInt(flat.CurrentStreak, nil)
		r.LongestStreak = resolveInt(flat.LongestStreak, nil)
		r.FreezesAvailable = resolveInt(flat.FreezesAvailable, nil)
		r.IsActive = resolveBool(flat.StreakActive, nil)
		r.LastActivityDate = resolveDate(flat.LastStudyDate, nil)
	}

	r.CurrentStreak = clampNonNegative("currentStreak", r.CurrentStreak)
	r.LongestStreak = clampNonNegative("longestStreak", r.LongestStreak)
	r.FreezesAvailable = clampNonNegative("freezesAvailable", r.FreezesAvailable)

	return r, true
}

func resolveInt(flat, nested *int) int {
	if flat != nil {
		return *flat
	}
	if nested != nil {
		return *nested
	}
	return 0
}

func resolveFloat(flat, nested *float64) float64 {
	if flat != nil {
		return *flat
	}
	if nested != nil {
		return *nested
	}
	return 0
}

func resolveBool(flat, nested *bool) bool {
	if flat != nil {
		return *flat
	}
	if nested != nil {
		return *nested
	}
	return false
}

// resolveDate parses the first present date string. Dates arrive as RFC3339
// or bare YYYY-MM-DD depending on service version; unparseable or absent
// dates normalize to the zero time, the documented null.
func resolveDate(flat, nested *string) time.Time {
	var raw string
	if flat != nil {
		raw = *flat
	} else if nested != nil {
		raw = *nested
	}
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC()
	}
	slog.Warn("unparseable date in remote payload", "value", raw)
	return time.Time{}
}

// clampNonNegative floors a count at zero. An out-of-range upstream value is
// a data-quality signal, not a crash.
func clampNonNegative(field string, v int) int {
	if v < 0 {
		slog.Warn("negative count in remote payload", "field", field, "value", v)
		return 0
	}
	return v
}

func clampPercentage(v float64) float64 {
	if v < 0 {
		slog.Warn("completion percentage out of range", "value", v)
		return 0
	}
	if v > 100 {
		slog.Warn("completion percentage out of range", "value", v)
		return 100
	}
	return v
}
