package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/studyquest/progress-engine/internal/domain"
	"github.com/studyquest/progress-engine/internal/remote"
)

// FakeRemote is a stateful in-memory achievements service for tests. It
// applies events to a running XP total and serves either known payload shape,
// so facade tests exercise the full record -> refresh -> normalize path.
type FakeRemote struct {
	mu sync.Mutex

	// Server-side state the fake derives from applied events.
	TotalXP               int
	TotalPoints           int
	TotalAchievements     int
	CompletedAchievements int
	CurrentStreak         int
	LongestStreak         int
	FreezesAvailable      int

	// Recorded traffic, in call order.
	Events        []domain.AchievementEvent
	StreakUpdates []domain.StreakUpdate
	FreezeCalls   int
	SummaryCalls  int
	StreakCalls   int

	// Behavior knobs.
	Enveloped      bool              // serve the data-envelope shape instead of flat
	FailTransport  bool              // every call fails as a transport error
	RejectTypes    map[string]bool   // event types to reject authoritatively
	NewlyCompleted []string          // echoed on the next accepted event
	applied        map[string]bool   // event IDs already applied (dedupe)
}

// NewFakeRemote creates a fake with no state and no failures.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		RejectTypes: make(map[string]bool),
		applied:     make(map[string]bool),
	}
}

var _ remote.API = (*FakeRemote)(nil)

func (f *FakeRemote) PostEvent(ctx context.Context, ev domain.AchievementEvent) (*remote.EventReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailTransport {
		return nil, fmt.Errorf("%w: fake remote unreachable", domain.ErrTransport)
	}
	if f.RejectTypes[string(ev.Type)] {
		return nil, &remote.RejectionError{StatusCode: 400, Message: "event type disabled"}
	}

	f.Events = append(f.Events, ev)

	// Dedupe on the client-generated event ID, the documented contract.
	if !f.applied[ev.ID] {
		f.applied[ev.ID] = true
		f.TotalXP += metaInt(ev.Metadata, "xpEarned", ev.Value)
	}

	receipt := &remote.EventReceipt{Accepted: true, NewlyCompleted: f.NewlyCompleted}
	f.NewlyCompleted = nil
	return receipt, nil
}

func (f *FakeRemote) GetSummary(ctx context.Context, userID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SummaryCalls++

	if f.FailTransport {
		return nil, fmt.Errorf("%w: fake remote unreachable", domain.ErrTransport)
	}

	if f.Enveloped {
		return mustJSON(map[string]any{
			"data": map[string]any{
				"summary": map[string]any{
					"total_xp":               f.TotalXP,
					"total_points":           f.TotalPoints,
					"total_achievements":     f.TotalAchievements,
					"completed_achievements": f.CompletedAchievements,
				},
			},
		}), nil
	}
	return mustJSON(map[string]any{
		"totalXP":               f.TotalXP,
		"totalPoints":           f.TotalPoints,
		"totalAchievements":     f.TotalAchievements,
		"completedAchievements": f.CompletedAchievements,
	}), nil
}

func (f *FakeRemote) GetStreak(ctx context.Context, userID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StreakCalls++

	if f.FailTransport {
		return nil, fmt.Errorf("%w: fake remote unreachable", domain.ErrTransport)
	}

	if f.Enveloped {
		return mustJSON(map[string]any{
			"data": map[string]any{
				"streakStats": map[string]any{
					"current_streak":   f.CurrentStreak,
					"max_streak":       f.LongestStreak,
					"freeze_available": f.FreezesAvailable,
					"is_active":        f.CurrentStreak > 0,
				},
			},
		}), nil
	}
	return mustJSON(map[string]any{
		"currentStreak":    f.CurrentStreak,
		"longestStreak":    f.LongestStreak,
		"freezesAvailable": f.FreezesAvailable,
		"streakActive":     f.CurrentStreak > 0,
	}), nil
}

func (f *FakeRemote) PostStreak(ctx context.Context, upd domain.StreakUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailTransport {
		return fmt.Errorf("%w: fake remote unreachable", domain.ErrTransport)
	}

	f.StreakUpdates = append(f.StreakUpdates, upd)
	f.CurrentStreak++
	if f.LongestStreak < f.CurrentStreak {
		f.LongestStreak = f.CurrentStreak
	}
	f.TotalXP += upd.XP
	return nil
}

func (f *FakeRemote) PostStreakFreeze(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailTransport {
		return fmt.Errorf("%w: fake remote unreachable", domain.ErrTransport)
	}
	if f.FreezesAvailable <= 0 {
		return &remote.RejectionError{StatusCode: 409, Message: "no freezes available"}
	}

	f.FreezeCalls++
	f.FreezesAvailable--
	return nil
}

// metaInt reads a numeric metadata field. Queued events round-trip through
// JSON, which turns numbers into float64, so both encodings are accepted.
func metaInt(md domain.Metadata, key string, fallback int) int {
	if md == nil {
		return fallback
	}
	switch v := md[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
