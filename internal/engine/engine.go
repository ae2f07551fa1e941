// Package engine composes the recorder, queue, sync client, normalizer and
// aggregator into the facade the UI layer depends on. Expected failures
// (offline, rejected payload) come back as result values; only programmer
// errors (unknown event type, invalid input) are error-shaped from the start.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/studyquest/progress-engine/internal/connectivity"
	"github.com/studyquest/progress-engine/internal/domain"
	"github.com/studyquest/progress-engine/internal/logger"
	"github.com/studyquest/progress-engine/internal/metrics"
	"github.com/studyquest/progress-engine/internal/normalize"
	"github.com/studyquest/progress-engine/internal/progress"
	"github.com/studyquest/progress-engine/internal/queue"
	"github.com/studyquest/progress-engine/internal/remote"
	"github.com/studyquest/progress-engine/internal/store"
)

// QuizResult is the facade input for a finished quiz.
type QuizResult struct {
	CorrectAnswers   int    `json:"correctAnswers" validate:"gte=0"`
	TotalQuestions   int    `json:"totalQuestions" validate:"gt=0,gtefield=CorrectAnswers"`
	Subject          string `json:"subject,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	QuizID           string `json:"quizId,omitempty"`
	TimeSpentSeconds int    `json:"timeSpentSeconds,omitempty" validate:"gte=0"`
}

// Engine is one constructed instance of the progress engine, scoped to one
// user. Consumers get it injected; there is no package-level singleton.
type Engine struct {
	userID  string
	api     remote.API
	store   store.Store
	queue   *queue.Manager
	monitor Monitor
	dlw     *queue.DeadLetterWriter

	validate *validator.Validate

	// snapshots holds the last published snapshot per user ID. The engine
	// writes one user; the diagnostics surface may read several.
	snapshots *lru.Cache[string, domain.Snapshot]

	mu          sync.Mutex
	nextSubID   int
	subscribers map[int]func(domain.Snapshot)
	closed      bool

	unsubscribe func()
}

// Monitor is the slice of the connectivity monitor the engine consumes.
// An interface so tests can drive transitions without the probe machinery.
type Monitor interface {
	IsOnline() bool
	Subscribe(h connectivity.Handler) func()
}

// New constructs an engine for userID. The queue manager is built here so
// that replay always delivers through the same sync client as direct sends.
// dlw may be nil to disable dead-lettering.
func New(ctx context.Context, userID string, api remote.API, st store.Store, mon Monitor, dlw *queue.DeadLetterWriter) (*Engine, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID required", domain.ErrInvalidInput)
	}
	if api == nil || st == nil {
		return nil, fmt.Errorf("%w: remote client and store required", domain.ErrNotInitialized)
	}

	q, err := queue.NewManager(ctx, st, apiSender{api: api}, dlw)
	if err != nil {
		return nil, fmt.Errorf("init offline queue: %w", err)
	}

	snapshots, err := lru.New[string, domain.Snapshot](SnapshotCacheSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		userID:      userID,
		api:         api,
		store:       st,
		queue:       q,
		dlw:         dlw,
		validate:    validator.New(),
		snapshots:   snapshots,
		subscribers: make(map[int]func(domain.Snapshot)),
	}

	e.loadOfflineDefaults(ctx)

	if mon != nil {
		e.monitor = mon
		// Exactly one replay per Offline->Online transition. Synchronous:
		// the facade is cooperative, not parallel.
		e.unsubscribe = mon.Subscribe(func(online bool) {
			if !online {
				return
			}
			syncCtx := logger.WithSyncID(context.Background(), logger.GenerateSyncID())
			e.SyncPending(syncCtx)
		})
	}

	return e, nil
}

// apiSender adapts the sync client to the queue's Sender. Replay drops the
// unlock echo; the refresh after a successful pass fetches it anyway.
type apiSender struct {
	api remote.API
}

func (s apiSender) Send(ctx context.Context, ev domain.AchievementEvent) error {
	_, err := s.api.PostEvent(ctx, ev)
	return err
}

// Close detaches the engine from the connectivity monitor and closes the
// dead-letter file. The store is owned by the caller and stays open.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if e.dlw != nil {
		return e.dlw.Close()
	}
	return nil
}

// Record turns one learning occurrence into an achievement event and delivers
// it. Exactly one of: remote ledger or local queue, never both, never neither
// (except the documented store-down-and-offline loss case, which is logged
// and counted).
func (e *Engine) Record(ctx context.Context, t domain.EventType, value int, md domain.Metadata) domain.RecordResult {
	if err := e.ready(); err != nil {
		return domain.RecordResult{Err: err}
	}
	if !t.Valid() {
		return domain.RecordResult{Err: fmt.Errorf("%w: %q", domain.ErrUnknownEventType, t)}
	}

	ctx = e.ensureSyncID(ctx)
	ev := domain.NewEvent(t, value, md)
	return e.deliver(ctx, ev)
}

// deliver tries the direct send when the monitor says online, otherwise the
// queue, falling through per the error taxonomy. A successful direct send
// triggers a refresh so the optimistic state reconciles immediately.
func (e *Engine) deliver(ctx context.Context, ev domain.AchievementEvent) domain.RecordResult {
	log := logger.FromContext(ctx)

	if e.online() {
		receipt, err := e.api.PostEvent(ctx, ev)
		switch {
		case err == nil:
			ev.Synced = true
			metrics.EventsRecorded.WithLabelValues(string(ev.Type), metrics.DeliveryDirect).Inc()
			res := domain.RecordResult{Success: true}
			if receipt != nil {
				res.NewlyCompletedAchievements = receipt.NewlyCompleted
			}
			res.LeveledUp, res.NewLevel = e.refreshAfterSend(ctx)
			return res

		case errors.Is(err, domain.ErrRejected):
			log.Warn("event rejected by remote service",
				"event_id", ev.ID,
				"event_type", ev.Type,
				"error", err)
			return domain.RecordResult{Err: err}

		default:
			log.Info("direct send failed, queueing event",
				"event_id", ev.ID,
				"event_type", ev.Type,
				"error", err)
		}
	}

	if err := e.queue.Enqueue(ctx, ev); err != nil {
		// Store down. One last direct attempt; if it fails too the event is
		// lost, the accepted trade against blocking the caller.
		if receipt, serr := e.api.PostEvent(ctx, ev); serr == nil {
			metrics.EventsRecorded.WithLabelValues(string(ev.Type), metrics.DeliveryDirect).Inc()
			res := domain.RecordResult{Success: true}
			if receipt != nil {
				res.NewlyCompletedAchievements = receipt.NewlyCompleted
			}
			res.LeveledUp, res.NewLevel = e.refreshAfterSend(ctx)
			return res
		}
		metrics.EventsLost.Inc()
		log.Warn("event lost: store unavailable and direct send failed",
			"event_id", ev.ID,
			"event_type", ev.Type,
			"error", err)
		return domain.RecordResult{Err: err}
	}

	metrics.EventsRecorded.WithLabelValues(string(ev.Type), metrics.DeliveryQueued).Inc()
	return domain.RecordResult{Success: true, Offline: true}
}

// AddXP records a study_time event carrying the earned amount. LeveledUp is
// reported only after an online refresh confirms the new level.
func (e *Engine) AddXP(ctx context.Context, amount int, source string) domain.RecordResult {
	if amount <= 0 {
		return domain.RecordResult{Err: fmt.Errorf("%w: xp amount must be positive", domain.ErrInvalidInput)}
	}
	md := domain.Metadata{"xpEarned": amount}
	if source != "" {
		md["source"] = source
	}
	return e.Record(ctx, domain.EventStudyTime, amount, md)
}

// RecordQuizResult computes the optimistic XP and score locally and records a
// single quiz_completed event. One call, one event, one remote attempt.
func (e *Engine) RecordQuizResult(ctx context.Context, r QuizResult) domain.RecordResult {
	if err := e.ready(); err != nil {
		return domain.RecordResult{Err: err}
	}
	if err := e.validate.Struct(r); err != nil {
		return domain.RecordResult{Err: fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)}
	}

	score := int(math.Round(float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100))
	md := domain.Metadata{
		"score":          score,
		"totalQuestions": r.TotalQuestions,
		"xpEarned":       r.CorrectAnswers * XPPerCorrectAnswer,
		"source":         SourceQuiz,
	}
	if r.Subject != "" {
		md["subject"] = r.Subject
	}
	if r.Difficulty != "" {
		md["difficulty"] = r.Difficulty
	}
	if r.QuizID != "" {
		md["quizId"] = r.QuizID
	}
	if r.TimeSpentSeconds > 0 {
		md["timeSpent"] = r.TimeSpentSeconds
	}

	return e.Record(ctx, domain.EventQuizCompleted, r.CorrectAnswers, md)
}

// UpdateStreak delivers a streak-touch. A transport failure falls back to
// queueing a daily_study event so the touch replays with everything else.
func (e *Engine) UpdateStreak(ctx context.Context, upd domain.StreakUpdate) domain.RecordResult {
	if err := e.ready(); err != nil {
		return domain.RecordResult{Err: err}
	}
	if upd.ActivityType == "" {
		return domain.RecordResult{Err: fmt.Errorf("%w: activity type required", domain.ErrInvalidInput)}
	}
	if upd.ActivityDate.IsZero() {
		upd.ActivityDate = time.Now().UTC()
	}

	ctx = e.ensureSyncID(ctx)
	log := logger.FromContext(ctx)

	if e.online() {
		err := e.api.PostStreak(ctx, upd)
		switch {
		case err == nil:
			res := domain.RecordResult{Success: true}
			res.LeveledUp, res.NewLevel = e.refreshAfterSend(ctx)
			return res
		case errors.Is(err, domain.ErrRejected):
			log.Warn("streak update rejected by remote service", "error", err)
			return domain.RecordResult{Err: err}
		default:
			log.Info("streak update failed, queueing as daily study event", "error", err)
		}
	}

	ev := domain.NewEvent(domain.EventDailyStudy, 1, domain.Metadata{
		"activityType": upd.ActivityType,
		"activityDate": upd.ActivityDate.Format(time.RFC3339),
		"timeMinutes":  upd.TimeMinutes,
		"points":       upd.Points,
		"xpEarned":     upd.XP,
		"source":       SourceStreak,
	})
	if err := e.queue.Enqueue(ctx, ev); err != nil {
		metrics.EventsLost.Inc()
		log.Warn("streak update lost: store unavailable", "error", err)
		return domain.RecordResult{Err: err}
	}
	metrics.EventsRecorded.WithLabelValues(string(ev.Type), metrics.DeliveryQueued).Inc()
	return domain.RecordResult{Success: true, Offline: true}
}

// UseStreakFreeze consumes one streak freeze. Freezes are not queued for
// replay: a stale freeze applied days later would protect the wrong day.
// Offline, the cached snapshot is adjusted optimistically instead and the
// next successful refresh reconciles.
func (e *Engine) UseStreakFreeze(ctx context.Context) domain.RecordResult {
	if err := e.ready(); err != nil {
		return domain.RecordResult{Err: err}
	}
	ctx = e.ensureSyncID(ctx)
	log := logger.FromContext(ctx)

	if e.online() {
		err := e.api.PostStreakFreeze(ctx)
		switch {
		case err == nil:
			res := domain.RecordResult{Success: true}
			res.LeveledUp, res.NewLevel = e.refreshAfterSend(ctx)
			return res
		case errors.Is(err, domain.ErrRejected):
			log.Warn("streak freeze rejected by remote service", "error", err)
			return domain.RecordResult{Err: err}
		default:
			log.Info("streak freeze failed, applying offline default", "error", err)
		}
	}

	snap, ok := e.snapshots.Get(e.userID)
	if !ok || snap.Streak.FreezesAvailable <= 0 {
		return domain.RecordResult{Err: fmt.Errorf("%w: no freezes available offline", domain.ErrTransport)}
	}
	snap.Streak.FreezesAvailable--
	snap.Streak.IsActive = true
	e.publish(snap)
	return domain.RecordResult{Success: true, Offline: true}
}

// Refresh fetches the authoritative summary and streak, normalizes and
// aggregates them, and publishes a new immutable snapshot. A payload neither
// shape matches degrades to documented defaults instead of failing.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	ctx = e.ensureSyncID(ctx)
	log := logger.FromContext(ctx)

	rawSummary, err := e.api.GetSummary(ctx, e.userID)
	if err != nil {
		metrics.Refreshes.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("fetch summary: %w", err)
	}

	summary, ok := normalize.Summary(rawSummary)
	if !ok {
		metrics.NormalizerFallbacks.Inc()
		log.Warn("summary payload matched no known shape, using defaults")
	}
	summary = progress.Aggregate(summary)

	snap := domain.Snapshot{
		Summary:   summary,
		FetchedAt: time.Now().UTC(),
	}

	// A streak fetch failure degrades to the previous streak rather than
	// discarding a good summary.
	rawStreak, err := e.api.GetStreak(ctx, e.userID)
	if err != nil {
		log.Warn("streak fetch failed, keeping previous streak", "error", err)
		if prev, found := e.snapshots.Get(e.userID); found {
			snap.Streak = prev.Streak
		}
	} else {
		streak, ok := normalize.Streak(rawStreak)
		if !ok {
			metrics.NormalizerFallbacks.Inc()
			log.Warn("streak payload matched no known shape, using defaults")
		}
		snap.Streak = progress.ReconcileStreak(streak)
	}

	e.publish(snap)
	e.persistOfflineDefaults(ctx, snap)
	metrics.Refreshes.WithLabelValues(metrics.OutcomeOK).Inc()

	log.Debug("snapshot refreshed",
		"total_xp", snap.Summary.TotalXP,
		"level", snap.Summary.CurrentLevel,
		"current_streak", snap.Streak.CurrentStreak)
	return nil
}

// SyncPending replays the offline queue and, when anything synced, refreshes
// so the snapshot reflects the replayed events.
func (e *Engine) SyncPending(ctx context.Context) domain.ReplayReport {
	if err := e.ready(); err != nil {
		return domain.ReplayReport{LastError: err.Error()}
	}
	ctx = e.ensureSyncID(ctx)

	report := e.queue.ReplayAll(ctx)
	if report.Synced > 0 {
		if err := e.Refresh(ctx); err != nil {
			logger.FromContext(ctx).Warn("refresh after replay failed", "error", err)
		}
	}
	return report
}

// Snapshot returns the last published snapshot for this engine's user.
// ok is false before the first refresh when no offline default was cached.
func (e *Engine) Snapshot() (domain.Snapshot, bool) {
	return e.snapshots.Get(e.userID)
}

// PendingEvents returns the queued entries in replay order, for inspection.
func (e *Engine) PendingEvents(ctx context.Context) ([]domain.QueueEntry, error) {
	return e.queue.PeekAll(ctx)
}

// QueueLen returns the current offline queue depth.
func (e *Engine) QueueLen(ctx context.Context) (int, error) {
	return e.queue.Len(ctx)
}

// SubscribeSnapshots registers a handler invoked with every newly published
// snapshot. Returns an unsubscribe func.
func (e *Engine) SubscribeSnapshots(h func(domain.Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = h
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// publish stores the snapshot and notifies subscribers outside the lock.
func (e *Engine) publish(snap domain.Snapshot) {
	e.snapshots.Add(e.userID, snap)

	e.mu.Lock()
	handlers := make([]func(domain.Snapshot), 0, len(e.subscribers))
	for _, h := range e.subscribers {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(snap)
	}
}

// refreshAfterSend refreshes and reports whether the level rose past the
// previously cached one. A failed refresh is logged, not surfaced: the send
// itself already succeeded.
func (e *Engine) refreshAfterSend(ctx context.Context) (leveledUp bool, newLevel int) {
	prevLevel := 0
	if prev, ok := e.snapshots.Get(e.userID); ok {
		prevLevel = prev.Summary.CurrentLevel
	}

	if err := e.Refresh(ctx); err != nil {
		logger.FromContext(ctx).Warn("refresh after send failed", "error", err)
		return false, prevLevel
	}

	snap, ok := e.snapshots.Get(e.userID)
	if !ok {
		return false, prevLevel
	}
	newLevel = snap.Summary.CurrentLevel
	return prevLevel > 0 && newLevel > prevLevel, newLevel
}

// loadOfflineDefaults seeds the snapshot cache from the store so a fresh
// engine renders sane numbers before the first successful refresh.
func (e *Engine) loadOfflineDefaults(ctx context.Context) {
	data, found, err := e.store.Get(ctx, CacheBucket, e.userID)
	if err != nil || !found {
		return
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.FromContext(ctx).Warn("discarding corrupt cached snapshot", "error", err)
		return
	}
	e.snapshots.Add(e.userID, snap)
}

func (e *Engine) persistOfflineDefaults(ctx context.Context, snap domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := e.store.Put(ctx, CacheBucket, e.userID, data); err != nil {
		logger.FromContext(ctx).Warn("failed to cache snapshot", "error", err)
	}
}

func (e *Engine) online() bool {
	if e.monitor == nil {
		return true
	}
	return e.monitor.IsOnline()
}

func (e *Engine) ready() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrNotInitialized
	}
	return nil
}

func (e *Engine) ensureSyncID(ctx context.Context) context.Context {
	if _, ok := logger.SyncIDFromContext(ctx); ok {
		return ctx
	}
	return logger.WithSyncID(ctx, logger.GenerateSyncID())
}
