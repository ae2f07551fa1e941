// Package queue owns the durable pending-event queue. Events land here when
// a send attempt fails for transport reasons, and leave only after a
// confirmed-accepted replay. Replay is strict FIFO: reordering would corrupt
// cumulative XP and streak arithmetic on the remote side.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/studyquest/progress-engine/internal/domain"
	"github.com/studyquest/progress-engine/internal/logger"
	"github.com/studyquest/progress-engine/internal/metrics"
	"github.com/studyquest/progress-engine/internal/store"
)

// Bucket is the store namespace holding pending entries.
const Bucket = "pending_events"

// Sender delivers one event. nil means confirmed accepted; an error wrapping
// domain.ErrRejected means the service refused the payload; anything else is
// treated as a transport failure and retried later.
type Sender interface {
	Send(ctx context.Context, ev domain.AchievementEvent) error
}

// Manager is the offline queue manager.
type Manager struct {
	store      store.Store
	sender     Sender
	deadLetter *DeadLetterWriter // nil disables dead-lettering

	seqMu sync.Mutex
	seq   uint64

	// replayMu serializes replay passes: a connectivity flap must not start
	// a second pass racing the first over the same head entry.
	replayMu sync.Mutex
}

// NewManager creates a manager over the given store, seeding the key
// sequence from whatever survived the last process.
func NewManager(ctx context.Context, st store.Store, sender Sender, dlw *DeadLetterWriter) (*Manager, error) {
	m := &Manager{store: st, sender: sender, deadLetter: dlw}

	entries, err := st.List(ctx, Bucket)
	if err != nil {
		return nil, fmt.Errorf("seed queue sequence: %w", err)
	}
	if n := len(entries); n > 0 {
		last, err := strconv.ParseUint(entries[n-1].Key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt queue key %q: %w", entries[n-1].Key, err)
		}
		m.seq = last
	}
	metrics.QueueDepth.Set(float64(len(entries)))
	return m, nil
}

// nextKey returns the next zero-padded sequence key. Padding keeps the
// store's lexicographic key order identical to insertion order.
func (m *Manager) nextKey() string {
	m.seqMu.Lock()
	defer m.seqMu.Unlock()
	m.seq++
	return fmt.Sprintf("%020d", m.seq)
}

// Enqueue appends an event to the durable queue. Safe to call while a replay
// pass runs: the new entry sorts behind the batch being replayed and is
// picked up by the next pass.
func (m *Manager) Enqueue(ctx context.Context, ev domain.AchievementEvent) error {
	entry := domain.QueueEntry{
		Event:      ev,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode queue entry: %w", err)
	}

	if err := m.store.Put(ctx, Bucket, m.nextKey(), data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	metrics.EventsQueued.WithLabelValues(string(ev.Type)).Inc()
	m.updateDepth(ctx)
	logger.FromContext(ctx).Debug("event queued for replay",
		"event_id", ev.ID,
		"event_type", ev.Type)
	return nil
}

// ReplayAll sends queued events in original insertion order, one at a time.
// A transport failure halts the batch with the failed entry and everything
// behind it intact - head-of-line blocking is the accepted price of
// ordering. An authoritative rejection dead-letters just that entry, since
// retrying it can never succeed.
func (m *Manager) ReplayAll(ctx context.Context) domain.ReplayReport {
	m.replayMu.Lock()
	defer m.replayMu.Unlock()

	log := logger.FromContext(ctx)
	metrics.ReplayPasses.Inc()

	var report domain.ReplayReport

	entries, err := m.store.List(ctx, Bucket)
	if err != nil {
		report.LastError = err.Error()
		return report
	}
	if len(entries) == 0 {
		return report
	}

	log.Info("replaying offline queue", "pending", len(entries))

	for _, kv := range entries {
		var entry domain.QueueEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			// An undecodable entry would block the head on every pass.
			log.Error("dropping corrupt queue entry", "key", kv.Key, "error", err)
			m.writeDeadLetter(ctx, domain.AchievementEvent{}, 0, err)
			_ = m.store.Delete(ctx, Bucket, kv.Key)
			report.DeadLettered++
			continue
		}

		sendErr := m.sender.Send(ctx, entry.Event)
		switch {
		case sendErr == nil:
			if err := m.store.Delete(ctx, Bucket, kv.Key); err != nil {
				// The remote applied the event but the entry survived; the
				// event ID lets the service dedupe the redelivery.
				log.Warn("failed to clear synced queue entry", "key", kv.Key, "error", err)
			}
			report.Synced++
			metrics.EventsReplayed.WithLabelValues(string(entry.Event.Type)).Inc()

		case errors.Is(sendErr, domain.ErrRejected):
			log.Warn("queued event rejected by remote, dead-lettering",
				"event_id", entry.Event.ID,
				"event_type", entry.Event.Type,
				"error", sendErr)
			m.writeDeadLetter(ctx, entry.Event, entry.Attempts+1, sendErr)
			_ = m.store.Delete(ctx, Bucket, kv.Key)
			report.DeadLettered++
			metrics.EventsDeadLettered.WithLabelValues(string(entry.Event.Type)).Inc()

		default:
			// Transport failure: keep the entry (with bookkeeping) and stop.
			entry.Attempts++
			entry.LastError = sendErr.Error()
			if data, err := json.Marshal(entry); err == nil {
				_ = m.store.Put(ctx, Bucket, kv.Key, data)
			}
			report.LastError = sendErr.Error()
			log.Warn("replay halted on transport failure",
				"event_id", entry.Event.ID,
				"attempts", entry.Attempts,
				"error", sendErr)
			m.finishReport(ctx, &report)
			return report
		}
	}

	m.finishReport(ctx, &report)
	log.Info("replay pass complete",
		"synced", report.Synced,
		"still_pending", report.StillPending,
		"dead_lettered", report.DeadLettered)
	return report
}

// PeekAll returns the queued entries in replay order without touching them.
func (m *Manager) PeekAll(ctx context.Context) ([]domain.QueueEntry, error) {
	kvs, err := m.store.List(ctx, Bucket)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QueueEntry, 0, len(kvs))
	for _, kv := range kvs {
		var entry domain.QueueEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Len returns the number of pending entries.
func (m *Manager) Len(ctx context.Context) (int, error) {
	kvs, err := m.store.List(ctx, Bucket)
	if err != nil {
		return 0, err
	}
	return len(kvs), nil
}

func (m *Manager) finishReport(ctx context.Context, report *domain.ReplayReport) {
	if n, err := m.Len(ctx); err == nil {
		report.StillPending = n
		metrics.QueueDepth.Set(float64(n))
	}
}

func (m *Manager) updateDepth(ctx context.Context) {
	if n, err := m.Len(ctx); err == nil {
		metrics.QueueDepth.Set(float64(n))
	}
}

func (m *Manager) writeDeadLetter(ctx context.Context, ev domain.AchievementEvent, attempts int, cause error) {
	if m.deadLetter == nil {
		return
	}
	if err := m.deadLetter.Write(ev, attempts, cause); err != nil {
		logger.FromContext(ctx).Error("failed to write dead letter", "error", err)
	}
}
