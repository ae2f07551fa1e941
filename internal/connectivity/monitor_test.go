package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorInitialState(t *testing.T) {
	t.Run("starts online when constructed online", func(t *testing.T) {
		m := NewMonitor(true)
		assert.True(t, m.IsOnline())
	})

	t.Run("starts offline when constructed offline", func(t *testing.T) {
		m := NewMonitor(false)
		assert.False(t, m.IsOnline())
	})
}

func TestMonitorTransitions(t *testing.T) {
	t.Run("notifies exactly once per transition", func(t *testing.T) {
		m := NewMonitor(false)

		var calls []bool
		m.Subscribe(func(online bool) {
			calls = append(calls, online)
		})

		m.SetOnline(true)
		m.SetOnline(true) // no-op, already online
		m.SetOnline(false)
		m.SetOnline(false) // no-op
		m.SetOnline(true)

		assert.Equal(t, []bool{true, false, true}, calls,
			"handler must fire once per transition, never for repeated observations")
	})

	t.Run("offline to online transition observed by handler", func(t *testing.T) {
		m := NewMonitor(false)

		replays := 0
		m.Subscribe(func(online bool) {
			if online {
				replays++
			}
		})

		m.SetOnline(true)
		assert.Equal(t, 1, replays, "reconnect must trigger exactly one replay signal")
	})

	t.Run("handler can read monitor state without deadlock", func(t *testing.T) {
		m := NewMonitor(false)
		m.Subscribe(func(online bool) {
			assert.Equal(t, online, m.IsOnline())
		})
		m.SetOnline(true)
	})
}

func TestMonitorUnsubscribe(t *testing.T) {
	m := NewMonitor(false)

	calls := 0
	unsubscribe := m.Subscribe(func(bool) { calls++ })

	m.SetOnline(true)
	unsubscribe()
	m.SetOnline(false)
	m.SetOnline(true)

	assert.Equal(t, 1, calls, "no notifications after unsubscribe")
}

func TestMonitorMultipleSubscribers(t *testing.T) {
	m := NewMonitor(true)

	a, b := 0, 0
	m.Subscribe(func(bool) { a++ })
	m.Subscribe(func(bool) { b++ })

	m.SetOnline(false)

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
