// Package connectivity tracks whether the remote achievements service is
// reachable. It is a two-state machine (Online/Offline) with an explicit
// subscription interface, decoupled from any particular platform signal:
// callers may drive it manually via SetOnline or run the HTTP Prober.
package connectivity

import "sync"

// Handler is invoked on every state transition with the new state.
type Handler func(online bool)

// Monitor holds the current connectivity state and notifies subscribers on
// transitions. Notifications fire once per transition, never for a SetOnline
// call that does not change state.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	nextID   int
	handlers map[int]Handler
}

// NewMonitor creates a monitor in the given initial state. When the platform
// signal is unavailable at construction, pass true: the engine fails open
// since every operation below it tolerates a later delivery failure.
func NewMonitor(initialOnline bool) *Monitor {
	return &Monitor{
		online:   initialOnline,
		handlers: make(map[int]Handler),
	}
}

// IsOnline returns the current state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a state observation. Subscribers are notified only when
// the state actually changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	// Called outside the lock so a handler may read or drive the monitor.
	for _, h := range handlers {
		h(online)
	}
}

// Subscribe registers a transition handler and returns an unsubscribe func.
func (m *Monitor) Subscribe(h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}
