package session

import (
	"sync"
	"time"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// Manager starts sessions, owns their tick sources, and resolves them by
// id. Sessions are fully independent; ending one never affects another.
type Manager struct {
	interval time.Duration
	logger   *logging.Logger
	onTick   func(*Session)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. interval is the tick period; a
// zero interval disables the background ticker so tests can drive Tick
// directly.
func NewManager(interval time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		interval: interval,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// SetTickObserver registers a callback invoked after every tick, used to
// push state snapshots to subscribers. Must be set before Start.
func (m *Manager) SetTickObserver(fn func(*Session)) {
	m.onTick = fn
}

// Start creates a session for the booking and begins ticking.
func (m *Manager) Start(bookingID string) *Session {
	s := newSession(bookingID, time.Now().UTC())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	if m.interval > 0 {
		go m.run(s)
	}

	m.logger.Info("call session started", "session_id", s.ID(), "booking_id", bookingID)
	return s
}

// Get resolves an active session by id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Stop ends the session's tick source and removes it from the active
// set. Stopping an already-stopped or unknown session is a no-op, which
// keeps EndCall idempotent.
func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	s.stop()
	m.logger.Info("call session ended",
		"session_id", sessionID,
		"booking_id", s.BookingID(),
		"duration", s.FormattedDuration(),
	)
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) run(s *Session) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Tick()
			if m.onTick != nil {
				m.onTick(s)
			}
		}
	}
}
