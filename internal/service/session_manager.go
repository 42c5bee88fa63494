package service

import (
	"sync"

	"github.com/akinfemi/timetable/internal/model"
)

// Session is one user's editing state: the active level, the unsaved edit
// overlay, and the canonical snapshot the next commit diffs against.
type Session struct {
	Level string
	Acc   *EditAccumulator

	mu     sync.RWMutex
	slots  []*model.ScheduleSlot
	loaded bool
}

func newSession(level string) *Session {
	return &Session{
		Level: level,
		Acc:   NewEditAccumulator(),
	}
}

// Snapshot returns the last-fetched canonical slot list.
func (s *Session) Snapshot() []*model.ScheduleSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots
}

// SetSnapshot replaces the canonical slot list.
func (s *Session) SetSnapshot(slots []*model.ScheduleSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = slots
	s.loaded = true
}

// Loaded reports whether a canonical fetch has happened for this session.
// An unloaded snapshot is indistinguishable from an empty level otherwise.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// SessionManager owns the editing sessions, one per user id. Switching
// level discards the previous session, unsaved edits included, the same
// way the editor resets when another level is selected.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Get returns the user's session for the given level, creating or
// resetting it as needed.
func (m *SessionManager) Get(userID, level string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok || sess.Level != level {
		sess = newSession(level)
		m.sessions[userID] = sess
	}
	return sess
}

// Clear drops the user's session.
func (m *SessionManager) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
