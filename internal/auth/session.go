package auth

import (
	"sync"

	"github.com/charmbracelet/log"
)

// SessionStore persists the session id across process restarts.
// Implemented by repositories.StateStore.
type SessionStore interface {
	SessionID() (string, error)
	SaveSessionID(sid string) error
	ClearSessionID() error
}

// Session holds the authentication state. A zero user id means "not
// authenticated"; the session id alone (as after Restore) is provisional
// until the server confirms it.
type Session struct {
	mu     sync.Mutex
	store  SessionStore
	logger *log.Logger

	sid   string
	uid   int64
	level int
}

// NewSession creates an empty, unauthenticated session.
func NewSession(store SessionStore, logger *log.Logger) *Session {
	return &Session{store: store, logger: logger}
}

// Create sets all three fields and persists the session id, overwriting
// any prior session.
func (s *Session) Create(sid string, uid int64, level int) {
	s.mu.Lock()
	s.sid = sid
	s.uid = uid
	s.level = level
	s.mu.Unlock()

	if err := s.store.SaveSessionID(sid); err != nil {
		s.logger.Warn("failed to persist session id", "error", err)
	}
}

// Destroy clears all fields and removes the persisted session id.
func (s *Session) Destroy() {
	s.mu.Lock()
	s.sid = ""
	s.uid = 0
	s.level = 0
	s.mu.Unlock()

	if err := s.store.ClearSessionID(); err != nil {
		s.logger.Warn("failed to clear persisted session id", "error", err)
	}
}

// Restore loads a persisted session id, if any, as a provisional session
// with zero user id and level. Returns whether an id was found; the caller
// must still authenticate it with the server.
func (s *Session) Restore() bool {
	sid, err := s.store.SessionID()
	if err != nil {
		s.logger.Warn("failed to load persisted session id", "error", err)
		return false
	}
	if sid == "" {
		return false
	}

	s.mu.Lock()
	s.sid = sid
	s.uid = 0
	s.level = 0
	s.mu.Unlock()
	return true
}

// SID returns the current session id.
func (s *Session) SID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}

// UID returns the current user id, zero when unauthenticated.
func (s *Session) UID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Level returns the current access level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// IsAuthenticated reports whether a user id is set.
func (s *Session) IsAuthenticated() bool {
	return s.UID() != 0
}

// IsAuthorized reports whether the session may perform an action gated at
// the given level. The comparison is required >= level: a LOWER stored
// level is MORE privileged. The polarity is inherited from the server's
// check and must not be "fixed".
func (s *Session) IsAuthorized(required int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid != 0 && required >= s.level
}
