package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/katajakasa/audiostash/internal/models"
)

// State keys that are not per-table cursors.
const (
	stateKeyInitialized = "initialized"
	stateKeySession     = "sid"
	stateKeyScratchpad  = "playlist"
)

// StateStore persists the client's small keyed state: per-table sync
// cursors, the initialized marker, the session id and the scratchpad
// snapshot. Values survive process restarts.
type StateStore struct {
	db *sql.DB
}

// NewStateStore creates a state store over an open, migrated database.
func NewStateStore(db *sql.DB) *StateStore {
	return &StateStore{db: db}
}

func (s *StateStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, true, nil
}

func (s *StateStore) set(key, value string) error {
	query := `
		INSERT INTO client_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

func (s *StateStore) remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM client_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to remove state %q: %w", key, err)
	}
	return nil
}

// Cursor returns the sync watermark for a table, or the epoch sentinel if
// the table has never been synced.
func (s *StateStore) Cursor(table string) (string, error) {
	value, ok, err := s.get("cursor." + table)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.CursorEpoch, nil
	}
	return value, nil
}

// SetCursor advances the sync watermark for a table.
func (s *StateStore) SetCursor(table, ts string) error {
	return s.set("cursor."+table, ts)
}

// Initialized reports whether cursors have been seeded once.
func (s *StateStore) Initialized() (bool, error) {
	_, ok, err := s.get(stateKeyInitialized)
	return ok, err
}

// SeedCursors sets every sync table's cursor to the epoch sentinel and
// records the initialized marker. Called once, on first start.
func (s *StateStore) SeedCursors() error {
	for _, table := range models.SyncTables {
		if err := s.SetCursor(table, models.CursorEpoch); err != nil {
			return err
		}
	}
	return s.set(stateKeyInitialized, "1")
}

// SessionID returns the persisted session id, or "" when none is stored.
func (s *StateStore) SessionID() (string, error) {
	value, _, err := s.get(stateKeySession)
	return value, err
}

// SaveSessionID persists the session id.
func (s *StateStore) SaveSessionID(sid string) error {
	return s.set(stateKeySession, sid)
}

// ClearSessionID removes the persisted session id.
func (s *StateStore) ClearSessionID() error {
	return s.remove(stateKeySession)
}

// Scratchpad returns the serialized scratchpad snapshot, or "" when none
// has been saved.
func (s *StateStore) Scratchpad() (string, error) {
	value, _, err := s.get(stateKeyScratchpad)
	return value, err
}

// SaveScratchpad persists the serialized scratchpad snapshot.
func (s *StateStore) SaveScratchpad(serialized string) error {
	return s.set(stateKeyScratchpad, serialized)
}

// Clear wipes all client state: cursors, marker, session and scratchpad.
func (s *StateStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM client_state"); err != nil {
		return fmt.Errorf("failed to clear client state: %w", err)
	}
	return nil
}
