package playlist

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/repositories"
	"github.com/katajakasa/audiostash/internal/socket"
)

// Registrar is the handler-registration half of the dispatcher.
type Registrar interface {
	OnMessage(mtype string, fn func(models.Inbound))
}

// saveRequest mirrors the whole scratchpad to the server.
type saveRequest struct {
	Query  string         `json:"query"`
	ID     int64          `json:"id"`
	Tracks []models.Entry `json:"tracks"`
}

// Manager owns the in-memory scratchpad snapshot. The snapshot is exposed
// to callers only as a copy and never mutated externally.
type Manager struct {
	sender socket.Sender
	cache  *repositories.Cache
	state  *repositories.StateStore
	bus    *events.Bus[events.PlaylistSignal]
	logger *log.Logger

	mu      sync.Mutex
	entries []models.Entry
}

// NewManager creates an empty scratchpad manager.
func NewManager(sender socket.Sender, cache *repositories.Cache, state *repositories.StateStore,
	bus *events.Bus[events.PlaylistSignal], logger *log.Logger) *Manager {
	return &Manager{sender: sender, cache: cache, state: state, bus: bus, logger: logger}
}

// Setup restores the persisted snapshot and registers the push handler.
func (m *Manager) Setup(r Registrar) {
	m.restore()
	r.OnMessage("playlist", m.handleMessage)
}

// AddTrack resolves a track in the cache, appends its display projection
// to the scratchpad, mirrors the snapshot and notifies listeners.
func (m *Manager) AddTrack(trackID int64) error {
	return m.AddTracks([]int64{trackID})
}

// AddTracks appends several tracks with one mirror and one notification.
func (m *Manager) AddTracks(trackIDs []int64) error {
	projected := make([]models.Entry, 0, len(trackIDs))
	for _, id := range trackIDs {
		entry, err := m.project(id)
		if err != nil {
			return err
		}
		projected = append(projected, entry)
	}

	m.mu.Lock()
	m.entries = append(m.entries, projected...)
	m.saveLocked()
	m.mu.Unlock()

	m.bus.Publish(events.PlaylistRefresh)
	return nil
}

// RemoveTrack removes the first entry matching the track id. Absent ids
// are a no-op: nothing is mirrored and no notification fires.
func (m *Manager) RemoveTrack(trackID int64) {
	m.mu.Lock()
	removed := false
	for i, entry := range m.entries {
		if entry.ID == trackID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		m.saveLocked()
	}
	m.mu.Unlock()

	if removed {
		m.bus.Publish(events.PlaylistRefresh)
	}
}

// Clear empties the scratchpad, mirrors and notifies.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.saveLocked()
	m.mu.Unlock()

	m.bus.Publish(events.PlaylistRefresh)
}

// Entries returns a copy of the current snapshot.
func (m *Manager) Entries() []models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Entry(nil), m.entries...)
}

// HasTracks reports whether the scratchpad is non-empty.
func (m *Manager) HasTracks() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries) > 0
}

// CreatePlaylist asks the server to create a named playlist. Completion is
// observed via a later playlist push, not a direct response.
func (m *Manager) CreatePlaylist(name string) {
	m.sender.Send("playlist", map[string]any{"query": "add_playlist", "name": name})
}

// DeletePlaylist asks the server to delete a named playlist and its items.
func (m *Manager) DeletePlaylist(id int64) {
	m.sender.Send("playlist", map[string]any{"query": "del_playlist", "id": id})
}

// CopyScratchpad asks the server to copy the scratchpad's items over the
// given named playlist.
func (m *Manager) CopyScratchpad(id int64) {
	m.sender.Send("playlist", map[string]any{"query": "copy_scratchpad", "id": id})
}

// LoadPlaylist replaces the scratchpad with the named playlist's contents
// read from the cache, ordered by stored sequence number, and notifies
// listeners. The snapshot is not mirrored back to the server.
func (m *Manager) LoadPlaylist(id int64) error {
	items, err := m.cache.ItemsForPlaylist(id)
	if err != nil {
		return fmt.Errorf("failed to load playlist %d: %w", id, err)
	}

	entries := make([]models.Entry, 0, len(items))
	for _, item := range items {
		entry, err := m.project(item.Track)
		if err != nil {
			m.logger.Warn("skipping unresolvable playlist item", "track", item.Track, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	m.mu.Lock()
	m.entries = entries
	m.persistLocked()
	m.mu.Unlock()

	m.bus.Publish(events.PlaylistRefresh)
	return nil
}

// project builds the minimal display record for a track.
func (m *Manager) project(trackID int64) (models.Entry, error) {
	track, err := m.cache.FindTrack(trackID)
	if err != nil {
		return models.Entry{}, err
	}

	artist := ""
	if a, err := m.cache.FindArtist(track.Artist); err == nil {
		artist = a.Name
	}

	return models.Entry{ID: track.ID, Artist: artist, Title: track.Title}, nil
}

// saveLocked persists the snapshot locally and mirrors it to the server.
// Callers hold m.mu.
func (m *Manager) saveLocked() {
	m.persistLocked()
	m.sender.Send("playlist", saveRequest{
		Query:  "save_playlist",
		ID:     models.ScratchpadID,
		Tracks: append([]models.Entry(nil), m.entries...),
	})
}

// persistLocked writes the serialized snapshot to the state store.
// Callers hold m.mu.
func (m *Manager) persistLocked() {
	serialized, err := json.Marshal(m.entries)
	if err != nil {
		m.logger.Error("failed to serialize scratchpad", "error", err)
		return
	}
	if err := m.state.SaveScratchpad(string(serialized)); err != nil {
		m.logger.Warn("failed to persist scratchpad", "error", err)
	}
}

// restore loads the persisted snapshot, if any.
func (m *Manager) restore() {
	serialized, err := m.state.Scratchpad()
	if err != nil {
		m.logger.Warn("failed to load persisted scratchpad", "error", err)
		return
	}
	if serialized == "" {
		return
	}

	var entries []models.Entry
	if err := json.Unmarshal([]byte(serialized), &entries); err != nil {
		m.logger.Warn("discarding corrupt scratchpad snapshot", "error", err)
		return
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()

	if len(entries) > 0 {
		m.bus.Publish(events.PlaylistRefresh)
	}
}

// handleMessage reacts to server playlist pushes. An update push for the
// scratchpad id reloads the snapshot from the cache, not from the push
// payload, so the client matches server-confirmed persisted state.
func (m *Manager) handleMessage(msg models.Inbound) {
	if msg.Failed() {
		m.logger.Warn("playlist operation rejected", "reason", msg.ErrorMessage())
		return
	}

	var push models.PlaylistPush
	if err := json.Unmarshal(msg.Data, &push); err != nil {
		m.logger.Warn("malformed playlist push", "error", err)
		return
	}

	if push.Query != "update" || push.ID != models.ScratchpadID {
		return
	}
	if err := m.LoadPlaylist(models.ScratchpadID); err != nil {
		m.logger.Warn("failed to reload scratchpad", "error", err)
	}
}
