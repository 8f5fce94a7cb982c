package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/shared"
)

// Cache is the sqlite-backed mirror of the server's library tables.
type Cache struct {
	db *sql.DB
}

// NewCache creates a cache over an open, migrated database.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Apply reconciles one sync batch for a table: tombstoned records are
// deleted from the cache, the rest upserted. Returns how many records were
// applied. Applying the same batch twice leaves the cache unchanged.
func (c *Cache) Apply(table string, records []json.RawMessage) (int, error) {
	applied := 0
	for _, raw := range records {
		var err error
		switch table {
		case models.TableArtist:
			err = applyRecord(raw, func(r models.Artist) (int64, bool) { return r.ID, r.Deleted }, c.UpsertArtist, c.deleteFrom(models.TableArtist))
		case models.TableAlbum:
			err = applyRecord(raw, func(r models.Album) (int64, bool) { return r.ID, r.Deleted }, c.UpsertAlbum, c.deleteFrom(models.TableAlbum))
		case models.TableTrack:
			err = applyRecord(raw, func(r models.Track) (int64, bool) { return r.ID, r.Deleted }, c.UpsertTrack, c.deleteFrom(models.TableTrack))
		case models.TableSetting:
			err = applyRecord(raw, func(r models.Setting) (int64, bool) { return r.ID, r.Deleted }, c.UpsertSetting, c.deleteFrom(models.TableSetting))
		case models.TablePlaylist:
			err = applyRecord(raw, func(r models.Playlist) (int64, bool) { return r.ID, r.Deleted }, c.UpsertPlaylist, c.deleteFrom(models.TablePlaylist))
		case models.TablePlaylistItem:
			err = applyRecord(raw, func(r models.PlaylistItem) (int64, bool) { return r.ID, r.Deleted }, c.UpsertPlaylistItem, c.deleteFrom(models.TablePlaylistItem))
		default:
			return applied, fmt.Errorf("%w: %s", shared.ErrUnknownTable, table)
		}
		if err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// applyRecord decodes one raw record and routes it to upsert or delete.
func applyRecord[T any](raw json.RawMessage, key func(T) (int64, bool), upsert func(T) error, del func(int64) error) error {
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	id, deleted := key(record)
	if deleted {
		return del(id)
	}
	return upsert(record)
}

// deleteFrom returns a delete-by-id function for the given table. Deleting
// an absent id is a no-op, matching tombstone semantics.
func (c *Cache) deleteFrom(table string) func(int64) error {
	return func(id int64) error {
		if _, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		return nil
	}
}

// Delete removes the record with the given id from a table.
func (c *Cache) Delete(table string, id int64) error {
	for _, known := range models.SyncTables {
		if table == known {
			return c.deleteFrom(table)(id)
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrUnknownTable, table)
}

// Counts returns the row count per library table, for the status command.
func (c *Cache) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(models.SyncTables))
	for _, table := range models.SyncTables {
		var n int
		if err := c.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// ClearLibrary empties every library table but leaves client state intact.
func (c *Cache) ClearLibrary() error {
	for _, table := range models.SyncTables {
		if _, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
