package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/katajakasa/audiostash/internal/models"
)

// UpsertArtist inserts or replaces an artist by id.
func (c *Cache) UpsertArtist(a models.Artist) error {
	query := `
		INSERT INTO artist (id, name, updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated = excluded.updated
	`
	if _, err := c.db.Exec(query, a.ID, a.Name, a.Updated); err != nil {
		return fmt.Errorf("failed to upsert artist: %w", err)
	}
	return nil
}

// FindArtist retrieves an artist by id.
func (c *Cache) FindArtist(id int64) (*models.Artist, error) {
	var a models.Artist
	err := c.db.QueryRow("SELECT id, name, updated FROM artist WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}
	return &a, nil
}

// UpsertAlbum inserts or replaces an album by id.
func (c *Cache) UpsertAlbum(a models.Album) error {
	query := `
		INSERT INTO album (id, title, artist, cover, updated) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, artist = excluded.artist,
			cover = excluded.cover, updated = excluded.updated
	`
	if _, err := c.db.Exec(query, a.ID, a.Title, a.Artist, a.Cover, a.Updated); err != nil {
		return fmt.Errorf("failed to upsert album: %w", err)
	}
	return nil
}

// FindAlbum retrieves an album by id.
func (c *Cache) FindAlbum(id int64) (*models.Album, error) {
	var a models.Album
	err := c.db.QueryRow("SELECT id, title, artist, cover, updated FROM album WHERE id = ?", id).
		Scan(&a.ID, &a.Title, &a.Artist, &a.Cover, &a.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("album %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find album: %w", err)
	}
	return &a, nil
}

// UpsertSetting inserts or replaces a setting by id.
func (c *Cache) UpsertSetting(s models.Setting) error {
	query := `
		INSERT INTO setting (id, key, value, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key = excluded.key, value = excluded.value, updated = excluded.updated
	`
	if _, err := c.db.Exec(query, s.ID, s.Key, s.Value, s.Updated); err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// SettingValue retrieves a setting value by key. Missing keys return "".
func (c *Cache) SettingValue(key string) (string, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM setting WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting: %w", err)
	}
	return value, nil
}

// UpsertPlaylist inserts or replaces a playlist by id.
func (c *Cache) UpsertPlaylist(p models.Playlist) error {
	query := `
		INSERT INTO playlist (id, name, updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated = excluded.updated
	`
	if _, err := c.db.Exec(query, p.ID, p.Name, p.Updated); err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}
	return nil
}

// Playlists lists all cached playlists ordered by name.
func (c *Cache) Playlists() ([]models.Playlist, error) {
	rows, err := c.db.Query("SELECT id, name, updated FROM playlist ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// UpsertPlaylistItem inserts or replaces a playlist item by id.
func (c *Cache) UpsertPlaylistItem(item models.PlaylistItem) error {
	query := `
		INSERT INTO playlistitem (id, playlist, track, number, updated) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			playlist = excluded.playlist, track = excluded.track,
			number = excluded.number, updated = excluded.updated
	`
	if _, err := c.db.Exec(query, item.ID, item.Playlist, item.Track, item.Number, item.Updated); err != nil {
		return fmt.Errorf("failed to upsert playlist item: %w", err)
	}
	return nil
}

// ItemsForPlaylist lists a playlist's items ordered by their stored
// sequence number.
func (c *Cache) ItemsForPlaylist(playlistID int64) ([]models.PlaylistItem, error) {
	rows, err := c.db.Query(`
		SELECT id, playlist, track, number, updated
		FROM playlistitem WHERE playlist = ? ORDER BY number
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist items: %w", err)
	}
	defer rows.Close()

	var items []models.PlaylistItem
	for rows.Next() {
		var item models.PlaylistItem
		if err := rows.Scan(&item.ID, &item.Playlist, &item.Track, &item.Number, &item.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan playlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
