package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/shared"
)

const trackColumns = "id, title, artist, album, file, type, track, disc, date, comment, updated"

// UpsertTrack inserts or replaces a track by id.
func (c *Cache) UpsertTrack(t models.Track) error {
	query := `
		INSERT INTO track (id, title, artist, album, file, type, track, disc, date, comment, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, artist = excluded.artist, album = excluded.album,
			file = excluded.file, type = excluded.type, track = excluded.track,
			disc = excluded.disc, date = excluded.date, comment = excluded.comment,
			updated = excluded.updated
	`
	_, err := c.db.Exec(query,
		t.ID, t.Title, t.Artist, t.Album, t.File, t.Type, t.Track, t.Disc, t.Date, t.Comment, t.Updated)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}
	return nil
}

// FindTrack retrieves a track by id.
func (c *Cache) FindTrack(id int64) (*models.Track, error) {
	row := c.db.QueryRow("SELECT "+trackColumns+" FROM track WHERE id = ?", id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find track: %w", err)
	}
	return track, nil
}

// TracksForAlbum lists an album's tracks in disc and track-number order.
func (c *Cache) TracksForAlbum(albumID int64) ([]models.Track, error) {
	rows, err := c.db.Query("SELECT "+trackColumns+" FROM track WHERE album = ? ORDER BY disc, track", albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list album tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// Tracks lists cached tracks ordered by title, capped at limit.
// A non-positive limit means no cap.
func (c *Cache) Tracks(limit int) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM track ORDER BY title"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*models.Track, error) {
	var t models.Track
	err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.File, &t.Type,
		&t.Track, &t.Disc, &t.Date, &t.Comment, &t.Updated)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}
