package models

import "encoding/json"

// Table name constants for the synchronizable record types.
const (
	TableArtist       = "artist"
	TableAlbum        = "album"
	TableTrack        = "track"
	TableSetting      = "setting"
	TablePlaylist     = "playlist"
	TablePlaylistItem = "playlistitem"
)

// SyncTables lists every synchronizable table in pull order.
var SyncTables = []string{
	TableArtist,
	TableAlbum,
	TableTrack,
	TableSetting,
	TablePlaylist,
	TablePlaylistItem,
}

// CursorEpoch is the sentinel watermark meaning "never synced".
const CursorEpoch = "2000-01-01T00:00:00Z"

// ScratchpadID is the reserved playlist id of the client-editable scratchpad.
const ScratchpadID int64 = 1

// User access levels. Lower is more privileged in authorization checks.
const (
	LevelNone = iota
	LevelUser
	LevelAdmin
)

// Envelope is the outbound frame written to the server channel.
type Envelope struct {
	Type    string `json:"type"`
	Message any    `json:"message"`
}

// Inbound is the inbound frame read from the server channel.
// Error is an application-level failure flag distinct from transport failure.
type Inbound struct {
	Type  string          `json:"type"`
	Error int             `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// Failed reports whether the server flagged this response as an error.
func (m Inbound) Failed() bool { return m.Error == 1 }

// ErrorData is the payload of an error-flagged response.
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorMessage extracts the human-readable message from an error-flagged
// response. Returns an empty string for well-formed success frames.
func (m Inbound) ErrorMessage() string {
	if !m.Failed() {
		return ""
	}
	var data ErrorData
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return ""
	}
	return data.Message
}

// AuthData is the payload of a successful auth or login response.
type AuthData struct {
	SID   string `json:"sid"`
	UID   int64  `json:"uid"`
	Level int    `json:"level"`
}

// SyncPayload is the payload of a sync response. Data holds raw records;
// the table name selects how they decode. Push marks server-initiated
// updates that must not continue the table walk.
type SyncPayload struct {
	Query string            `json:"query"`
	Table string            `json:"table"`
	TS    string            `json:"ts"`
	Push  bool              `json:"push"`
	Data  []json.RawMessage `json:"data"`
}

// PlaylistPush is the payload of a server-initiated playlist notification.
type PlaylistPush struct {
	Query string `json:"query"`
	ID    int64  `json:"id"`
	Push  bool   `json:"push"`
}

// Artist is a library artist record.
type Artist struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Album is a library album record. Artist and Cover are foreign ids.
type Album struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Artist  int64  `json:"artist"`
	Cover   int64  `json:"cover"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Track is a library track record.
type Track struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Artist  int64  `json:"artist"`
	Album   int64  `json:"album"`
	File    string `json:"file,omitempty"`
	Type    string `json:"type,omitempty"`
	Track   int    `json:"track,omitempty"`
	Disc    int    `json:"disc,omitempty"`
	Date    string `json:"date,omitempty"`
	Comment string `json:"comment,omitempty"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Setting is a server-pushed key/value setting record.
type Setting struct {
	ID      int64  `json:"id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Playlist is a named playlist record.
type Playlist struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Updated string `json:"updated,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// PlaylistItem links a track to a playlist at a position.
type PlaylistItem struct {
	ID       int64  `json:"id"`
	Playlist int64  `json:"playlist"`
	Track    int64  `json:"track"`
	Number   int    `json:"number"`
	Updated  string `json:"updated,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// Entry is a scratchpad line: the minimal display projection of a track.
type Entry struct {
	ID     int64  `json:"id"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}
