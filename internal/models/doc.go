// Package models defines the wire envelope, library records and scratchpad
// projections shared by the socket, auth, sync and playlist layers.
//
// The package contains two categories of types:
//
// 1. Protocol types: the uniform message wrapper used on the server channel
//   - [Envelope] : outbound {type, message} frame
//   - [Inbound] : inbound {type, error, data} frame
//   - [AuthData] / [SyncPayload] / [PlaylistPush] : decoded sub-protocol payloads
//
// 2. Library records: rows mirrored from the server's change feed
//   - [Artist], [Album], [Track], [Setting], [Playlist], [PlaylistItem]
//   - each carries an optional tombstone flag signalling local deletion
//
// [SyncTables] fixes the order in which record types are pulled; the sync
// engine walks it strictly one table at a time.
package models
