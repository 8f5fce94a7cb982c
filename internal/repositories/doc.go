// Package repositories implements the local durable cache behind the sync
// engine.
//
// [Cache] holds the six mirrored library tables and reconciles sync batches
// with tombstone-aware upsert/delete semantics: records are keyed by the
// server's stable id, upserts are idempotent, and deleting an id that was
// never cached is a no-op. [StateStore] holds the small keyed client state
// that must survive restarts: per-table sync cursors, the initialized
// marker, the session id and the serialized scratchpad snapshot.
package repositories
