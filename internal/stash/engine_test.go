package stash

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/repositories"
	"github.com/katajakasa/audiostash/internal/shared"
	stubs "github.com/katajakasa/audiostash/internal/testing"
)

// Tests drive runCycle and handleSync directly; the timers are armed far in
// the future so nothing fires on its own.
const never = time.Hour

type engineFixture struct {
	engine *Engine
	sender *stubs.SpySender
	cache  *repositories.Cache
	state  *repositories.StateStore
	bus    *events.Bus[events.SyncSignal]
}

func newTestEngine(t *testing.T) *engineFixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	sender := &stubs.SpySender{}
	cache := repositories.NewCache(db)
	state := repositories.NewStateStore(db)
	bus := events.NewBus[events.SyncSignal]()

	engine := NewEngine(EngineOpts{
		Sender:       sender,
		Cache:        cache,
		State:        state,
		Bus:          bus,
		Logger:       shared.NewLogger(io.Discard),
		Interval:     never,
		InitialDelay: never,
	})
	t.Cleanup(engine.Stop)

	return &engineFixture{engine: engine, sender: sender, cache: cache, state: state, bus: bus}
}

// respond feeds the engine a successful sync response for a table.
func (f *engineFixture) respond(t *testing.T, table, ts string, push bool, records ...any) {
	t.Helper()

	data := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("failed to marshal record: %v", err)
		}
		data = append(data, raw)
	}

	payload, err := json.Marshal(models.SyncPayload{
		Query: "request",
		Table: table,
		TS:    ts,
		Push:  push,
		Data:  data,
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	f.engine.handleSync(models.Inbound{Type: "sync", Data: payload})
}

// lastRequest returns the table and cursor of the most recent outbound
// sync request.
func (f *engineFixture) lastRequest(t *testing.T) syncRequest {
	t.Helper()
	last, ok := f.sender.Last()
	if !ok {
		t.Fatal("no sync request sent")
	}
	request, ok := last.Message.(syncRequest)
	if !ok {
		t.Fatalf("unexpected outbound message: %+v", last)
	}
	return request
}

func TestEngineStart(t *testing.T) {
	t.Run("SeedsCursorsOnFirstStart", func(t *testing.T) {
		f := newTestEngine(t)

		f.engine.Start()

		initialized, err := f.state.Initialized()
		if err != nil {
			t.Fatalf("failed to read marker: %v", err)
		}
		if !initialized {
			t.Error("expected initialized marker after first start")
		}
		for _, table := range models.SyncTables {
			cursor, err := f.state.Cursor(table)
			if err != nil {
				t.Fatalf("failed to read %s cursor: %v", table, err)
			}
			if cursor != models.CursorEpoch {
				t.Errorf("%s cursor not seeded: %q", table, cursor)
			}
		}
	})

	t.Run("StartIsIdempotent", func(t *testing.T) {
		f := newTestEngine(t)

		f.engine.Start()
		f.engine.Start()

		if !f.engine.Running() {
			t.Error("engine should be running")
		}
	})

	t.Run("PreservesAdvancedCursors", func(t *testing.T) {
		f := newTestEngine(t)
		f.engine.Start()
		if err := f.state.SetCursor(models.TableTrack, "2024-06-01T00:00:00Z"); err != nil {
			t.Fatalf("failed to advance cursor: %v", err)
		}
		f.engine.Stop()

		f.engine.Start()

		cursor, _ := f.state.Cursor(models.TableTrack)
		if cursor != "2024-06-01T00:00:00Z" {
			t.Errorf("restart reset cursor to %q", cursor)
		}
	})
}

func TestEngineCycle(t *testing.T) {
	t.Run("WalksTablesInOrder", func(t *testing.T) {
		f := newTestEngine(t)

		var signals []events.SyncSignal
		f.bus.Subscribe(func(s events.SyncSignal) { signals = append(signals, s) })

		f.engine.Start()
		f.engine.runCycle()

		for _, table := range models.SyncTables {
			request := f.lastRequest(t)
			if request.Table != table {
				t.Fatalf("expected request for %q, got %q", table, request.Table)
			}
			if request.Query != "request" || request.TS != models.CursorEpoch {
				t.Errorf("unexpected request: %+v", request)
			}
			f.respond(t, table, "2024-01-01T00:00:00Z", false)
		}

		if len(f.sender.Sent()) != len(models.SyncTables) {
			t.Errorf("expected %d requests, got %d", len(models.SyncTables), len(f.sender.Sent()))
		}
		if len(signals) != 2 || signals[0] != events.SyncStarted || signals[1] != events.SyncFinished {
			t.Errorf("expected started then finished, got %v", signals)
		}
		for _, table := range models.SyncTables {
			cursor, _ := f.state.Cursor(table)
			if cursor != "2024-01-01T00:00:00Z" {
				t.Errorf("%s cursor not advanced: %q", table, cursor)
			}
		}
	})

	t.Run("ReconcilesTombstonesAndUpserts", func(t *testing.T) {
		f := newTestEngine(t)
		if err := f.cache.UpsertTrack(models.Track{ID: 5, Title: "Doomed"}); err != nil {
			t.Fatalf("failed to seed track: %v", err)
		}

		newData := 0
		f.bus.Subscribe(func(s events.SyncSignal) {
			if s == events.SyncNewData {
				newData++
			}
		})

		f.engine.Start()
		f.engine.runCycle()

		// Walk up to the track table, then answer it with a mixed batch.
		for _, table := range models.SyncTables {
			if table == models.TableTrack {
				break
			}
			f.respond(t, table, "2024-01-01T00:00:00Z", false)
		}
		f.respond(t, models.TableTrack, "2024-01-01T00:00:00Z", false,
			models.Track{ID: 5, Deleted: true},
			models.Track{ID: 7, Title: "Kept"},
		)

		if _, err := f.cache.FindTrack(5); err == nil {
			t.Error("tombstoned track survived reconcile")
		}
		track, err := f.cache.FindTrack(7)
		if err != nil {
			t.Fatalf("upserted track missing: %v", err)
		}
		if track.Title != "Kept" {
			t.Errorf("unexpected title: %q", track.Title)
		}
		cursor, _ := f.state.Cursor(models.TableTrack)
		if cursor != "2024-01-01T00:00:00Z" {
			t.Errorf("cursor not advanced: %q", cursor)
		}
		if newData != 1 {
			t.Errorf("expected one new-data signal, got %d", newData)
		}
	})

	t.Run("ErrorResponseAbortsCycle", func(t *testing.T) {
		f := newTestEngine(t)
		f.engine.Start()
		f.engine.runCycle()
		before := len(f.sender.Sent())

		errorData, _ := json.Marshal(models.ErrorData{Code: 500, Message: "boom"})
		f.engine.handleSync(models.Inbound{Type: "sync", Error: 1, Data: errorData})

		if len(f.sender.Sent()) != before {
			t.Error("cycle continued after error response")
		}
		cursor, _ := f.state.Cursor(models.SyncTables[0])
		if cursor != models.CursorEpoch {
			t.Errorf("cursor advanced past failed table: %q", cursor)
		}
	})
}

func TestEngineDiscards(t *testing.T) {
	t.Run("LateResponseAfterStop", func(t *testing.T) {
		f := newTestEngine(t)
		f.engine.Start()
		f.engine.runCycle()
		f.engine.Stop()

		f.respond(t, models.SyncTables[0], "2024-01-01T00:00:00Z", false,
			models.Artist{ID: 1, Name: "Ghost"},
		)

		if _, err := f.cache.FindArtist(1); err == nil {
			t.Error("late response mutated the cache")
		}
		cursor, _ := f.state.Cursor(models.SyncTables[0])
		if cursor != models.CursorEpoch {
			t.Errorf("late response advanced cursor: %q", cursor)
		}
	})

	t.Run("StaleTableMismatch", func(t *testing.T) {
		f := newTestEngine(t)
		f.engine.Start()
		f.engine.runCycle()
		before := len(f.sender.Sent())

		// Awaiting artist; an album response without the push tag is stale.
		f.respond(t, models.TableAlbum, "2024-01-01T00:00:00Z", false,
			models.Album{ID: 1, Title: "Stray"},
		)

		if _, err := f.cache.FindAlbum(1); err == nil {
			t.Error("stale response mutated the cache")
		}
		if len(f.sender.Sent()) != before {
			t.Error("stale response advanced the walk")
		}

		// The awaited table's response is still accepted afterwards.
		f.respond(t, models.TableArtist, "2024-01-01T00:00:00Z", false)
		if f.lastRequest(t).Table != models.TableAlbum {
			t.Error("walk did not continue after the real response")
		}
	})

	t.Run("PushAppliesWithoutContinuingWalk", func(t *testing.T) {
		f := newTestEngine(t)
		f.engine.Start()
		f.engine.runCycle()
		before := len(f.sender.Sent())

		newData := 0
		f.bus.Subscribe(func(s events.SyncSignal) {
			if s == events.SyncNewData {
				newData++
			}
		})

		// Awaiting artist; a push-tagged track update applies out of band.
		f.respond(t, models.TableTrack, "2024-02-01T00:00:00Z", true,
			models.Track{ID: 3, Title: "Pushed"},
		)

		if _, err := f.cache.FindTrack(3); err != nil {
			t.Errorf("push not reconciled: %v", err)
		}
		cursor, _ := f.state.Cursor(models.TableTrack)
		if cursor != "2024-02-01T00:00:00Z" {
			t.Errorf("push cursor not advanced: %q", cursor)
		}
		if len(f.sender.Sent()) != before {
			t.Error("push response continued the walk")
		}
		if newData != 1 {
			t.Errorf("expected one new-data signal, got %d", newData)
		}

		// The awaited table still completes normally.
		f.respond(t, models.TableArtist, "2024-01-01T00:00:00Z", false)
		if f.lastRequest(t).Table != models.TableAlbum {
			t.Error("walk did not resume after push")
		}
	})
}
