package stash

import (
	"encoding/json"
	"sync"
	"time"

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

// EngineOpts holds the collaborators and tuning for NewEngine.
type EngineOpts struct {
	Sender       socket.Sender
	Cache        *repositories.Cache
	State        *repositories.StateStore
	Bus          *events.Bus[events.SyncSignal]
	Logger       *log.Logger
	Interval     time.Duration // steady time between cycles
	InitialDelay time.Duration // warm-up before the first cycle
}

// syncRequest is the message half of an outbound sync envelope.
type syncRequest struct {
	Query string `json:"query"`
	TS    string `json:"ts"`
	Table string `json:"table"`
}

// Engine is the incremental pull engine. All state transitions happen
// under one mutex; the engine is either idle, mid-cycle awaiting one
// table's response, or waiting on the reschedule timer.
type Engine struct {
	sender socket.Sender
	cache  *repositories.Cache
	state  *repositories.StateStore
	bus    *events.Bus[events.SyncSignal]
	logger *log.Logger

	interval     time.Duration
	initialDelay time.Duration

	mu       sync.Mutex
	running  bool
	pending  []string
	awaiting string
	timer    *time.Timer
}

// NewEngine creates a stopped engine.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.InitialDelay < 0 {
		opts.InitialDelay = 0
	}
	return &Engine{
		sender:       opts.Sender,
		cache:        opts.Cache,
		state:        opts.State,
		bus:          opts.Bus,
		logger:       opts.Logger,
		interval:     opts.Interval,
		initialDelay: opts.InitialDelay,
	}
}

// Setup registers the engine's inbound handler.
func (e *Engine) Setup(r Registrar) {
	r.OnMessage("sync", e.handleSync)
}

// Start begins periodic syncing. Idempotent: a running engine is left
// alone. On the very first start the cursors are seeded to the epoch
// sentinel under the initialized marker.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}

	initialized, err := e.state.Initialized()
	if err != nil {
		e.logger.Error("failed to read initialized marker", "error", err)
		return
	}
	if !initialized {
		if err := e.state.SeedCursors(); err != nil {
			e.logger.Error("failed to seed cursors", "error", err)
			return
		}
		e.logger.Info("cursors seeded to epoch")
	}

	e.running = true
	e.scheduleLocked(e.initialDelay)
}

// Stop cancels the pending reschedule timer and clears the table queue.
// A cycle awaiting a response is abandoned; its late response, if any,
// will be discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.running = false
	e.pending = nil
	e.awaiting = ""
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Running reports whether the engine is started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// scheduleLocked arms the reschedule timer, replacing any pending one.
// Callers hold e.mu.
func (e *Engine) scheduleLocked(d time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if !e.running {
		return
	}
	e.timer = time.AfterFunc(d, e.runCycle)
}

// runCycle starts one sync cycle: reset the table queue and fetch the
// first table.
func (e *Engine) runCycle() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.pending = append([]string(nil), models.SyncTables...)
	e.mu.Unlock()

	e.logger.Debug("sync cycle starting")
	e.bus.Publish(events.SyncStarted)
	e.fetchNext()
}

// fetchNext requests the next table in the queue, or finishes the cycle
// when the queue is drained.
func (e *Engine) fetchNext() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	if len(e.pending) == 0 {
		e.awaiting = ""
		e.scheduleLocked(e.interval)
		e.mu.Unlock()

		e.logger.Debug("sync cycle finished")
		e.bus.Publish(events.SyncFinished)
		return
	}

	table := e.pending[0]
	e.pending = e.pending[1:]
	e.awaiting = table

	cursor, err := e.state.Cursor(table)
	if err != nil {
		e.logger.Error("failed to load cursor", "table", table, "error", err)
		e.abortLocked()
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.logger.Debug("requesting table", "table", table, "ts", cursor)
	e.sender.Send("sync", syncRequest{Query: "request", TS: cursor, Table: table})
}

// abortLocked abandons the current cycle and arms the next one.
// Callers hold e.mu.
func (e *Engine) abortLocked() {
	e.pending = nil
	e.awaiting = ""
	e.scheduleLocked(e.interval)
}

// handleSync processes one inbound sync envelope. Responses arriving when
// the engine is stopped, or for a table it is no longer awaiting, are
// discarded: applying them could resurrect progress after Stop.
func (e *Engine) handleSync(msg models.Inbound) {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()
		e.logger.Debug("discarding sync response while stopped", "type", msg.Type)
		return
	}

	if msg.Failed() {
		reason := msg.ErrorMessage()
		e.abortLocked()
		e.mu.Unlock()

		e.logger.Error("sync error, scheduling next cycle", "reason", reason)
		return
	}

	var payload models.SyncPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		e.abortLocked()
		e.mu.Unlock()

		e.logger.Error("malformed sync response", "error", err)
		return
	}

	if payload.Query != "request" {
		e.mu.Unlock()
		return
	}

	if !payload.Push && payload.Table != e.awaiting {
		e.mu.Unlock()
		e.logger.Debug("discarding stale sync response", "table", payload.Table)
		return
	}

	applied, err := e.cache.Apply(payload.Table, payload.Data)
	if err != nil {
		e.logger.Error("failed to reconcile records", "table", payload.Table, "error", err)
		e.abortLocked()
		e.mu.Unlock()
		return
	}

	if err := e.state.SetCursor(payload.Table, payload.TS); err != nil {
		e.logger.Error("failed to advance cursor", "table", payload.Table, "error", err)
		e.abortLocked()
		e.mu.Unlock()
		return
	}

	if applied > 0 {
		e.logger.Info("received records", "table", payload.Table, "count", applied)
	}

	// Push-tagged updates reconcile without continuing the table walk.
	if payload.Push {
		e.mu.Unlock()
		if applied > 0 {
			e.bus.Publish(events.SyncNewData)
		}
		return
	}

	e.awaiting = ""
	e.mu.Unlock()

	if applied > 0 {
		e.bus.Publish(events.SyncNewData)
	}
	e.fetchNext()
}
