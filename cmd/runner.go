package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/katajakasa/audiostash/internal/auth"
	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/playlist"
	"github.com/katajakasa/audiostash/internal/repositories"
	"github.com/katajakasa/audiostash/internal/shared"
	"github.com/katajakasa/audiostash/internal/socket"
	"github.com/katajakasa/audiostash/internal/stash"
)

// authWait caps how long one-shot commands wait for an auth response.
const authWait = 15 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{config: opts.Config, logger: opts.Logger, output: opts.Output}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, syncCommand, playlistCommand, statusCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig resolves the config for a command invocation: the --config
// flag wins, falling back to the runner's config.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		return r.config
	}
	return config
}

// openDatabase opens the library cache and brings its schema up to date.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return db, nil
}

// client bundles the wired engine stack behind one channel.
type client struct {
	cache      *repositories.Cache
	state      *repositories.StateStore
	buses      *events.Buses
	channel    *socket.WSChannel
	dispatcher *socket.Dispatcher
	session    *auth.Session
	flow       *auth.Flow
	engine     *stash.Engine
	scratchpad *playlist.Manager
}

// buildClient wires every component onto one dispatcher. Open-event wiring
// is left to the caller: the daemon restores sessions on open, login sends
// credentials instead.
func (r *Runner) buildClient(config *shared.Config, db *sql.DB) *client {
	cache := repositories.NewCache(db)
	state := repositories.NewStateStore(db)
	buses := events.NewBuses()

	channel := socket.NewWSChannel(config.Server.URL, config.Server.DialsPerMinute,
		shared.ComponentLogger(r.logger, "socket"))
	dispatcher := socket.NewDispatcher(channel, shared.ComponentLogger(r.logger, "dispatch"))

	session := auth.NewSession(state, shared.ComponentLogger(r.logger, "session"))
	flow := auth.NewFlow(dispatcher, session, buses.Auth, shared.ComponentLogger(r.logger, "auth"))
	flow.Setup(dispatcher)

	engine := stash.NewEngine(stash.EngineOpts{
		Sender:       dispatcher,
		Cache:        cache,
		State:        state,
		Bus:          buses.Sync,
		Logger:       shared.ComponentLogger(r.logger, "sync"),
		Interval:     config.Sync.IntervalDuration(),
		InitialDelay: config.Sync.InitialDelayDuration(),
	})
	engine.Setup(dispatcher)

	scratchpad := playlist.NewManager(dispatcher, cache, state, buses.Playlist,
		shared.ComponentLogger(r.logger, "playlist"))
	scratchpad.Setup(dispatcher)

	return &client{
		cache:      cache,
		state:      state,
		buses:      buses,
		channel:    channel,
		dispatcher: dispatcher,
		session:    session,
		flow:       flow,
		engine:     engine,
		scratchpad: scratchpad,
	}
}

// wireSessionRestore makes every channel open attempt session restore and
// re-authentication. The engine only starts once the server confirms, via
// the login-success signal.
func (c *client) wireSessionRestore(logger *log.Logger) {
	c.dispatcher.OnOpen(func() {
		if c.session.Restore() {
			c.flow.Authenticate()
			return
		}
		logger.Warn("no stored session, not authenticating")
	})
	c.buses.Auth.Subscribe(func(s events.AuthSignal) {
		switch s {
		case events.LoginSuccess:
			c.engine.Start()
		case events.LogoutBegin, events.SessionTimeout:
			c.engine.Stop()
		}
	})
}

// connectAuthenticated dials the channel, restores the stored session and
// waits for the server to confirm it. Used by one-shot commands that need
// an authenticated channel. The caller must cancel ctx and close the
// channel when done.
func (r *Runner) connectAuthenticated(ctx context.Context, c *client) error {
	sid, err := c.state.SessionID()
	if err != nil {
		return err
	}
	if sid == "" {
		return fmt.Errorf("%w: run login first", shared.ErrNotAuthenticated)
	}

	result := make(chan events.AuthSignal, 4)
	unsubscribe := c.buses.Auth.Subscribe(func(s events.AuthSignal) { result <- s })
	defer unsubscribe()

	c.dispatcher.OnOpen(func() {
		if c.session.Restore() {
			c.flow.Authenticate()
		}
	})
	go c.channel.Run(ctx, c.dispatcher)

	for {
		select {
		case s := <-result:
			switch s {
			case events.LoginSuccess:
				return nil
			case events.SessionTimeout:
				return shared.ErrSessionTimeout
			}
		case <-time.After(authWait):
			return fmt.Errorf("%w: no auth response", shared.ErrTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
