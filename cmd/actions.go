package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/katajakasa/audiostash/internal/auth"
	"github.com/katajakasa/audiostash/internal/events"
	"github.com/katajakasa/audiostash/internal/models"
	"github.com/katajakasa/audiostash/internal/shared"
	"github.com/katajakasa/audiostash/internal/ui"
)

// Setup creates the config file if needed and initializes the cache.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	}

	r.logger.Info("initializing cache", "path", config.Database.Path)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	return r.writePlainln("%s", ui.Styles.OK.Render("setup complete"))
}

// Login exchanges credentials for a session and persists its id.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.channel.Close()

	result := make(chan events.AuthSignal, 4)
	unsubscribe := c.buses.Auth.Subscribe(func(s events.AuthSignal) { result <- s })
	defer unsubscribe()

	creds := auth.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}
	c.dispatcher.OnOpen(func() { c.flow.Login(creds) })
	go c.channel.Run(runCtx, c.dispatcher)

	select {
	case s := <-result:
		if s == events.LoginFailed {
			return fmt.Errorf("%w: %s", shared.ErrLoginFailed, c.flow.LastError())
		}
		return r.writePlainln("%s", ui.Styles.OK.Render("logged in"))
	case <-time.After(authWait):
		return fmt.Errorf("%w: no login response", shared.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout notifies the server and destroys the local session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.channel.Close()

	if err := r.connectAuthenticated(runCtx, c); err != nil {
		// The session is already gone server-side; drop it locally too.
		c.session.Destroy()
		r.logger.Warn("could not confirm session, cleared local state", "error", err)
		return nil
	}

	c.flow.Logout()
	return r.writePlainln("%s", ui.Styles.OK.Render("logged out"))
}

// SyncRun connects and keeps the library synchronized until interrupted.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	sid, err := c.state.SessionID()
	if err != nil {
		return err
	}
	if sid == "" {
		return fmt.Errorf("%w: run login first", shared.ErrNotAuthenticated)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	var timedOut atomic.Bool
	c.wireSessionRestore(r.logger)
	c.buses.Auth.Subscribe(func(s events.AuthSignal) {
		if s == events.SessionTimeout {
			timedOut.Store(true)
			cancel()
		}
	})
	c.buses.Sync.Subscribe(func(s events.SyncSignal) {
		if s == events.SyncNewData {
			r.logger.Info("library updated")
		}
	})

	done := make(chan error, 1)
	go func() { done <- c.channel.Run(runCtx, c.dispatcher) }()

	r.writePlainln("syncing with %s; press ctrl-c to stop", config.Server.URL)
	<-runCtx.Done()

	c.engine.Stop()
	c.channel.Close()
	<-done

	if timedOut.Load() {
		return fmt.Errorf("%w: run login again", shared.ErrSessionTimeout)
	}
	return nil
}

// SyncOnce runs a single sync cycle and exits.
func (r *Runner) SyncOnce(ctx context.Context, cmd *cli.Command) error {
	config := *r.loadConfig(cmd)
	config.Sync.InitialDelay = 0

	db, err := r.openDatabase(&config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(&config, db)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.channel.Close()

	finished := make(chan struct{}, 1)
	c.buses.Sync.Subscribe(func(s events.SyncSignal) {
		if s == events.SyncFinished {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	})

	if err := r.connectAuthenticated(runCtx, c); err != nil {
		return err
	}
	c.engine.Start()

	select {
	case <-finished:
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("%w: sync cycle did not finish", shared.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	c.engine.Stop()

	counts, err := c.cache.Counts()
	if err != nil {
		return err
	}
	for _, table := range models.SyncTables {
		if err := r.writePlainln("%-14s %d", table, counts[table]); err != nil {
			return err
		}
	}
	return nil
}

// Status prints session, cursor and cache state; --reset wipes it all.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	if cmd.Bool("reset") {
		if err := c.state.Clear(); err != nil {
			return err
		}
		if err := c.cache.ClearLibrary(); err != nil {
			return err
		}
		return r.writePlainln("%s", ui.Styles.Warn.Render("local cache and client state cleared"))
	}

	if err := r.writePlainln("%s", ui.Styles.Title.Render("audiostash status")); err != nil {
		return err
	}

	sid, err := c.state.SessionID()
	if err != nil {
		return err
	}
	if sid != "" {
		r.writePlainln("session:  %s", ui.Styles.OK.Render("stored"))
	} else {
		r.writePlainln("session:  %s", ui.Styles.Dim.Render("none, run login"))
	}

	counts, err := c.cache.Counts()
	if err != nil {
		return err
	}
	for _, table := range models.SyncTables {
		cursor, err := c.state.Cursor(table)
		if err != nil {
			return err
		}
		r.writePlainln("%-14s %6d  %s", table, counts[table], ui.Styles.Dim.Render(cursor))
	}

	return r.writePlainln("scratchpad:    %6d", len(c.scratchpad.Entries()))
}

// Browse opens the TUI over the cached library and scratchpad.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	tracks, err := c.cache.Tracks(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	names := map[int64]string{}
	artistName := func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := ""
		if artist, err := c.cache.FindArtist(id); err == nil {
			name = artist.Name
		}
		names[id] = name
		return name
	}

	browser := ui.NewBrowser(tracks, artistName, c.scratchpad.Entries())
	_, err = tea.NewProgram(browser, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// parseIDArgs converts positional args to record ids.
func parseIDArgs(cmd *cli.Command) ([]int64, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, shared.ErrMissingArgument
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an id", shared.ErrInvalidInput, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PlaylistShow prints the scratchpad without touching the server.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	entries := c.scratchpad.Entries()
	if len(entries) == 0 {
		return r.writePlainln("%s", ui.Styles.Dim.Render("scratchpad is empty"))
	}
	for i, entry := range entries {
		r.writePlainln("%3d. %s %s", i+1, entry.Title, ui.Styles.Dim.Render(entry.Artist))
	}
	return nil
}

// withScratchpad runs one authenticated scratchpad mutation.
func (r *Runner) withScratchpad(ctx context.Context, cmd *cli.Command, op func(*client) error) error {
	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.channel.Close()

	if err := r.connectAuthenticated(runCtx, c); err != nil {
		return err
	}
	return op(c)
}

// PlaylistAdd appends tracks to the scratchpad.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDArgs(cmd)
	if err != nil {
		return err
	}
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		if err := c.scratchpad.AddTracks(ids); err != nil {
			return err
		}
		return r.writePlainln("%s", ui.Styles.OK.Render(fmt.Sprintf("%d track(s) added", len(ids))))
	})
}

// PlaylistRemove removes one track from the scratchpad.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDArgs(cmd)
	if err != nil {
		return err
	}
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		for _, id := range ids {
			c.scratchpad.RemoveTrack(id)
		}
		return r.writePlainln("%s", ui.Styles.OK.Render("removed"))
	})
}

// PlaylistClear empties the scratchpad.
func (r *Runner) PlaylistClear(ctx context.Context, cmd *cli.Command) error {
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		c.scratchpad.Clear()
		return r.writePlainln("%s", ui.Styles.OK.Render("scratchpad cleared"))
	})
}

// PlaylistCreate creates a named playlist server-side.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return shared.ErrMissingArgument
	}
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		c.scratchpad.CreatePlaylist(name)
		return r.writePlainln("playlist %q requested; it appears after the next sync", name)
	})
}

// PlaylistDelete deletes a named playlist server-side.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDArgs(cmd)
	if err != nil {
		return err
	}
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		for _, id := range ids {
			c.scratchpad.DeletePlaylist(id)
		}
		return r.writePlainln("%s", ui.Styles.OK.Render("delete requested"))
	})
}

// PlaylistCopy copies the scratchpad over a named playlist server-side.
func (r *Runner) PlaylistCopy(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDArgs(cmd)
	if err != nil {
		return err
	}
	return r.withScratchpad(ctx, cmd, func(c *client) error {
		c.scratchpad.CopyScratchpad(ids[0])
		return r.writePlainln("%s", ui.Styles.OK.Render("copy requested"))
	})
}

// PlaylistLoad replaces the scratchpad with a cached named playlist.
func (r *Runner) PlaylistLoad(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDArgs(cmd)
	if err != nil {
		return err
	}

	config := r.loadConfig(cmd)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	c := r.buildClient(config, db)
	if err := c.scratchpad.LoadPlaylist(ids[0]); err != nil {
		return err
	}
	return r.PlaylistShow(ctx, cmd)
}
