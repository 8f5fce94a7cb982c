// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes config and the local cache
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the local cache",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// loginCommand handles credential login
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to the audiostash server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account username",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Required: true,
			},
		},
		Action: r.Login,
	}
}

// logoutCommand ends the current session
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Log out and drop the stored session",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Logout,
	}
}

// syncCommand handles library synchronization
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Library synchronization",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Keep the library synchronized until interrupted",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SyncRun,
			},
			{
				Name:   "once",
				Usage:  "Run a single sync cycle and exit",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SyncOnce,
			},
		},
	}
}

// playlistCommand handles scratchpad and named playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Scratchpad and named playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the scratchpad",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistShow,
			},
			{
				Name:      "add",
				Usage:     "Add tracks to the scratchpad",
				ArgsUsage: "TRACK_ID...",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from the scratchpad",
				ArgsUsage: "TRACK_ID",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistRemove,
			},
			{
				Name:   "clear",
				Usage:  "Empty the scratchpad",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistClear,
			},
			{
				Name:      "create",
				Usage:     "Create a named playlist on the server",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a named playlist on the server",
				ArgsUsage: "PLAYLIST_ID",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "copy",
				Usage:     "Copy the scratchpad over a named playlist",
				ArgsUsage: "PLAYLIST_ID",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistCopy,
			},
			{
				Name:      "load",
				Usage:     "Replace the scratchpad with a cached named playlist",
				ArgsUsage: "PLAYLIST_ID",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistLoad,
			},
		},
	}
}

// statusCommand prints or resets client state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show session, cursor and cache state",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Wipe the local cache and client state",
			},
		},
		Action: r.Status,
	}
}

// browseCommand opens the library TUI
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse the cached library and scratchpad",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to list",
				Value: 500,
			},
		},
		Action: r.Browse,
	}
}
