package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/katajakasa/audiostash/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loaded, err := shared.LoadConfig("config.toml"); err == nil {
			config = loaded
		}
	}
	logger.SetLevel(shared.ParseLogLevel(config.Logging.Level))

	runner := NewRunner(RunnerOpts{Config: config, Logger: logger})

	app := &cli.Command{
		Name:     "audiostash",
		Usage:    "Sync and browse your audiostash music library",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
