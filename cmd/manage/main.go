package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/recipekeeper/internal/app"
	"github.com/dmitrijs2005/recipekeeper/internal/cli"
	"github.com/dmitrijs2005/recipekeeper/internal/config"
	"github.com/dmitrijs2005/recipekeeper/internal/flagx"
	"github.com/dmitrijs2005/recipekeeper/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, command, args := flagx.SplitCommand(os.Args[1:])

	cfg, err := config.LoadConfig(global)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}
	logger := logging.NewJSONLogger(os.Stderr, level)

	if command == "" {
		cli.Usage(os.Stderr)
		return 2
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return 1
	}
	defer a.Close()

	if err := cli.New(a, os.Stdin, os.Stdout).Run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
