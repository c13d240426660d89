package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/mstarsupply/mstarsupply/cmd/mstarctl/cli"
	"github.com/mstarsupply/mstarsupply/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 || os.Args[1] != "jobs" {
		_, _ = fmt.Fprintln(os.Stderr, "usage: mstarctl jobs <trigger|stats|scheduled> [flags]")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	jobsCLI := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			slog.Default().Warn("close jobs cli", slog.Any("error", err))
		}
	}()
	return jobsCLI.JobsCommand(ctx, os.Args[2:], cli.CommandOptions{})
}
