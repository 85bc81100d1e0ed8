package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	acceptor "github.com/arenads/ds-acceptor"
	"github.com/arenads/ds-acceptor/exitcodes"
	"github.com/arenads/ds-acceptor/flags"
	"github.com/arenads/ds-acceptor/stress"
)

var (
	Version   = "v0.2.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "ds-acceptor"
	app.Usage = "Concurrent data structure acceptance tester"
	app.Description = "ds-acceptor runs usertest executables, validates their producer/consumer logs, and stress-tests them under multi-process filesystem interference."
	app.ArgsUsage = "[targets...]"
	app.Flags = flags.Flags
	app.Action = runSuite
	app.Commands = []*cli.Command{
		{
			Name:   "stress",
			Usage:  "Run each discovered executable under filesystem interference",
			Flags:  flags.StressFlags,
			Action: runStress,
		},
		{
			Name:   "stress-worker",
			Hidden: true,
			Flags:  flags.WorkerFlags,
			Action: runWorker,
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Map typed errors onto the exit code contract
			if acceptor.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if acceptor.IsSuiteFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.SuiteFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.SuiteFailure))
			}
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func runSuite(ctx *cli.Context) error {
	logger := setupLogger(ctx)
	cfg, err := acceptor.NewConfig(ctx, logger)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	svc, err := acceptor.New(cfg)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create acceptor: %w", err))
	}
	return svc.Run(ctx.Context)
}

func runStress(ctx *cli.Context) error {
	logger := setupLogger(ctx)
	cfg, err := acceptor.NewConfig(ctx, logger)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	svc, err := acceptor.New(cfg)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create acceptor: %w", err))
	}
	return svc.RunStress(ctx.Context)
}

// runWorker is the hidden entrypoint the orchestrator re-execs for each
// interference worker process.
func runWorker(ctx *cli.Context) error {
	logger := setupLogger(ctx)
	if err := flags.CheckRequired(ctx, flags.WorkerFlags); err != nil {
		return err
	}
	return stress.RunWorker(ctx.Context, stress.WorkerConfig{
		ID:       ctx.Int(flags.WorkerID.Name),
		Core:     ctx.Int(flags.WorkerCore.Name),
		SyncDir:  ctx.String(flags.WorkerSyncDir.Name),
		ChurnDir: ctx.String(flags.WorkerChurnDir.Name),
		Log:      logger,
	})
}

func setupLogger(ctx *cli.Context) log.Logger {
	level := slog.LevelInfo
	if ctx.Bool(flags.Verbose.Name) {
		level = slog.LevelDebug
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, level, false)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger
}
