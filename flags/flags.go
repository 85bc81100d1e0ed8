package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "DS_ACCEPTOR"

// prefixEnvVars names the env-var fallback for a flag.
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   ".",
		EnvVars: prefixEnvVars("WORKDIR"),
		Usage:   "Directory containing the target executables",
	}
	TargetsFile = &cli.StringFlag{
		Name:    "targets",
		Value:   "",
		EnvVars: prefixEnvVars("TARGETS"),
		Usage:   "Path to an optional targets file (eg. 'targets.yaml')",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   120 * time.Second,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Per-target timeout",
	}
	KeepGoing = &cli.BoolFlag{
		Name:    "keep-going",
		Value:   false,
		EnvVars: prefixEnvVars("KEEP_GOING"),
		Usage:   "Continue running remaining targets after a failure",
	}
	Quiet = &cli.BoolFlag{
		Name:    "quiet",
		Value:   false,
		EnvVars: prefixEnvVars("QUIET"),
		Usage:   "Suppress target output (only print pass/fail)",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Value:   false,
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Verbose runner output (prints commands, debug logging)",
	}
	List = &cli.BoolFlag{
		Name:  "list",
		Value: false,
		Usage: "List resolved targets and exit",
	}
	Build = &cli.BoolFlag{
		Name:    "build",
		Value:   false,
		EnvVars: prefixEnvVars("BUILD"),
		Usage:   "Run `make usertest` before executing",
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOG_DIR"),
		Usage:   "Directory captured target output is persisted under",
	}

	Stress = &cli.BoolFlag{
		Name:    "stress",
		Value:   false,
		EnvVars: prefixEnvVars("STRESS"),
		Usage:   "Run each target under filesystem interference during the suite",
	}
	StressDuration = &cli.DurationFlag{
		Name:    "duration",
		Value:   10 * time.Second,
		EnvVars: prefixEnvVars("STRESS_DURATION"),
		Usage:   "Stress window applied to each target",
	}

	WorkerID = &cli.IntFlag{
		Name:     "id",
		Required: true,
		Usage:    "Interference worker id",
	}
	WorkerCore = &cli.IntFlag{
		Name:     "core",
		Required: true,
		Usage:    "Core index the worker pins to",
	}
	WorkerSyncDir = &cli.StringFlag{
		Name:     "sync-dir",
		Required: true,
		Usage:    "Barrier sync directory",
	}
	WorkerChurnDir = &cli.StringFlag{
		Name:     "churn-dir",
		Required: true,
		Usage:    "Directory the worker churns files in",
	}
)

// Flags is the suite runner flag set.
var Flags = []cli.Flag{
	WorkDir,
	TargetsFile,
	Timeout,
	KeepGoing,
	Quiet,
	Verbose,
	List,
	Build,
	LogDir,
	Stress,
	StressDuration,
}

// StressFlags is the stress command flag set.
var StressFlags = []cli.Flag{
	WorkDir,
	StressDuration,
	Verbose,
}

// WorkerFlags is the hidden stress-worker command flag set.
var WorkerFlags = []cli.Flag{
	WorkerID,
	WorkerCore,
	WorkerSyncDir,
	WorkerChurnDir,
}

// CheckRequired verifies required flags are set.
func CheckRequired(ctx *cli.Context, required []cli.Flag) error {
	for _, f := range required {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
