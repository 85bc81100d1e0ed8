// Package acceptor validates concurrent data-structure executables from
// their captured logs and stress-tests them under filesystem
// interference.
package acceptor

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/arenads/ds-acceptor/flags"
)

// Config is the resolved CLI configuration.
type Config struct {
	Log log.Logger

	WorkDir     string
	TargetsFile string
	Targets     []string // explicit positional target names; empty selects the registry's list

	Timeout   time.Duration
	KeepGoing bool
	Quiet     bool
	Verbose   bool
	ListOnly  bool
	Build     bool
	LogDir    string

	Stress         bool // route suite targets through the interference orchestrator
	StressDuration time.Duration
}

// NewConfig builds a Config from CLI context.
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Config{
		Log:            logger,
		WorkDir:        ctx.String(flags.WorkDir.Name),
		TargetsFile:    ctx.String(flags.TargetsFile.Name),
		Targets:        ctx.Args().Slice(),
		Timeout:        ctx.Duration(flags.Timeout.Name),
		KeepGoing:      ctx.Bool(flags.KeepGoing.Name),
		Quiet:          ctx.Bool(flags.Quiet.Name),
		Verbose:        ctx.Bool(flags.Verbose.Name),
		ListOnly:       ctx.Bool(flags.List.Name),
		Build:          ctx.Bool(flags.Build.Name),
		LogDir:         ctx.String(flags.LogDir.Name),
		Stress:         ctx.Bool(flags.Stress.Name),
		StressDuration: ctx.Duration(flags.StressDuration.Name),
	}, nil
}
