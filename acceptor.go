package acceptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/arenads/ds-acceptor/logging"
	"github.com/arenads/ds-acceptor/metrics"
	"github.com/arenads/ds-acceptor/registry"
	"github.com/arenads/ds-acceptor/runner"
	"github.com/arenads/ds-acceptor/stress"
	"github.com/arenads/ds-acceptor/types"
)

// Acceptor ties the registry, suite runner and reporting together.
type Acceptor struct {
	config   *Config
	registry *registry.Registry
	result   *types.SuiteResult
}

// New builds the acceptor service from a config.
func New(config *Config) (*Acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating acceptor with config",
		"workDir", config.WorkDir,
		"targetsFile", config.TargetsFile,
		"timeout", config.Timeout,
		"keepGoing", config.KeepGoing)

	reg, err := registry.NewRegistry(registry.Config{
		Log:            config.Log,
		WorkDir:        config.WorkDir,
		TargetsFile:    config.TargetsFile,
		DefaultTimeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &Acceptor{
		config:   config,
		registry: reg,
	}, nil
}

// Run executes the suite once: optional build step, sequential target
// runs, results table, failure summary. The returned error encodes the
// exit code: RuntimeError for environment breakage, SuiteFailureError
// when any target failed, nil when everything passed.
func (a *Acceptor) Run(ctx context.Context) error {
	targets := a.targets()

	if a.config.ListOnly {
		for _, t := range targets {
			fmt.Println(t.Name)
		}
		return nil
	}

	if a.config.Build {
		if err := a.build(ctx); err != nil {
			return NewRuntimeError(err)
		}
	}

	runID := uuid.New().String()
	fileLogger, err := logging.NewFileLogger(a.config.LogDir, runID)
	if err != nil {
		a.config.Log.Warn("Could not create log directory, output will not be persisted", "error", err)
		fileLogger = nil
	}

	runnerCfg := runner.Config{
		Log:        a.config.Log,
		WorkDir:    a.config.WorkDir,
		Timeout:    a.config.Timeout,
		KeepGoing:  a.config.KeepGoing,
		Quiet:      a.config.Quiet,
		Verbose:    a.config.Verbose,
		RunID:      runID,
		FileLogger: fileLogger,
	}
	if a.config.Stress {
		orch, err := stress.NewOrchestrator(stress.Config{
			Log:     a.config.Log,
			WorkDir: a.config.WorkDir,
		})
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to create orchestrator: %w", err))
		}
		runnerCfg.Stress = orch
		runnerCfg.StressDuration = a.config.StressDuration
	}

	suiteRunner, err := runner.NewRunner(runnerCfg)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create runner: %w", err))
	}

	result, err := suiteRunner.RunSuite(ctx, targets)
	if err != nil {
		metrics.RecordErrorDetails("suite", err)
		return NewRuntimeError(err)
	}
	a.result = result

	a.printResultsTable()
	a.printFailures()
	a.config.Log.Info("Suite run completed", "run_id", result.RunID, "status", result.Status())

	if result.Status() == types.RunStatusFail {
		return NewSuiteFailureError(fmt.Sprintf("%d of %d targets failed",
			result.Stats.Failed, result.Stats.Total))
	}
	return nil
}

// Result returns the most recent suite result.
func (a *Acceptor) Result() *types.SuiteResult {
	return a.result
}

// targets resolves explicit positional names, falling back to the
// registry's list.
func (a *Acceptor) targets() []types.TargetMetadata {
	if len(a.config.Targets) > 0 {
		return a.registry.Resolve(a.config.Targets)
	}
	return a.registry.Targets()
}

// build runs the external build step for the targets.
func (a *Acceptor) build(ctx context.Context) error {
	a.config.Log.Info("Building targets", "dir", a.config.WorkDir)
	cmd := exec.CommandContext(ctx, "make", "usertest", "-j")
	cmd.Dir = a.config.WorkDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build step failed: %w", err)
	}
	return nil
}

// printResultsTable prints the per-target verdicts to the console.
func (a *Acceptor) printResultsTable() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Usertest Results (%s)", formatDuration(a.result.Duration)))

	t.AppendHeader(table.Row{"Target", "Duration", "RC", "Status", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "RC", Align: text.AlignRight},
		{Name: "Reason", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, v := range a.result.Verdicts {
		t.AppendRow(table.Row{
			v.Target,
			formatDuration(v.Elapsed),
			v.ReturnCode,
			getResultString(v.Status),
			strings.Join(v.Reasons, "; "),
		})
	}

	if a.result.Status() == types.RunStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		formatDuration(a.result.Duration),
		"",
		fmt.Sprintf("%d/%d passed", a.result.Stats.Passed, a.result.Stats.Total),
		"",
	})
	t.Render()
}

// printFailures emits the aggregate failure list to stderr.
func (a *Acceptor) printFailures() {
	if len(a.result.Failures) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nFailures:\n")
	for _, f := range a.result.Failures {
		fmt.Fprintf(os.Stderr, "  - %s\n", f)
	}
}

// getResultString returns a symbol-annotated verdict string.
func getResultString(status types.RunStatus) string {
	if status == types.RunStatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// formatDuration formats a duration as seconds with 2 decimal places.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
