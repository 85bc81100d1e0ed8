package acceptor

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/arenads/ds-acceptor/registry"
	"github.com/arenads/ds-acceptor/stress"
	"github.com/arenads/ds-acceptor/types"
)

// RunStress discovers target executables in the work directory, runs each
// under interference for the configured window, and prints a summary
// table. Stress mode exercises targets that run indefinitely; verdicts
// come from the suite mode, not from here.
func (a *Acceptor) RunStress(ctx context.Context) error {
	names := make([]string, 0, len(a.registry.Targets()))
	for _, t := range a.registry.Targets() {
		names = append(names, t.Name)
	}
	targets := registry.DiscoverExecutables(a.config.Log, a.config.WorkDir, names)
	if len(targets) == 0 {
		return NewRuntimeError(fmt.Errorf("no executables found in %s (run `make usertest`)", a.config.WorkDir))
	}

	orch, err := stress.NewOrchestrator(stress.Config{
		Log:     a.config.Log,
		WorkDir: a.config.WorkDir,
	})
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create orchestrator: %w", err))
	}

	a.config.Log.Info("Starting stress runs",
		"targets", len(targets), "cores", stress.CoreCount(), "duration", a.config.StressDuration)

	runs := make([]*types.TestRun, 0, len(targets))
	for _, target := range targets {
		run, err := orch.RunWithInterference(ctx, target, a.config.StressDuration)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("stress run of %s: %w", target.Name, err))
		}
		if a.config.Verbose && run.Output != "" {
			fmt.Printf("\n===== %s output =====\n%s\n", run.Target, run.Output)
		}
		runs = append(runs, run)
	}

	printStressSummary(runs)
	return nil
}

// printStressSummary prints the per-target stress outcomes.
func printStressSummary(runs []*types.TestRun) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Stress Summary")
	t.AppendHeader(table.Row{"Target", "Return Code", "Elapsed", "Workers"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Return Code", Align: text.AlignRight},
		{Name: "Elapsed", Align: text.AlignRight},
		{Name: "Workers", Align: text.AlignRight},
	})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.Target,
			run.ReturnCode,
			formatDuration(run.Elapsed),
			run.Workers,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
