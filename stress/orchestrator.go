// Package stress drives a target executable under sustained multi-process
// filesystem interference.
//
// The orchestrator spawns one interference worker process per core,
// rendezvouses with them through a file-flag barrier, runs the target for a
// fixed window while the workers churn, then tears everything down with a
// graceful-then-forced policy.
package stress

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/arenads/ds-acceptor/stress/barrier"
	"github.com/arenads/ds-acceptor/types"
)

// Config configures an Orchestrator.
type Config struct {
	Log     log.Logger
	WorkDir string // directory targets run in and workers churn in

	// WorkerCount overrides the default of one worker per logical core.
	WorkerCount int

	GracePeriod time.Duration
	JoinTimeout time.Duration

	// WorkerCommand builds the process for one interference worker. Nil
	// selects the default: re-exec this binary's hidden stress-worker
	// command.
	WorkerCommand func(WorkerConfig) (*exec.Cmd, error)
}

// Orchestrator runs targets with concurrent interference workers.
type Orchestrator struct {
	log           log.Logger
	workDir       string
	workerCount   int
	gracePeriod   time.Duration
	joinTimeout   time.Duration
	workerCommand func(WorkerConfig) (*exec.Cmd, error)
}

// NewOrchestrator validates the config and applies defaults.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = CoreCount()
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.JoinTimeout == 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	if cfg.WorkerCommand == nil {
		cfg.WorkerCommand = selfWorkerCommand
	}
	return &Orchestrator{
		log:           cfg.Log,
		workDir:       cfg.WorkDir,
		workerCount:   cfg.WorkerCount,
		gracePeriod:   cfg.GracePeriod,
		joinTimeout:   cfg.JoinTimeout,
		workerCommand: cfg.WorkerCommand,
	}, nil
}

// CoreCount returns the number of logical cores, falling back to
// runtime.NumCPU if the host query fails.
func CoreCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// selfWorkerCommand re-execs the current binary as a worker process.
func selfWorkerCommand(cfg WorkerConfig) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own binary: %w", err)
	}
	cmd := exec.Command(exe, "stress-worker",
		"--id", strconv.Itoa(cfg.ID),
		"--core", strconv.Itoa(cfg.Core),
		"--sync-dir", cfg.SyncDir,
		"--churn-dir", cfg.ChurnDir,
	)
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// RunWithInterference executes the target for the given wall-clock
// duration while interference workers churn the filesystem.
//
// Ordering guarantees: no worker churns before all workers are ready, the
// target is launched before start is signaled (so the interference and
// target windows fully overlap), and stop is signaled only after the
// target has been terminated.
func (o *Orchestrator) RunWithInterference(ctx context.Context, target types.TargetMetadata, duration time.Duration) (*types.TestRun, error) {
	syncDir, err := os.MkdirTemp("", "ds-stress-sync-")
	if err != nil {
		return nil, fmt.Errorf("creating sync directory: %w", err)
	}
	defer os.RemoveAll(syncDir)

	coreTotal := CoreCount()
	o.log.Info("Spawning interference workers",
		"target", target.Name, "workers", o.workerCount, "duration", duration)

	workers := make([]*exec.Cmd, 0, o.workerCount)
	for i := 0; i < o.workerCount; i++ {
		cmd, err := o.workerCommand(WorkerConfig{
			ID:       i,
			Core:     i % coreTotal,
			SyncDir:  syncDir,
			ChurnDir: o.workDir,
		})
		if err != nil {
			return nil, fmt.Errorf("building worker %d: %w", i, err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("starting worker %d: %w", i, err)
		}
		workers = append(workers, cmd)
	}

	b := barrier.New(syncDir)
	for i := range workers {
		if err := b.Wait(ctx, barrier.Ready(i)); err != nil {
			return nil, fmt.Errorf("worker readiness: %w", err)
		}
	}
	o.log.Debug("All interference workers ready", "workers", len(workers))

	// Launch the target before releasing the workers so the stress
	// window covers the target's whole lifetime.
	var output bytes.Buffer
	targetCmd := exec.Command(target.Path)
	targetCmd.Dir = o.workDir
	targetCmd.Stdout = &output
	targetCmd.Stderr = &output

	start := time.Now()
	if err := targetCmd.Start(); err != nil {
		// Release workers still blocked on start so they observe stop and
		// exit instead of sitting out the join timeout.
		b.Signal(barrier.Start) //nolint:errcheck
		b.Signal(barrier.Stop)  //nolint:errcheck
		o.joinWorkers(workers)
		return nil, fmt.Errorf("starting target %s: %w", target.Name, err)
	}

	targetDone := make(chan error, 1)
	go func() { targetDone <- targetCmd.Wait() }()

	if err := b.Signal(barrier.Start); err != nil {
		o.log.Error("Failed to release workers", "error", err)
	}

	// The duration is a fixed stress window, not an early-exit scheme:
	// the target is expected to run indefinitely and is terminated, not
	// awaited.
	select {
	case <-time.After(duration):
	case <-ctx.Done():
		o.log.Warn("Stress run interrupted", "error", ctx.Err())
	}

	returnCode, terminated := o.terminate(targetCmd, targetDone)
	elapsed := time.Since(start)

	if err := b.Signal(barrier.Stop); err != nil {
		o.log.Error("Failed to signal stop", "error", err)
	}
	o.joinWorkers(workers)

	// Sweep covers workers that were killed before their own cleanup.
	for i := range workers {
		RemoveChurnFile(o.workDir, i)
	}

	return &types.TestRun{
		Target:     target.Name,
		ReturnCode: returnCode,
		Elapsed:    elapsed,
		Output:     output.String(),
		Terminated: terminated,
		Workers:    len(workers),
	}, nil
}

// terminate reaps the target at the end of the stress window. A target
// that already exited keeps its own code; one still running gets a
// graceful exit request, the grace period, then a force-kill. The
// signal-indicated code of a terminated target is the expected outcome
// for an indefinitely running target, so the two cases are distinguished
// for the caller.
func (o *Orchestrator) terminate(cmd *exec.Cmd, done <-chan error) (int, bool) {
	select {
	case <-done:
		return cmd.ProcessState.ExitCode(), false
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		o.log.Debug("Graceful termination request failed", "error", err)
	}
	select {
	case <-done:
	case <-time.After(o.gracePeriod):
		o.log.Warn("Target ignored termination request, killing", "grace", o.gracePeriod)
		if err := cmd.Process.Kill(); err != nil {
			o.log.Error("Failed to kill target", "error", err)
		}
		<-done
	}
	return cmd.ProcessState.ExitCode(), true
}

// joinWorkers waits for each worker with a bounded timeout. Workers that
// do not exit in time are abandoned; the leak is logged, not fatal.
func (o *Orchestrator) joinWorkers(workers []*exec.Cmd) {
	for i, cmd := range workers {
		done := make(chan error, 1)
		go func(c *exec.Cmd) { done <- c.Wait() }(cmd)
		select {
		case <-done:
		case <-time.After(o.joinTimeout):
			o.log.Warn("Interference worker did not exit in time, abandoning", "worker", i)
		}
	}
}
