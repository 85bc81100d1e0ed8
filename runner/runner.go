// Package runner executes target executables sequentially and applies the
// log validator to each.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/arenads/ds-acceptor/logging"
	"github.com/arenads/ds-acceptor/metrics"
	"github.com/arenads/ds-acceptor/stress"
	"github.com/arenads/ds-acceptor/types"
	"github.com/arenads/ds-acceptor/validator"
)

// DefaultTimeout is the per-target time limit when none is configured.
const DefaultTimeout = 120 * time.Second

// Config contains suite runner configuration.
type Config struct {
	Log       log.Logger
	WorkDir   string
	Timeout   time.Duration // per-target; zero selects DefaultTimeout
	KeepGoing bool          // continue past the first failing target
	Quiet     bool          // suppress target output echoing
	Verbose   bool          // echo the command before each run
	Out       io.Writer     // reporting stream; defaults to os.Stdout
	RunID     string        // suite run identity; generated when empty

	// FileLogger, when set, persists each target's output.
	FileLogger *logging.FileLogger

	// Stress, when set, routes every target through the interference
	// orchestrator for StressDuration instead of a plain capture.
	Stress         *stress.Orchestrator
	StressDuration time.Duration
}

// Runner runs a suite of targets, strictly sequentially.
type Runner struct {
	cfg Config
}

// NewRunner validates the config and applies defaults.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Stress != nil && cfg.StressDuration == 0 {
		cfg.StressDuration = stress.DefaultDuration
	}
	return &Runner{cfg: cfg}, nil
}

// RunSuite runs each target in order and aggregates verdicts. Per-target
// failures never abort the suite with an error; they become failure
// records. The returned error is reserved for environment breakage that
// prevents running at all.
func (r *Runner) RunSuite(ctx context.Context, targets []types.TargetMetadata) (*types.SuiteResult, error) {
	runID := r.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	result := &types.SuiteResult{RunID: runID}
	start := time.Now()

	for _, target := range targets {
		run, err := r.runTarget(ctx, target)
		if err != nil {
			// Environment failure: the target never produced output
			// worth validating.
			r.cfg.Log.Error("Target could not be run", "target", target.Name, "error", err)
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", target.Name, err))
			result.AddVerdict(types.Verdict{
				Target:  target.Name,
				Status:  types.RunStatusFail,
				Reasons: []string{err.Error()},
			})
			metrics.RecordVerdict(result.RunID, target.Name, types.RunStatusFail)
			if !r.cfg.KeepGoing {
				break
			}
			continue
		}

		verdict := r.evaluate(result.RunID, run)
		result.AddVerdict(verdict)
		metrics.RecordVerdict(result.RunID, target.Name, verdict.Status)

		if verdict.Status != types.RunStatusPass {
			result.Failures = append(result.Failures, target.Name)
			fmt.Fprintf(r.cfg.Out, "[%s] FAILED (rc=%d)\n", target.Name, run.ReturnCode)
			if !r.cfg.KeepGoing {
				break
			}
		} else {
			fmt.Fprintf(r.cfg.Out, "[%s] ok\n", target.Name)
		}
	}

	result.Duration = time.Since(start)
	metrics.RecordSuite(result.RunID, result.Status(), result.Stats, result.Duration)
	return result, nil
}

// runTarget executes one target and captures its merged output. Missing
// executables and timeouts surface as errors; every other outcome is a
// TestRun for the validator to judge.
func (r *Runner) runTarget(ctx context.Context, target types.TargetMetadata) (*types.TestRun, error) {
	info, err := os.Stat(target.Path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("missing executable: %s (run `make usertest`)", target.Path)
	}

	if r.cfg.Stress != nil {
		return r.cfg.Stress.RunWithInterference(ctx, target, r.cfg.StressDuration)
	}

	timeout := target.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, target.Path)
	cmd.Dir = r.cfg.WorkDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if r.cfg.Verbose {
		fmt.Fprintf(r.cfg.Out, "[run] %s\n", target.Path)
	}
	r.cfg.Log.Debug("Running target", "target", target.Name, "path", target.Path, "timeout", timeout)

	runStart := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(runStart)

	if tctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("timed out after %v", timeout)
	}

	returnCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			returnCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("running %s: %w", target.Name, runErr)
		}
	}

	return &types.TestRun{
		Target:     target.Name,
		ReturnCode: returnCode,
		Elapsed:    elapsed,
		Output:     output.String(),
	}, nil
}

// evaluate parses and validates a run's output and reports it per the
// configured verbosity.
func (r *Runner) evaluate(runID string, run *types.TestRun) types.Verdict {
	clean := stripansi.Strip(run.Output)

	if !r.cfg.Quiet {
		fmt.Fprintf(r.cfg.Out, "\n===== %s (rc=%d) =====\n", run.Target, run.ReturnCode)
		io.WriteString(r.cfg.Out, clean) //nolint:errcheck
		if !strings.HasSuffix(clean, "\n") {
			io.WriteString(r.cfg.Out, "\n") //nolint:errcheck
		}
	}

	if r.cfg.FileLogger != nil {
		if err := r.cfg.FileLogger.SaveTargetOutput(run.Target, run.Output); err != nil {
			r.cfg.Log.Warn("Could not persist target output", "target", run.Target, "error", err)
		}
	}

	// A target terminated at the end of its stress window exits with a
	// signal-indicated code. That is the expected outcome for a target
	// that runs indefinitely, so only the log checks apply to it.
	returnCode := run.ReturnCode
	if run.Terminated {
		returnCode = 0
	}

	parsed := validator.Parse(clean)
	res := validator.Validate(parsed, returnCode)

	verdict := types.Verdict{
		Target:     run.Target,
		ReturnCode: run.ReturnCode,
		Elapsed:    run.Elapsed,
	}
	if res.OK {
		verdict.Status = types.RunStatusPass
	} else {
		verdict.Status = types.RunStatusFail
		verdict.Reasons = res.Reasons
		r.cfg.Log.Debug("Validation failed", "target", run.Target, "reasons", strings.Join(res.Reasons, "; "))
	}
	return verdict
}
