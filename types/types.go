// Package types holds the shared data model for suite and stress runs.
package types

import (
	"time"
)

// RunStatus represents the possible outcomes of a target run.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
)

// TargetMetadata describes one executable under test.
type TargetMetadata struct {
	Name    string
	Path    string // resolved absolute or workdir-relative path
	Timeout time.Duration
}

// TestRun captures a single execution of a target executable.
type TestRun struct {
	Target     string
	ReturnCode int
	Elapsed    time.Duration
	Output     string // merged stdout/stderr
	Terminated bool   // target outlived its stress window and was terminated
	Workers    int    // interference worker count; zero outside stress mode
}

// Verdict is the per-target pass/fail decision derived from a TestRun
// and its parsed output.
type Verdict struct {
	Target     string
	Status     RunStatus
	ReturnCode int
	Elapsed    time.Duration
	Reasons    []string // populated only on failure
}

// SuiteStats aggregates verdict counts for a suite run.
type SuiteStats struct {
	Total  int
	Passed int
	Failed int
}

// SuiteResult aggregates the verdicts of one suite invocation.
type SuiteResult struct {
	RunID    string
	Verdicts []Verdict
	// Failures holds one descriptive entry per failed target, in run
	// order. Targets that could not be run at all (missing executable,
	// timeout) appear here with a message; validation failures appear
	// as the bare target name.
	Failures []string
	Duration time.Duration
	Stats    SuiteStats
}

// Status reports the overall suite outcome.
func (s *SuiteResult) Status() RunStatus {
	if len(s.Failures) > 0 {
		return RunStatusFail
	}
	return RunStatusPass
}

// AddVerdict records a verdict and updates the aggregate counters.
func (s *SuiteResult) AddVerdict(v Verdict) {
	s.Verdicts = append(s.Verdicts, v)
	s.Stats.Total++
	if v.Status == RunStatusPass {
		s.Stats.Passed++
	} else {
		s.Stats.Failed++
	}
}
