// Package barrier provides a minimal cross-process rendezvous primitive.
//
// Interference workers are separate OS processes, so in-process condition
// variables cannot coordinate them. Flags are files in a run-scoped sync
// directory: signaling creates the file, waiting polls for its existence.
// Flags are set-once and monotonic for the lifetime of a run, which makes
// file existence exactly the required semantics.
package barrier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Flag names shared by the orchestrator and its workers.
const (
	Start = "start"
	Stop  = "stop"
)

// pollInterval bounds the latency of Wait without hammering the
// filesystem the workers are already churning.
const pollInterval = 5 * time.Millisecond

// Ready returns the per-worker readiness flag name.
func Ready(workerID int) string {
	return fmt.Sprintf("ready-%d", workerID)
}

// Barrier is a handle on a sync directory. Any number of processes may
// open handles on the same directory.
type Barrier struct {
	dir string
}

// New returns a barrier backed by dir. The directory must already exist.
func New(dir string) *Barrier {
	return &Barrier{dir: dir}
}

// Dir returns the sync directory backing the barrier.
func (b *Barrier) Dir() string {
	return b.dir
}

// Signal sets the named flag. Signaling an already-set flag is a no-op.
func (b *Barrier) Signal(name string) error {
	f, err := os.OpenFile(b.flagPath(name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("signal %s: %w", name, err)
	}
	return f.Close()
}

// IsSignaled reports whether the named flag is set, without blocking.
func (b *Barrier) IsSignaled(name string) bool {
	_, err := os.Stat(b.flagPath(name))
	return err == nil
}

// Wait blocks until the named flag is set or the context is done. It
// returns immediately if the flag is already set.
func (b *Barrier) Wait(ctx context.Context, name string) error {
	if b.IsSignaled(name) {
		return nil
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-ticker.C:
			if b.IsSignaled(name) {
				return nil
			}
		}
	}
}

func (b *Barrier) flagPath(name string) string {
	return filepath.Join(b.dir, name+".flag")
}
