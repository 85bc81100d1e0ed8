package stress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/arenads/ds-acceptor/stress/barrier"
)

// churnRate bounds how fast a worker cycles its file, one create/delete
// per 10ms, so interference stays sustained without saturating the host.
var churnRate = rate.Every(churnInterval)

// WorkerConfig identifies one interference worker.
type WorkerConfig struct {
	ID       int
	Core     int    // core index to pin to
	SyncDir  string // barrier directory shared with the orchestrator
	ChurnDir string // directory the worker churns files in
	Log      log.Logger
}

// ChurnFileName returns the temp filename owned by worker id. The name is
// derived from the id alone, so no two workers ever share a file.
func ChurnFileName(id int) string {
	return fmt.Sprintf("file%d.tmp", id)
}

// RunWorker is the interference worker main loop. It is invoked in a
// dedicated OS process via the hidden stress-worker CLI command.
//
// The worker pins itself to its core (best effort), signals readiness,
// blocks until the start flag, then churns create/delete cycles on its
// file until the stop flag appears. Filesystem errors inside the loop are
// swallowed: one contended operation must never kill the interference
// generator mid-run.
func RunWorker(ctx context.Context, cfg WorkerConfig) error {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}

	if err := pinToCore(cfg.Core); err != nil {
		logger.Warn("Could not set CPU affinity, continuing unpinned",
			"worker", cfg.ID, "core", cfg.Core, "error", err)
	}

	b := barrier.New(cfg.SyncDir)
	if err := b.Signal(barrier.Ready(cfg.ID)); err != nil {
		return fmt.Errorf("worker %d: %w", cfg.ID, err)
	}
	if err := b.Wait(ctx, barrier.Start); err != nil {
		return fmt.Errorf("worker %d: %w", cfg.ID, err)
	}

	path := filepath.Join(cfg.ChurnDir, ChurnFileName(cfg.ID))
	limiter := rate.NewLimiter(churnRate, 1)

	for !b.IsSignaled(barrier.Stop) {
		if f, err := os.Create(path); err == nil {
			_ = f.Close()
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		_ = os.Remove(path)
	}

	RemoveChurnFile(cfg.ChurnDir, cfg.ID)
	return nil
}

// RemoveChurnFile deletes worker id's temp file if present. It is
// idempotent: a second call, or a call when the file never existed,
// succeeds silently.
func RemoveChurnFile(dir string, id int) {
	_ = os.Remove(filepath.Join(dir, ChurnFileName(id)))
}
