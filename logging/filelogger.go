// Package logging persists captured target output for post-run
// inspection.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"
)

// FileLogger writes each target's captured output to
// <baseDir>/<runID>/<target>.log.
type FileLogger struct {
	runDir string
}

// NewFileLogger creates the per-run log directory.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &FileLogger{runDir: runDir}, nil
}

// LogDir returns the directory output files are written to.
func (l *FileLogger) LogDir() string {
	return l.runDir
}

// SaveTargetOutput writes one target's output, ANSI-stripped so the file
// is readable in any pager.
func (l *FileLogger) SaveTargetOutput(target, output string) error {
	path := filepath.Join(l.runDir, sanitizeFilename(target)+".log")
	clean := stripansi.Strip(output)
	if err := os.WriteFile(path, []byte(clean), 0o644); err != nil {
		return fmt.Errorf("writing target log: %w", err)
	}
	return nil
}

// sanitizeFilename keeps target-derived filenames path-safe.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
