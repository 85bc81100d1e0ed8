package acceptor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenads/ds-acceptor/types"
)

const passingScript = `#!/bin/sh
echo "producer: key=1 value=100"
echo "consumer: key=1 value=100"
echo "done: produced=1 consumed=1"
exit 0
`

const failingScript = `#!/bin/sh
echo "error: dropped element"
echo "done: produced=0 consumed=0"
exit 0
`

func testConfig(t *testing.T, workDir string) *Config {
	t.Helper()
	return &Config{
		Log:     log.Root(),
		WorkDir: workDir,
		Timeout: 10 * time.Second,
		LogDir:  filepath.Join(t.TempDir(), "logs"),
	}
}

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o755))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestRunPassingSuite(t *testing.T) {
	workDir := t.TempDir()
	writeScript(t, workDir, "usertest_ok", passingScript)

	cfg := testConfig(t, workDir)
	cfg.Targets = []string{"usertest_ok"}

	a, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	result := a.Result()
	require.NotNil(t, result)
	assert.Equal(t, types.RunStatusPass, result.Status())
	assert.Equal(t, 1, result.Stats.Passed)

	// Output was persisted under the per-run log directory.
	logFile := filepath.Join(cfg.LogDir, result.RunID, "usertest_ok.log")
	assert.FileExists(t, logFile)
}

func TestRunFailingSuiteReturnsSuiteFailure(t *testing.T) {
	workDir := t.TempDir()
	writeScript(t, workDir, "usertest_bad", failingScript)

	cfg := testConfig(t, workDir)
	cfg.Targets = []string{"usertest_bad"}

	a, err := New(cfg)
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsSuiteFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Equal(t, types.RunStatusFail, a.Result().Status())
}

func TestRunListOnlySkipsExecution(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Targets = []string{"usertest_never_built"}
	cfg.ListOnly = true

	a, err := New(cfg)
	require.NoError(t, err)

	// The target does not exist; list mode must not try to run it.
	require.NoError(t, a.Run(context.Background()))
	assert.Nil(t, a.Result())
}

func TestTargetsPrefersExplicitNames(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Targets = []string{"./usertest_mpsc"}

	a, err := New(cfg)
	require.NoError(t, err)

	targets := a.targets()
	require.Len(t, targets, 1)
	assert.Equal(t, "usertest_mpsc", targets[0].Name)
}

func TestTargetsFallsBackToRegistry(t *testing.T) {
	workDir := t.TempDir()
	targetsYAML := "targets:\n  - name: usertest_a\n  - name: usertest_b\n"
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "targets.yaml"), []byte(targetsYAML), 0o644))

	a, err := New(testConfig(t, workDir))
	require.NoError(t, err)

	targets := a.targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "usertest_a", targets[0].Name)
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(types.RunStatusPass))
	assert.Equal(t, "✗ fail", getResultString(types.RunStatusFail))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "0.00s", formatDuration(0))
}
