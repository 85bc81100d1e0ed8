package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLoggerCreatesRunDir(t *testing.T) {
	baseDir := t.TempDir()

	l, err := NewFileLogger(baseDir, "run-123")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(baseDir, "run-123"), l.LogDir())
	assert.DirExists(t, l.LogDir())
}

func TestSaveTargetOutput(t *testing.T) {
	l, err := NewFileLogger(t.TempDir(), "run-123")
	require.NoError(t, err)

	require.NoError(t, l.SaveTargetOutput("usertest_mpsc", "done: produced=3 consumed=3\n"))

	data, err := os.ReadFile(filepath.Join(l.LogDir(), "usertest_mpsc.log"))
	require.NoError(t, err)
	assert.Equal(t, "done: produced=3 consumed=3\n", string(data))
}

func TestSaveTargetOutputStripsANSI(t *testing.T) {
	l, err := NewFileLogger(t.TempDir(), "run-123")
	require.NoError(t, err)

	require.NoError(t, l.SaveTargetOutput("usertest_bst", "\x1b[32mok\x1b[0m\n"))

	data, err := os.ReadFile(filepath.Join(l.LogDir(), "usertest_bst.log"))
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(data))
}

func TestSaveTargetOutputSanitizesName(t *testing.T) {
	l, err := NewFileLogger(t.TempDir(), "run-123")
	require.NoError(t, err)

	require.NoError(t, l.SaveTargetOutput("./build out:dir/usertest_a", "x\n"))

	entries, err := os.ReadDir(l.LogDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "._build_out_dir_usertest_a.log", entries[0].Name())
}
