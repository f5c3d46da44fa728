package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewFileWatcherValidation(t *testing.T) {
	_, err := NewFileWatcher(nil, 0, func() {}, nil)
	assert.Error(t, err)

	_, err = NewFileWatcher([]string{"", ""}, 0, func() {}, nil)
	assert.Error(t, err)

	_, err = NewFileWatcher([]string{"policies.yaml"}, 0, nil, nil)
	assert.Error(t, err)

	w, err := NewFileWatcher([]string{"policies.yaml"}, 0, func() {}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.True(t, filepath.IsAbs(w.Files()[0]))
}

func TestFileWatcherTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(file, []byte("leave_types: {}\n"), 0o600))

	var calls atomic.Int32
	w, err := NewFileWatcher([]string{file}, 20*time.Millisecond, func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start must fail")

	require.NoError(t, os.WriteFile(file, []byte("leave_types:\n  casual: {}\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(file, future, future))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop(), "stopping twice is a no-op")
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	var calls atomic.Int32
	w, err := NewFileWatcher([]string{file}, 10*time.Millisecond, func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("y"), 0o600))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}
