package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildmatrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\n"), 0o600))

	var reloads atomic.Int32
	cw, err := NewConfigWatcher(path, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	defer cw.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\n# edit\n"), 0o600))
	}

	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, reloads.Load(), int32(2), "a burst of writes is debounced")
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildmatrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	var reloads atomic.Int32
	cw, err := NewConfigWatcher(path, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, cw.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("y"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, reloads.Load())

	cw.Stop()
	cw.Stop()
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	cw, err := NewConfigWatcher(filepath.Join(t.TempDir(), "missing", "buildmatrix.yaml"), func(context.Context) error { return nil })
	require.NoError(t, err)
	defer cw.Stop()
	assert.Error(t, cw.Start(context.Background()))
}
