package tokencache

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

func TestNewWatcher_Defaults(t *testing.T) {
	w := NewWatcher(WatcherConfig{Path: "/tmp/cache.bin"})

	assert.Equal(t, DefaultPollInterval, w.config.PollInterval)
	assert.Equal(t, DefaultDebounceInterval, w.config.Debounce)
	assert.False(t, w.IsRunning())
}

func TestWatcher_StartStop(t *testing.T) {
	w := NewWatcher(WatcherConfig{Path: filepath.Join(t.TempDir(), "cache.bin")})

	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())

	// Starting again is a no-op.
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())

	// Stopping again is a no-op.
	require.NoError(t, w.Stop())
}

func TestWatcher_DetectsSaveAndDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	var changes int32
	w := NewWatcher(WatcherConfig{
		Path:         store.Path(DefaultKey),
		PollInterval: 50 * time.Millisecond,
		Debounce:     50 * time.Millisecond,
		OnChange:     func() { atomic.AddInt32(&changes, 1) },
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, DefaultKey, []byte("blob")))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&changes) >= 1 },
		2*time.Second, 20*time.Millisecond, "save should be detected")

	before := atomic.LoadInt32(&changes)
	require.NoError(t, store.Delete(ctx, DefaultKey))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&changes) > before },
		2*time.Second, 20*time.Millisecond, "delete should be detected")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	var changes int32
	w := NewWatcher(WatcherConfig{
		Path:     filepath.Join(dir, "cache.bin"),
		Debounce: 20 * time.Millisecond,
		OnChange: func() { atomic.AddInt32(&changes, 1) },
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.bin"), []byte("x"), 0600))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&changes))
}

func TestWatcher_NoCallbackAfterStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.bin")

	var changes int32
	w := NewWatcher(WatcherConfig{
		Path:     path,
		Debounce: 200 * time.Millisecond,
		OnChange: func() { atomic.AddInt32(&changes, 1) },
	})
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&changes))
}
