package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	errs := make(chan error, 4)
	stopped := make(chan error, 1)
	go func() {
		stopped <- WatchConfig(ctx, path, 20*time.Millisecond,
			func(cfg *Config) { changes <- cfg },
			func(err error) { errs <- err })
	}()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)

	cfg := DefaultConfig()
	cfg.Clusters = 6
	require.NoError(t, SaveConfig(path, cfg))

	select {
	case got := <-changes:
		assert.Equal(t, 6, got.Clusters)
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfigReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 4)
	go func() {
		_ = WatchConfig(ctx, path, 10*time.Millisecond,
			func(*Config) {},
			func(err error) { errs <- err })
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("clusters: 0\n"), 0644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrInvalidK)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatchConfigMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")
	err := WatchConfig(context.Background(), path, time.Millisecond, func(*Config) {}, nil)
	assert.Error(t, err)
}

func TestIsConfigEvent(t *testing.T) {
	path := filepath.Join("/tmp", "cfg", "config.yaml")

	assert.True(t, isConfigEvent(fsnotify.Event{Name: path, Op: fsnotify.Write}, path))
	assert.True(t, isConfigEvent(fsnotify.Event{Name: path, Op: fsnotify.Create}, path))
	assert.False(t, isConfigEvent(fsnotify.Event{Name: path, Op: fsnotify.Chmod}, path))
	assert.False(t, isConfigEvent(fsnotify.Event{Name: path + ".swp", Op: fsnotify.Write}, path))
}
