package scriptfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherEmitsSettledScript(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(WatchConfig{Dir: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	path := filepath.Join(dir, "drop.txt")
	require.NoError(t, os.WriteFile(path, []byte("INT. LOBBY - DAY\n"), 0644))

	select {
	case got := <-w.Events():
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatcherIgnoresUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(WatchConfig{Dir: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("x"), 0644))

	select {
	case got := <-w.Events():
		t.Fatalf("unexpected event for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherExtensionNormalization(t *testing.T) {
	w, err := NewWatcher(WatchConfig{Dir: t.TempDir(), Extensions: []string{"txt", ".HTML"}}, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.extensions[".txt"])
	assert.True(t, w.extensions[".html"])
	assert.False(t, w.extensions[".md"])
}
