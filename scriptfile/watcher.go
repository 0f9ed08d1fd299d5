package scriptfile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventChannelBuffer is the size of the watch event channel.
const eventChannelBuffer = 100

// DefaultDebounce is how long a file must be quiet before it is emitted.
const DefaultDebounce = 500 * time.Millisecond

// WatchConfig configures drop-folder watching.
type WatchConfig struct {
	// Dir is the folder to watch for script files.
	Dir string `yaml:"dir"`

	// Debounce is how long to wait for more changes before emitting.
	Debounce time.Duration `yaml:"debounce"`

	// Extensions limits which files are emitted. Empty means every
	// supported script extension.
	Extensions []string `yaml:"extensions"`
}

// Watcher watches a drop folder and emits script file paths once they stop
// changing. Editors and network copies write in bursts; debouncing means the
// path comes out once, after the last write.
type Watcher struct {
	config     WatchConfig
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool

	pendingMu sync.Mutex
	pending   map[string]time.Time

	events chan string
}

// NewWatcher creates a drop-folder watcher.
func NewWatcher(config WatchConfig, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	extensions := make(map[string]bool)
	exts := config.Extensions
	if len(exts) == 0 {
		exts = SupportedExtensions()
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	return &Watcher{
		config:     config,
		watcher:    fsw,
		logger:     logger,
		extensions: extensions,
		pending:    make(map[string]time.Time),
		events:     make(chan string, eventChannelBuffer),
	}, nil
}

// Events returns the channel of settled script file paths.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Start begins watching. The events channel closes when ctx is canceled or
// the watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.config.Dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.config.Dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Script watcher started",
		"dir", w.config.Dir,
		"debounce", w.config.Debounce)
	return nil
}

// Stop stops the watcher. The events channel is closed by processEvents.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a write or create against a watched extension.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if !w.extensions[ext] {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

// flushPending emits paths whose last change is older than the debounce.
func (w *Watcher) flushPending() {
	cutoff := time.Now().Add(-w.config.Debounce)

	w.pendingMu.Lock()
	var ready []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		select {
		case w.events <- path:
			w.logger.Debug("Script file settled", "path", path)
		default:
			w.logger.Warn("Dropping watch event, channel full", "path", path)
		}
	}
}
