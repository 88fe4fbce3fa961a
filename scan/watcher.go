package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventChannelBuffer is the size of the watch event channel.
const eventChannelBuffer = 500

// defaultDebounce is how long to wait for more changes before rescanning.
const defaultDebounce = 500 * time.Millisecond

// WatchEvent signals that a template JSON file changed on disk.
type WatchEvent struct {
	// Path is relative to the watched root.
	Path string
	// AbsPath is the absolute file path.
	AbsPath string
}

// Watcher watches a template repository for JSON changes and emits
// debounced events. Writes that do not change file content are suppressed
// by content hash.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events chan WatchEvent

	droppedEvents atomic.Int64
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the debounce delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the structured logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithExcludeDirs sets directory basenames to skip.
func WithExcludeDirs(dirs []string) WatcherOption {
	return func(w *Watcher) {
		w.excludes = make(map[string]bool, len(dirs))
		for _, d := range dirs {
			w.excludes[d] = true
		}
	}
}

// NewWatcher creates a repository watcher rooted at dir.
func NewWatcher(root string, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		debounce: defaultDebounce,
		watcher:  fsw,
		logger:   slog.Default(),
		excludes: map[string]bool{".git": true, "node_modules": true, "vendor": true},
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, eventChannelBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events returns the channel of watch events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start adds recursive watches and begins event processing.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("repository watcher started", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// DroppedEvents returns the number of events dropped due to a full channel.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if w.excludes[base] || (strings.HasPrefix(base, ".") && path != root) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
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
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		// Watch newly created directories so future files are seen.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.root, path)
	for dir := range w.excludes {
		if strings.Contains(relPath, dir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, _ := filepath.Rel(w.root, path)

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("failed to read changed file", "path", relPath, "error", err)
			continue
		}

		newHash := contentHash(content)
		w.hashMu.RLock()
		oldHash, hadHash := w.hashes[relPath]
		w.hashMu.RUnlock()
		if hadHash && oldHash == newHash {
			continue // content unchanged
		}
		w.hashMu.Lock()
		w.hashes[relPath] = newHash
		w.hashMu.Unlock()

		w.sendEvent(WatchEvent{Path: relPath, AbsPath: path})
	}
}

func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("template changed", "path", event.Path)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("event channel full, dropping event", "path", event.Path, "total_dropped", dropped)
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
