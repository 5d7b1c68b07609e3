package phrasepack

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/storage"
)

// maxPackSize bounds uploaded and loaded packs.
const maxPackSize = 1 << 20

// Status describes the pack currently applied.
type Status struct {
	Path     string    `json:"path"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	LastErr  string    `json:"lastError,omitempty"`
}

// Loader reads a pack from a Store and installs it on a classifier. A pack
// that fails to parse or validate never replaces the catalog in use.
type Loader struct {
	store      storage.Store
	path       string
	classifier *commentary.Classifier
	base       *commentary.Catalog
	logger     *slog.Logger

	mu      sync.Mutex
	status  Status
	watcher *fsnotify.Watcher
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBaseCatalog sets the catalog packs are layered on. Defaults to the
// built-in catalog.
func WithBaseCatalog(cat *commentary.Catalog) LoaderOption {
	return func(l *Loader) {
		if cat != nil {
			l.base = cat
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for the pack at path.
func NewLoader(store storage.Store, path string, classifier *commentary.Classifier, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:      store,
		path:       filepath.Clean(path),
		classifier: classifier,
		base:       commentary.DefaultCatalog(),
		logger:     slog.Default().With("component", "phrasepack"),
	}
	l.status.Path = l.path
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the pack and swaps the classifier's catalog. A missing file is
// not an error: the base catalog stays in place.
func (l *Loader) Load(ctx context.Context) error {
	rc, err := l.store.Open(ctx, l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("No phrase pack found, using built-in catalog", "path", l.path)
			return nil
		}
		return l.fail(fmt.Errorf("open phrase pack: %w", err))
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPackSize+1))
	if err != nil {
		return l.fail(fmt.Errorf("read phrase pack: %w", err))
	}
	return l.apply(data)
}

// Save validates data, writes it to the pack path and applies it.
func (l *Loader) Save(ctx context.Context, data []byte) error {
	if len(data) > maxPackSize {
		return fmt.Errorf("%w: larger than %d bytes", ErrInvalidPack, maxPackSize)
	}
	if _, err := ParseBytes(data); err != nil {
		return err
	}
	if _, err := l.store.Save(ctx, l.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save phrase pack: %w", err)
	}
	return l.apply(data)
}

func (l *Loader) apply(data []byte) error {
	if len(data) > maxPackSize {
		return l.fail(fmt.Errorf("%w: larger than %d bytes", ErrInvalidPack, maxPackSize))
	}
	pack, err := ParseBytes(data)
	if err != nil {
		return l.fail(err)
	}
	cat := pack.Apply(l.base)
	l.classifier.SetCatalog(cat)

	sum := sha256.Sum256(data)
	l.mu.Lock()
	l.status.Loaded = true
	l.status.LoadedAt = time.Now()
	l.status.Checksum = hex.EncodeToString(sum[:8])
	l.status.LastErr = ""
	l.mu.Unlock()

	l.logger.Info("Phrase pack applied", "path", l.path,
		"neutral_entries", cat.Size(commentary.StyleNeutral),
		"trashtalk_entries", cat.Size(commentary.StyleTrashTalk))
	return nil
}

func (l *Loader) fail(err error) error {
	l.mu.Lock()
	l.status.LastErr = err.Error()
	l.mu.Unlock()
	l.logger.Error("Phrase pack rejected, keeping current catalog", "path", l.path, "error", err)
	return err
}

// Status returns the state of the last load.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Watch reloads the pack whenever the file changes on disk, until ctx ends.
// It watches the parent directory so editors that replace the file by
// renaming are picked up too. Only meaningful for OS-backed stores.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(l.path), err)
	}

	l.mu.Lock()
	l.watcher = watcher
	l.mu.Unlock()

	l.logger.Debug("Started phrase pack watcher", "path", l.path)
	go l.watch(ctx, watcher)
	return nil
}

func (l *Loader) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		watcher.Close()
		l.mu.Lock()
		l.watcher = nil
		l.mu.Unlock()
		l.logger.Debug("Phrase pack watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			l.logger.Debug("Phrase pack changed", "event", event.Op.String())
			_ = l.Load(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("File system watcher error", "error", err)
		}
	}
}

// Close stops the watcher, if any.
func (l *Loader) Close() error {
	l.mu.Lock()
	w := l.watcher
	l.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
