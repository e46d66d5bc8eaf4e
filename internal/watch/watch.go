// Package watch reloads a catalog file when it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/logging"
)

// DefaultDebounce is how long the file must stay quiet before a reload.
const DefaultDebounce = 500 * time.Millisecond

// ErrBuiltinCatalog is returned when asked to watch an embedded catalog.
var ErrBuiltinCatalog = errors.New("builtin catalogs cannot be watched")

// ChangeFunc receives each successfully reloaded catalog.
type ChangeFunc func(ctx context.Context, c *catalog.Catalog) error

// Watcher watches one catalog file. Editors that save by renaming a temp
// file over the original are handled by watching the parent directory.
type Watcher struct {
	path     string
	onChange ChangeFunc

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// OnError, when set, receives reload and callback errors. The watcher
	// keeps running after them.
	OnError func(error)
}

// New returns a watcher for the catalog at path.
func New(path string, onChange ChangeFunc) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: change callback cannot be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return &Watcher{path: abs, onChange: onChange, Debounce: DefaultDebounce}, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is done, reloading the catalog after each burst of
// changes. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.FromContext(ctx).With().Str("component", "watch").Logger()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if addErr := fw.Add(filepath.Dir(w.path)); addErr != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), addErr)
	}
	log.Info().Ctx(ctx).Str("file", w.path).Msg("watching catalog")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ticker := time.NewTicker(debounce / 4)
	defer ticker.Stop()

	var (
		pending   bool
		lastEvent time.Time
	)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Ctx(ctx).Msg("watch stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().Ctx(ctx).Str("op", event.Op.String()).Msg("catalog changed")
			pending = true
			lastEvent = time.Now()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.report(ctx, fmt.Errorf("file watcher: %w", watchErr))

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= debounce {
				pending = false
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) reload(ctx context.Context) {
	c, err := catalog.Load(w.path)
	if err != nil {
		w.report(ctx, fmt.Errorf("reloading catalog: %w", err))
		return
	}
	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "watch").
		Str("file", w.path).
		Int("variants", len(c.Variants())).
		Msg("catalog reloaded")
	if cbErr := w.onChange(ctx, c); cbErr != nil {
		w.report(ctx, cbErr)
	}
}

func (w *Watcher) report(ctx context.Context, err error) {
	logging.FromContext(ctx).Warn().
		Ctx(ctx).
		Str("component", "watch").
		Err(err).
		Msg("watch error")
	if w.OnError != nil {
		w.OnError(err)
	}
}
