package decks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is called with every deck that was created or changed.
type Handler func(ctx context.Context, deck *Deck)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Settle is how long a file must be quiet before it is reloaded.
	// Editors often write a file several times in a row. Default: 200ms
	Settle time.Duration
	// PollInterval rescans the directory in case file events are missed.
	// Default: 5s
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Watcher reloads decklists in a directory as they change.
type Watcher struct {
	dir     string
	handler Handler
	opts    WatchOptions

	seen    map[string]time.Time
	pending map[string]time.Time
}

// NewWatcher creates a watcher over dir.
func NewWatcher(dir string, handler Handler, opts WatchOptions) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = 200 * time.Millisecond
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		opts:    opts,
		seen:    make(map[string]time.Time),
		pending: make(map[string]time.Time),
	}
}

// Run watches until ctx is cancelled. Decks already present when Run starts
// are recorded but not reported.
func (w *Watcher) Run(ctx context.Context) (err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create deck directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch deck directory: %w", err)
	}
	w.scan(false)

	w.opts.Logger.Info("watching deck directory", "dir", w.dir)

	settle := time.NewTicker(w.opts.Settle / 2)
	defer settle.Stop()
	poll := time.NewTicker(w.opts.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDeckFile(filepath.Base(event.Name)) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				w.pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(w.pending, event.Name)
				delete(w.seen, event.Name)
				w.opts.Logger.Info("deck removed", "path", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("deck watcher error", "error", err)
		case <-poll.C:
			w.scan(true)
		case now := <-settle.C:
			w.flush(ctx, now)
		}
	}
}

// scan compares modification times on disk with what was last loaded.
// Changed files are queued when queue is true and recorded otherwise.
func (w *Watcher) scan(queue bool) {
	paths, err := listDecks(w.dir)
	if err != nil {
		w.opts.Logger.Warn("deck directory scan failed", "error", err)
		return
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if last, ok := w.seen[p]; ok && !info.ModTime().After(last) {
			continue
		}
		if queue {
			if _, ok := w.pending[p]; !ok {
				w.pending[p] = time.Time{}
			}
		} else {
			w.seen[p] = info.ModTime()
		}
	}
}

// flush reloads queued files that have been quiet for the settle period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, touched := range w.pending {
		if now.Sub(touched) < w.opts.Settle {
			continue
		}
		delete(w.pending, path)

		deck, err := LoadFile(path)
		if err != nil {
			w.opts.Logger.Warn("failed to reload deck", "path", path, "error", err)
			continue
		}
		if last, ok := w.seen[path]; ok && !deck.ModTime.After(last) {
			continue
		}
		w.seen[path] = deck.ModTime
		w.opts.Logger.Info("deck changed", "deck", deck.Name, "cards", len(deck.Cards), "warnings", len(deck.Warnings))
		w.handler(ctx, deck)
	}
}
