// Package app wires configuration, the cost cache, Scryfall and the
// doomsday service together for the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/cards/costs"
	"github.com/ramonehamilton/doomsday-companion/internal/cards/scryfall"
	"github.com/ramonehamilton/doomsday-companion/internal/config"
	"github.com/ramonehamilton/doomsday-companion/internal/decks"
	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/metrics"
	"github.com/ramonehamilton/doomsday-companion/internal/rules"
	"github.com/ramonehamilton/doomsday-companion/internal/storage"
	"github.com/ramonehamilton/doomsday-companion/internal/storage/models"
)

// Options configures New.
type Options struct {
	// Offline skips Scryfall; costs come from the cache and the rule tables.
	Offline bool
	Logger  *slog.Logger
}

// App holds the long-lived components of a running process.
type App struct {
	Config  *config.Config
	Service *doomsday.Service
	Metrics *metrics.EngineMetrics
	Logger  *slog.Logger

	db       *storage.DB
	resolver *costs.Resolver
}

// LoadConfig reads the config file at path, applies .env and environment
// overrides and validates the result.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewLogger returns a text logger at Info, or Debug when debug is set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New builds an App from cfg. With the cache disabled no database is opened
// and costs come from the rule tables alone.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tables := rules.Default()
	if cfg.Rules.Path != "" {
		loaded, err := rules.Load(cfg.Rules.Path)
		if err != nil {
			return nil, err
		}
		tables = loaded
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.NewEngineMetrics(),
		Logger:  logger,
	}

	serviceOpts := doomsday.Options{
		PileSize: cfg.Engine.PileSize,
		Workers:  cfg.Engine.Workers,
		Logger:   logger,
		Recorder: a.Metrics,
	}

	if cfg.Cache.Enabled {
		resolver, err := a.openResolver(opts.Offline)
		if err != nil {
			return nil, err
		}
		a.resolver = resolver
		serviceOpts.Resolver = resolver
	}

	a.Service = doomsday.New(tables, serviceOpts)
	return a, nil
}

func (a *App) openResolver(offline bool) (*costs.Resolver, error) {
	cfg := a.Config

	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}

	db, err := storage.Open(storage.DefaultConfig(cfg.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("open cost cache: %w", err)
	}
	a.db = db

	var fetcher costs.Fetcher
	if !offline {
		fetcher = scryfall.NewClient(scryfall.Options{
			BaseURL:   cfg.Scryfall.BaseURL,
			UserAgent: cfg.Scryfall.UserAgent,
			RateLimit: cfg.Scryfall.RateLimit,
		})
	}

	resolver, err := costs.NewResolver(db.CardCosts(), fetcher, costs.Options{
		TTL:       ttl,
		CacheSize: cfg.Cache.MaxSize,
		Logger:    a.Logger,
	})
	if err != nil {
		_ = db.Close()
		a.db = nil
		return nil, err
	}
	return resolver, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// WarmDecks resolves the costs of every card in every decklist in the
// configured deck directory. It returns the number of decks read and of
// costs resolved. A deck that fails to warm is logged and skipped unless
// ctx is done.
func (a *App) WarmDecks(ctx context.Context) (deckCount, resolved int, err error) {
	loaded, err := decks.LoadDir(a.Config.Decks.Dir)
	if err != nil {
		return 0, 0, err
	}

	for _, deck := range loaded {
		n, err := a.warmDeck(ctx, deck)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return deckCount, resolved, err
			}
			continue
		}
		deckCount++
		resolved += n
	}
	return deckCount, resolved, nil
}

// WatchDecks warms the cost cache whenever a decklist in the configured
// directory is created or changed. It blocks until ctx is cancelled.
func (a *App) WatchDecks(ctx context.Context) error {
	watcher := decks.NewWatcher(a.Config.Decks.Dir, func(ctx context.Context, deck *decks.Deck) {
		_, _ = a.warmDeck(ctx, deck)
	}, decks.WatchOptions{Logger: a.Logger})
	return watcher.Run(ctx)
}

func (a *App) warmDeck(ctx context.Context, deck *decks.Deck) (int, error) {
	for _, w := range deck.Warnings {
		a.Logger.Warn("decklist line skipped", "deck", deck.Name, "warning", w)
	}

	n, err := a.Service.Warm(ctx, deck.Distinct())
	if err != nil {
		a.Logger.Warn("failed to warm deck", "deck", deck.Name, "error", err)
		return 0, err
	}
	a.Logger.Info("deck warmed", "deck", deck.Name, "cards", len(deck.Distinct()), "resolved", n)
	return n, nil
}

// ErrCacheDisabled is returned by cache operations when no database is open.
var ErrCacheDisabled = errors.New("cost cache is disabled")

// CachedCosts returns every persisted cost entry ordered by name.
func (a *App) CachedCosts(ctx context.Context) ([]*models.CardCost, error) {
	if a.db == nil {
		return nil, ErrCacheDisabled
	}
	return a.db.CardCosts().List(ctx)
}

// PruneCache deletes entries fetched before now minus maxAge and returns how
// many were removed. A non-positive maxAge uses the configured cache TTL.
func (a *App) PruneCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	if a.db == nil {
		return 0, ErrCacheDisabled
	}
	if maxAge <= 0 {
		ttl, err := a.Config.GetCacheTTL()
		if err != nil {
			return 0, err
		}
		maxAge = ttl
	}
	n, err := a.db.CardCosts().DeleteOlderThan(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	a.Logger.Info("pruned cost cache", "removed", n, "max_age", maxAge)
	return n, nil
}
