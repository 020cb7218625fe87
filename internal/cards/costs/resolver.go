// Package costs resolves card names to mana costs. Lookups go through an
// in-process LRU, then the SQLite cache, then Scryfall. A stale cached cost
// is used when a refresh fails; a card with no cost anywhere is left out of
// the result so the caller falls back to its rule tables.
package costs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ramonehamilton/doomsday-companion/internal/cards/scryfall"
	"github.com/ramonehamilton/doomsday-companion/internal/mana"
	"github.com/ramonehamilton/doomsday-companion/internal/storage/models"
)

const (
	// DefaultTTL is how long a fetched cost stays fresh.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultCacheSize is the number of entries kept in memory.
	DefaultCacheSize = 1024
)

// Store persists resolved costs. repository.CardCostRepository implements it.
type Store interface {
	GetMany(ctx context.Context, names []string) (map[string]*models.CardCost, error)
	UpsertMany(ctx context.Context, costs []*models.CardCost) error
}

// Fetcher looks cards up remotely. scryfall.Client implements it.
type Fetcher interface {
	GetCardsByNames(ctx context.Context, names []string) ([]scryfall.Card, []string, error)
}

// Options configures a Resolver.
type Options struct {
	// TTL is how long a stored cost is trusted. Default: 7 days
	TTL time.Duration
	// CacheSize bounds the in-memory LRU. Default: 1024
	CacheSize int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// Resolver resolves mana costs by card name. Store and fetcher are both
// optional: without a store nothing survives a restart, without a fetcher
// the resolver works offline.
type Resolver struct {
	store   Store
	fetcher Fetcher
	cache   *lru.Cache[string, models.CardCost]
	group   singleflight.Group
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a resolver.
func NewResolver(store Store, fetcher Fetcher, opts Options) (*Resolver, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cache, err := lru.New[string, models.CardCost](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost cache: %w", err)
	}

	return &Resolver{
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		now:     opts.Now,
	}, nil
}

// Resolve returns the cost of one card. ok is false when no cost is known.
// Concurrent calls for the same name share one lookup.
func (r *Resolver) Resolve(ctx context.Context, name string) (cost mana.Pool, ok bool, err error) {
	v, err, _ := r.group.Do(name, func() (any, error) {
		return r.ResolveAll(ctx, []string{name})
	})
	if err != nil {
		return mana.Pool{}, false, err
	}
	cost, ok = v.(map[string]mana.Pool)[name]
	return cost, ok, nil
}

// ResolveAll returns costs for every name it can resolve. Only context
// cancellation is reported as an error; store and network failures are
// logged and degrade to stale or missing entries.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) (map[string]mana.Pool, error) {
	now := r.now()
	result := make(map[string]mana.Pool, len(names))
	stale := make(map[string]models.CardCost)

	var pending []string
	for _, name := range uniq(names) {
		if c, ok := r.cache.Get(name); ok {
			if !c.IsStale(r.ttl, now) {
				result[name] = c.Cost
				continue
			}
			stale[name] = c
		}
		pending = append(pending, name)
	}

	if len(pending) > 0 && r.store != nil {
		stored, err := r.store.GetMany(ctx, pending)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("card cost store unavailable", "error", err)
		}
		remaining := pending[:0]
		for _, name := range pending {
			c, ok := stored[name]
			if !ok {
				remaining = append(remaining, name)
				continue
			}
			r.cache.Add(name, *c)
			if !c.IsStale(r.ttl, now) {
				result[name] = c.Cost
				continue
			}
			stale[name] = *c
			remaining = append(remaining, name)
		}
		pending = remaining
	}

	if len(pending) > 0 && r.fetcher != nil {
		if err := r.fetch(ctx, pending, result); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("card cost refresh failed", "cards", len(pending), "error", err)
		}
	}

	for _, name := range pending {
		if _, ok := result[name]; ok {
			continue
		}
		if c, ok := stale[name]; ok {
			r.logger.Debug("using stale card cost", "card", name, "fetched_at", c.FetchedAt)
			result[name] = c.Cost
		}
	}

	return result, nil
}

// fetch looks pending names up remotely and records what it finds in result,
// the store and the cache.
func (r *Resolver) fetch(ctx context.Context, pending []string, result map[string]mana.Pool) error {
	cards, notFound, err := r.fetcher.GetCardsByNames(ctx, pending)
	if err != nil {
		return err
	}
	if len(notFound) > 0 {
		r.logger.Debug("cards not found on Scryfall", "cards", notFound)
	}

	byName := make(map[string]*scryfall.Card, len(cards))
	for i := range cards {
		c := &cards[i]
		byName[strings.ToLower(c.Name)] = c
		for _, face := range c.Faces {
			byName[strings.ToLower(face.Name)] = c
		}
	}

	now := r.now()
	var fetched []*models.CardCost
	for _, name := range pending {
		card, ok := byName[strings.ToLower(name)]
		if !ok {
			continue
		}
		entry := models.CardCost{
			Name:      name,
			ManaCost:  card.CastCost(),
			Cost:      mana.ParseCost(card.CastCost()),
			TypeLine:  card.TypeLine,
			FetchedAt: now,
		}
		result[name] = entry.Cost
		r.cache.Add(name, entry)
		fetched = append(fetched, &entry)
	}

	if r.store != nil && len(fetched) > 0 {
		if err := r.store.UpsertMany(ctx, fetched); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.Warn("failed to store card costs", "cards", len(fetched), "error", err)
		}
	}
	return nil
}

// Purge empties the in-memory cache.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

func uniq(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
