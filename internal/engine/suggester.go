package engine

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Suggest enumerates every pile of distinct card names in deck, drops piles
// that break the constraints, simulates the rest and returns the best
// req.TopN records.
//
// Records are ranked by: winning outcome first, then fewer turns, then lower
// risk score, then the pile's card names. The order is total, so the result
// does not depend on how work was spread across workers.
func (e *Engine) Suggest(ctx context.Context, deck []string, req SuggestRequest) ([]SuggestionRecord, error) {
	if err := req.Constraints.Validate(); err != nil {
		return nil, err
	}
	if err := req.Start.Validate(); err != nil {
		return nil, err
	}
	if req.TopN <= 0 {
		return nil, fmt.Errorf("%w: top_n must be positive: %d", ErrInvalidArgument, req.TopN)
	}

	started := time.Now()
	names := distinct(deck)
	e.logger.Debug("pile suggestion started",
		"distinct_cards", len(names),
		"piles", Binomial(len(names), e.pileSize),
		"profile", req.Profile.Enabled(),
		"starting_mana", req.Start.pool().Total(),
	)

	var candidates, survivors atomic.Int64
	piles := make(chan []string, e.workers*4)
	records := make(chan SuggestionRecord, e.workers*4)

	g, gctx := errgroup.WithContext(ctx)
	debug := e.logger.Enabled(ctx, slog.LevelDebug)

	g.Go(func() error {
		defer close(piles)
		for pile := range Combinations(names, e.pileSize) {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates.Add(1)
			if reason := e.reject(pile, req.Constraints); reason != "" {
				if debug {
					e.logger.Debug("pile rejected", "pile", pile, "reason", reason)
				}
				continue
			}
			survivors.Add(1)
			select {
			case piles <- pile:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < e.workers; w++ {
		g.Go(func() error {
			for pile := range piles {
				rec, err := e.evaluate(pile, req)
				if err != nil {
					return err
				}
				select {
				case records <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	top := newTopN(req.TopN)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for rec := range records {
			top.push(rec)
		}
	}()

	err := g.Wait()
	close(records)
	<-collected
	if err != nil {
		return nil, err
	}

	stats := RunStats{
		DistinctCards: len(names),
		Candidates:    int(candidates.Load()),
		Survivors:     int(survivors.Load()),
		Returned:      len(top.items),
		Duration:      time.Since(started),
	}
	e.logger.Info("pile suggestion finished",
		"distinct_cards", stats.DistinctCards,
		"candidates", stats.Candidates,
		"survivors", stats.Survivors,
		"returned", stats.Returned,
		"duration", stats.Duration,
	)
	if e.recorder != nil {
		e.recorder.RecordSuggestRun(stats)
	}

	return top.items, nil
}

// reject applies the deckbuilding constraints to a pile and names the
// first one it breaks. An empty reason admits the pile.
func (e *Engine) reject(pile []string, c Constraints) string {
	t := e.tables
	if c.MustIncludeOracle && !slices.ContainsFunc(pile, t.IsOracle) {
		return "no win condition"
	}
	if c.MustIncludeDraw && !slices.ContainsFunc(pile, t.IsDrawSpell) {
		return "no draw spell"
	}

	sources, lifeLoss := 0, 0
	for _, card := range pile {
		if t.IsManaSource(card) {
			sources++
		}
		lifeLoss += t.LifeLoss(card)
	}
	if sources < c.MinManaSources {
		return "too few mana sources"
	}
	if lifeLoss > c.MaxLifeLoss {
		return "too much life loss"
	}
	return ""
}

// evaluate orders, counts, simulates and scores one admitted pile.
func (e *Engine) evaluate(pile []string, req SuggestRequest) (SuggestionRecord, error) {
	pattern := e.PlayPattern(pile)
	turns := e.TurnsToWin(pattern, req.Start.Hand)

	outcome, storm, err := e.Simulate(pattern, req.Profile, req.Start)
	if err != nil {
		return SuggestionRecord{}, err
	}

	vulns := e.Vulnerabilities(pile, req.Profile)
	protection := 0
	for _, card := range pile {
		if e.tables.IsProtection(card) {
			protection++
		}
	}

	return SuggestionRecord{
		Pile:            pile,
		PlayPattern:     pattern,
		TurnsToWin:      turns,
		Outcome:         outcome,
		StormCount:      storm,
		Vulnerabilities: vulns,
		ProtectionCount: protection,
		RiskScore:       max(len(vulns)-protection, 0),
	}, nil
}

// CompareRecords is the ranking order used by Suggest.
func CompareRecords(a, b SuggestionRecord) int {
	if a.Outcome.IsWin() != b.Outcome.IsWin() {
		if a.Outcome.IsWin() {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.TurnsToWin, b.TurnsToWin); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RiskScore, b.RiskScore); c != 0 {
		return c
	}
	return slices.Compare(a.Pile, b.Pile)
}

// topN keeps the best n records seen so far, sorted by CompareRecords.
type topN struct {
	n     int
	items []SuggestionRecord
}

func newTopN(n int) *topN {
	return &topN{n: n, items: make([]SuggestionRecord, 0, min(n, 1024))}
}

func (t *topN) push(rec SuggestionRecord) {
	pos, _ := slices.BinarySearchFunc(t.items, rec, CompareRecords)
	if pos >= t.n {
		return
	}
	t.items = slices.Insert(t.items, pos, rec)
	if len(t.items) > t.n {
		t.items = t.items[:t.n]
	}
}

// distinct returns the sorted set of names in deck.
func distinct(deck []string) []string {
	seen := make(map[string]struct{}, len(deck))
	names := make([]string, 0, len(deck))
	for _, name := range deck {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
