// Package doomsday is the entry point shared by the CLI and the HTTP API. It
// turns decklist text into engine requests, resolving mana costs for the
// cards involved before each run.
package doomsday

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ramonehamilton/doomsday-companion/internal/deckimport"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
	"github.com/ramonehamilton/doomsday-companion/internal/mana"
	"github.com/ramonehamilton/doomsday-companion/internal/rules"
)

// CostResolver looks up mana costs by card name. costs.Resolver implements it.
type CostResolver interface {
	ResolveAll(ctx context.Context, names []string) (map[string]mana.Pool, error)
}

// Options configures a Service.
type Options struct {
	// Resolver is optional; without it the rule tables' own costs are used.
	Resolver CostResolver
	PileSize int
	Workers  int
	Logger   *slog.Logger
	Recorder engine.Recorder
}

// Service runs engine operations against one set of rule tables.
type Service struct {
	tables   *rules.Tables
	resolver CostResolver
	opts     engine.Options
	logger   *slog.Logger
}

// New creates a service.
func New(tables *rules.Tables, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		tables:   tables,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		opts: engine.Options{
			PileSize: opts.PileSize,
			Workers:  opts.Workers,
			Logger:   opts.Logger,
			Recorder: opts.Recorder,
		},
	}
}

// Rules returns the rule tables without resolved costs.
func (s *Service) Rules() *rules.Tables {
	return s.tables
}

// ParseResult is a parsed decklist.
type ParseResult struct {
	Cards    []string       `json:"cards"`
	Counts   map[string]int `json:"counts"`
	Warnings []string       `json:"warnings"`
}

// Parse parses decklist text.
func (s *Service) Parse(text string) *ParseResult {
	parsed := deckimport.Parse(text)
	cards := deckimport.Expand(parsed)
	return &ParseResult{
		Cards:    cards,
		Counts:   deckimport.Counts(cards),
		Warnings: parsed.Warnings,
	}
}

// SuggestResult holds ranked piles for one decklist.
type SuggestResult struct {
	Records  []engine.SuggestionRecord `json:"suggestions"`
	DeckSize int                       `json:"deck_size"`
	Warnings []string                  `json:"warnings"`
}

// Suggest parses deckText and ranks its piles.
func (s *Service) Suggest(ctx context.Context, deckText string, req engine.SuggestRequest) (*SuggestResult, error) {
	parsed := s.Parse(deckText)

	eng, err := s.engineFor(ctx, parsed.Cards)
	if err != nil {
		return nil, err
	}

	records, err := eng.Suggest(ctx, parsed.Cards, req)
	if err != nil {
		return nil, err
	}
	return &SuggestResult{
		Records:  records,
		DeckSize: len(parsed.Cards),
		Warnings: parsed.Warnings,
	}, nil
}

// SimulateRequest describes one sequence to simulate. PlayPattern is used
// as given; otherwise Pile is ordered first.
type SimulateRequest struct {
	Pile        []string       `json:"pile,omitempty"`
	PlayPattern []string       `json:"play_pattern,omitempty"`
	Profile     engine.Profile `json:"opponent_profile"`
	Start       engine.Start   `json:"start"`
}

// SimulateResult is the terminal state of a simulation.
type SimulateResult struct {
	PlayPattern []string       `json:"play_pattern"`
	Outcome     engine.Outcome `json:"outcome"`
	StormCount  int            `json:"storm_count"`
	TurnsToWin  int            `json:"turns_to_win"`
}

// Simulate runs one sequence to completion.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	eng, pattern, err := s.prepare(ctx, req.Pile, req.PlayPattern)
	if err != nil {
		return nil, err
	}
	outcome, storm, err := eng.Simulate(pattern, req.Profile, req.Start)
	if err != nil {
		return nil, err
	}
	return &SimulateResult{
		PlayPattern: pattern,
		Outcome:     outcome,
		StormCount:  storm,
		TurnsToWin:  eng.TurnsToWin(pattern, req.Start.Hand),
	}, nil
}

// SimulateDetailed runs one sequence and returns every step.
func (s *Service) SimulateDetailed(ctx context.Context, req SimulateRequest) ([]engine.Step, error) {
	eng, pattern, err := s.prepare(ctx, req.Pile, req.PlayPattern)
	if err != nil {
		return nil, err
	}
	return eng.SimulateDetailed(pattern, req.Profile, req.Start)
}

// NewRun prepares a step-by-step simulation and returns it with the cast
// sequence it will follow.
func (s *Service) NewRun(ctx context.Context, req SimulateRequest) (*engine.Run, []string, error) {
	eng, pattern, err := s.prepare(ctx, req.Pile, req.PlayPattern)
	if err != nil {
		return nil, nil, err
	}
	run, err := eng.NewRun(pattern, req.Profile, req.Start)
	if err != nil {
		return nil, nil, err
	}
	return run, pattern, nil
}

// prepare resolves costs for a sequence and orders pile when no explicit
// pattern is given.
func (s *Service) prepare(ctx context.Context, pile, pattern []string) (*engine.Engine, []string, error) {
	if len(pile) == 0 && len(pattern) == 0 {
		return nil, nil, fmt.Errorf("%w: pile or play pattern required", engine.ErrInvalidArgument)
	}

	cards := pattern
	if len(cards) == 0 {
		cards = pile
	}
	eng, err := s.engineFor(ctx, cards)
	if err != nil {
		return nil, nil, err
	}

	if len(pattern) == 0 {
		pattern = eng.PlayPattern(pile)
	}
	return eng, pattern, nil
}

// TurnsRequest asks for the turn estimate of a sequence.
type TurnsRequest struct {
	Pile        []string `json:"pile,omitempty"`
	PlayPattern []string `json:"play_pattern,omitempty"`
	Hand        []string `json:"initial_hand"`
}

// TurnsResult is a turn estimate.
type TurnsResult struct {
	PlayPattern []string `json:"play_pattern"`
	TurnsToWin  int      `json:"turns_to_win"`
}

// TurnsToWin estimates how many turns a sequence takes. No costs are needed.
func (s *Service) TurnsToWin(req TurnsRequest) (*TurnsResult, error) {
	if len(req.Pile) == 0 && len(req.PlayPattern) == 0 {
		return nil, fmt.Errorf("%w: pile or play pattern required", engine.ErrInvalidArgument)
	}
	eng := engine.New(s.tables, s.opts)
	pattern := req.PlayPattern
	if len(pattern) == 0 {
		pattern = eng.PlayPattern(req.Pile)
	}
	return &TurnsResult{
		PlayPattern: pattern,
		TurnsToWin:  eng.TurnsToWin(pattern, req.Hand),
	}, nil
}

// Warm resolves costs for every distinct card in cards and reports how many
// were resolved.
func (s *Service) Warm(ctx context.Context, cards []string) (int, error) {
	if s.resolver == nil {
		return 0, nil
	}
	costs, err := s.resolver.ResolveAll(ctx, withSetupCard(s.tables, cards))
	if err != nil {
		return 0, err
	}
	return len(costs), nil
}

// engineFor builds an engine whose cost table covers cards.
func (s *Service) engineFor(ctx context.Context, cards []string) (*engine.Engine, error) {
	tables := s.tables
	if s.resolver != nil && len(cards) > 0 {
		costs, err := s.resolver.ResolveAll(ctx, withSetupCard(s.tables, cards))
		if err != nil {
			return nil, fmt.Errorf("resolve card costs: %w", err)
		}
		tables = tables.WithCosts(costs)
		s.logger.Debug("resolved card costs", "cards", len(costs))
	}
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		if free := uncosted(tables, cards); len(free) > 0 {
			s.logger.Debug("no cost known, cast for free", "cards", free)
		}
	}
	return engine.New(tables, s.opts), nil
}

// uncosted lists the distinct cards in cards that have no cost entry.
func uncosted(t *rules.Tables, cards []string) []string {
	var out []string
	for _, c := range cards {
		if !t.HasCost(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func withSetupCard(t *rules.Tables, cards []string) []string {
	if t.SetupCard() == "" {
		return cards
	}
	out := make([]string, 0, len(cards)+1)
	out = append(out, cards...)
	return append(out, t.SetupCard())
}
