package doomsday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/ramonehamilton/doomsday-companion/internal/engine"
	"github.com/ramonehamilton/doomsday-companion/internal/mana"
	"github.com/ramonehamilton/doomsday-companion/internal/rules"
)

type fakeResolver struct {
	costs map[string]mana.Pool
	err   error
	asked [][]string
}

func (f *fakeResolver) ResolveAll(_ context.Context, names []string) (map[string]mana.Pool, error) {
	f.asked = append(f.asked, names)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]mana.Pool)
	for _, n := range names {
		if c, ok := f.costs[n]; ok {
			out[n] = c
		}
	}
	return out, nil
}

var fourCardPile = []string{"Thassa's Oracle", "Brainstorm", "Dark Ritual", "Lotus Petal"}

func newTestService(resolver CostResolver) *Service {
	opts := Options{
		Workers: 2,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if resolver != nil {
		opts.Resolver = resolver
	}
	return New(rules.Default(), opts)
}

func TestService_Parse(t *testing.T) {
	s := newTestService(nil)

	res := s.Parse("4 Brainstorm\n1 Thassa's Oracle (THB) 73\nbogus\n")
	if len(res.Cards) != 5 {
		t.Errorf("Cards = %d, want 5", len(res.Cards))
	}
	if res.Counts["Brainstorm"] != 4 {
		t.Errorf("Counts = %v", res.Counts)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestService_ParseHugeQuantity(t *testing.T) {
	s := newTestService(nil)

	res := s.Parse("9223372036854775807 Island\n300000000 Swamp\n1 Brainstorm")
	if len(res.Cards) != 1 || res.Counts["Brainstorm"] != 1 {
		t.Errorf("Cards = %v", res.Cards)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestService_SimulateUsesSeedCosts(t *testing.T) {
	s := newTestService(nil)

	res, err := s.Simulate(context.Background(), SimulateRequest{Pile: fourCardPile})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if got := res.Outcome.String(); got != "insufficient_mana_for_Thassa's Oracle" {
		t.Errorf("outcome = %q", got)
	}

	want := []string{"Dark Ritual", "Lotus Petal", "Doomsday", "Brainstorm", "Thassa's Oracle"}
	if !slices.Equal(res.PlayPattern, want) {
		t.Errorf("pattern = %v, want %v", res.PlayPattern, want)
	}
}

func TestService_SimulateUsesResolvedCosts(t *testing.T) {
	resolver := &fakeResolver{costs: map[string]mana.Pool{
		"Brainstorm":      {},
		"Thassa's Oracle": {mana.Blue: 1},
	}}
	s := newTestService(resolver)

	res, err := s.Simulate(context.Background(), SimulateRequest{Pile: fourCardPile})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if !res.Outcome.IsWin() {
		t.Errorf("outcome = %v, want win", res.Outcome)
	}
	if res.StormCount != 3 {
		t.Errorf("storm = %d, want 3", res.StormCount)
	}
	if res.TurnsToWin != 4 {
		t.Errorf("turns = %d, want 4", res.TurnsToWin)
	}

	if len(resolver.asked) != 1 || !slices.Contains(resolver.asked[0], "Doomsday") {
		t.Errorf("resolver asked for %v, want the setup card included", resolver.asked)
	}
}

func TestService_SimulateExplicitPattern(t *testing.T) {
	s := newTestService(nil)
	pattern := []string{"Thassa's Oracle"}

	res, err := s.Simulate(context.Background(), SimulateRequest{
		PlayPattern: pattern,
		Start:       engine.Start{Pool: mana.Pool{mana.Blue: 2}},
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if !res.Outcome.IsWin() || res.StormCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if !slices.Equal(res.PlayPattern, pattern) {
		t.Errorf("pattern = %v", res.PlayPattern)
	}
}

func TestService_SimulateDetailed(t *testing.T) {
	s := newTestService(nil)

	steps, err := s.SimulateDetailed(context.Background(), SimulateRequest{
		Pile:    fourCardPile,
		Profile: engine.NewProfile(engine.ForceOfWill),
		Start:   engine.Start{Pool: mana.Pool{mana.Blue: 2}},
	})
	if err != nil {
		t.Fatalf("SimulateDetailed() error = %v", err)
	}

	// Dark Ritual, Lotus Petal, then Doomsday is countered.
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	last := steps[len(steps)-1]
	if last.Card != "Doomsday" || last.Outcome == nil || last.Outcome.Disruption != engine.ForceOfWill {
		t.Errorf("last step = %+v", last)
	}
	if got := steps[0].PoolAfterString(); got != "U:2, B:3, C:0" {
		t.Errorf("pool after ritual = %q", got)
	}
}

func TestService_NewRun(t *testing.T) {
	s := newTestService(nil)

	run, pattern, err := s.NewRun(context.Background(), SimulateRequest{Pile: fourCardPile, Start: engine.Start{Pool: mana.Pool{mana.Blue: 2}}})
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	n := 0
	for range run.Steps() {
		n++
	}
	if n != len(pattern) {
		t.Errorf("steps = %d, want %d", n, len(pattern))
	}
	if outcome, _ := run.Result(); !outcome.IsWin() {
		t.Errorf("outcome = %v", outcome)
	}
}

func TestService_InvalidRequests(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	if _, err := s.Simulate(ctx, SimulateRequest{}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Errorf("empty simulate error = %v", err)
	}
	if _, err := s.TurnsToWin(TurnsRequest{}); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Errorf("empty turns error = %v", err)
	}
	_, err := s.Simulate(ctx, SimulateRequest{Pile: fourCardPile, Start: engine.Start{LandDrops: -1}})
	if !errors.Is(err, engine.ErrInvalidArgument) {
		t.Errorf("negative land drops error = %v", err)
	}
}

func TestService_ResolverError(t *testing.T) {
	s := newTestService(&fakeResolver{err: context.DeadlineExceeded})

	_, err := s.Simulate(context.Background(), SimulateRequest{Pile: fourCardPile})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestService_TurnsToWin(t *testing.T) {
	s := newTestService(nil)

	res, err := s.TurnsToWin(TurnsRequest{Pile: []string{"Brainstorm", "Thassa's Oracle"}})
	if err != nil {
		t.Fatalf("TurnsToWin() error = %v", err)
	}
	// Doomsday, Brainstorm, then the oracle is drawn.
	if res.TurnsToWin != 2 {
		t.Errorf("turns = %d, want 2 (pattern %v)", res.TurnsToWin, res.PlayPattern)
	}
}

func TestService_Suggest(t *testing.T) {
	s := New(rules.Default(), Options{
		PileSize: 4,
		Workers:  2,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	res, err := s.Suggest(context.Background(), "1 Thassa's Oracle\n1 Brainstorm\n1 Dark Ritual\n1 Lotus Petal\n", engine.SuggestRequest{
		Constraints: engine.DefaultConstraints(),
		Start:       engine.Start{Pool: mana.Pool{mana.Blue: 2}},
		TopN:        5,
	})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if res.DeckSize != 4 {
		t.Errorf("DeckSize = %d", res.DeckSize)
	}
	if len(res.Records) != 1 || !res.Records[0].Outcome.IsWin() {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestService_Warm(t *testing.T) {
	resolver := &fakeResolver{costs: map[string]mana.Pool{"Brainstorm": {mana.Blue: 1}, "Doomsday": {mana.Black: 3}}}
	s := newTestService(resolver)

	n, err := s.Warm(context.Background(), []string{"Brainstorm", "Unknown"})
	if err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if n != 2 {
		t.Errorf("resolved = %d, want 2", n)
	}

	if n, _ := newTestService(nil).Warm(context.Background(), []string{"Brainstorm"}); n != 0 {
		t.Errorf("warm without resolver = %d", n)
	}
}

func TestUncosted(t *testing.T) {
	tables := rules.Default().WithCosts(map[string]mana.Pool{"Brainstorm": {mana.Blue: 1}})

	got := uncosted(tables, []string{"Brainstorm", "Mystery Card", "Mystery Card", "Doomsday"})
	if !slices.Equal(got, []string{"Mystery Card"}) {
		t.Errorf("uncosted = %v, want [Mystery Card]", got)
	}
}
