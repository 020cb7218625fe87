package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ramonehamilton/doomsday-companion/internal/rules"
)

const oracle = "Thassa's Oracle"

// newTestEngine builds an engine over the default tables, optionally edited by mutate.
func newTestEngine(t testing.TB, mutate func(*rules.File)) *Engine {
	t.Helper()

	f := rules.Default().File()
	if mutate != nil {
		mutate(&f)
	}
	tables, err := rules.New(f)
	if err != nil {
		t.Fatalf("rules.New() error = %v", err)
	}
	return New(tables, Options{
		Workers: 4,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// costless drops every mana cost so only disruption can stop a sequence.
func costless(f *rules.File) {
	f.ManaCosts = nil
}
