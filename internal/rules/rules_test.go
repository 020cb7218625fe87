package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

func TestDefault(t *testing.T) {
	tables := Default()

	if tables.Oracle() != "Thassa's Oracle" {
		t.Errorf("Oracle() = %q", tables.Oracle())
	}
	if tables.SetupCard() != "Doomsday" {
		t.Errorf("SetupCard() = %q", tables.SetupCard())
	}
	if !tables.IsDrawSpell("Brainstorm") {
		t.Error("Brainstorm should be a draw spell")
	}
	if !tables.IsManaSource("Dark Ritual") {
		t.Error("Dark Ritual should be a mana source")
	}
	if got := tables.Produces("Dark Ritual"); got != (mana.Pool{mana.Black: 3}) {
		t.Errorf("Produces(Dark Ritual) = %v", got)
	}
	if !tables.IsTurnSpell("Time Walk") {
		t.Error("Time Walk should be a turn spell")
	}
}

func TestTables_DrawCount(t *testing.T) {
	tables := Default()

	tests := []struct {
		card string
		want int
	}{
		{"Gush", 2},
		{"Brainstorm", 3},
		{"Ponder", 1},
		{"Dark Ritual", 0},
		{"Unknown Card", 0},
	}

	for _, tt := range tests {
		if got := tables.DrawCount(tt.card); got != tt.want {
			t.Errorf("DrawCount(%q) = %d, want %d", tt.card, got, tt.want)
		}
	}
}

func TestTables_UnknownCardsAreFree(t *testing.T) {
	tables := Default()

	if !tables.Cost("Not A Card").IsEmpty() {
		t.Error("unknown card should cost nothing")
	}
	if !tables.Produces("Not A Card").IsEmpty() {
		t.Error("unknown card should produce nothing")
	}
	if tables.IsManaSource("Not A Card") {
		t.Error("unknown card should not be a mana source")
	}
}

func TestTables_WithCosts(t *testing.T) {
	base := Default()
	updated := base.WithCosts(map[string]mana.Pool{
		"Brainstorm": {mana.Generic: 5},
		"Brand New":  {mana.Red: 1},
	})

	if updated.Cost("Brainstorm") != (mana.Pool{mana.Generic: 5}) {
		t.Errorf("overlaid cost = %v", updated.Cost("Brainstorm"))
	}
	if !updated.HasCost("Brand New") {
		t.Error("new cost entry missing")
	}
	if base.Cost("Brainstorm") != (mana.Pool{mana.Blue: 1}) {
		t.Errorf("base tables were mutated: %v", base.Cost("Brainstorm"))
	}
	if base.HasCost("Brand New") {
		t.Error("base tables gained an entry")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing oracle", data: `draw_spells = ["Brainstorm"]`},
		{name: "bad color", data: "oracle = \"X\"\n[mana_produce]\n\"Petal\" = { Q = 1 }"},
		{name: "negative draw", data: "oracle = \"X\"\n[draw_counts]\n\"Gush\" = -1"},
		{name: "not toml", data: "oracle = "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Oracle() != Default().Oracle() {
		t.Errorf("Oracle() = %q", loaded.Oracle())
	}
	if loaded.DrawCount("Gush") != 2 {
		t.Errorf("DrawCount(Gush) = %d", loaded.DrawCount("Gush"))
	}
	if loaded.Cost("Doomsday") != (mana.Pool{mana.Black: 3}) {
		t.Errorf("Cost(Doomsday) = %v", loaded.Cost("Doomsday"))
	}
}
