// Package rules holds the card rule tables the engine consults: which cards
// draw, produce mana, tutor, protect or grant extra turns, and what they cost.
//
// A *Tables value is immutable once built. Several versions can coexist,
// which is how tests run against fixture card pools.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

//go:embed default_rules.toml
var defaultRules []byte

// File is the on-disk TOML representation of the rule tables.
type File struct {
	Oracle              string                    `toml:"oracle" json:"oracle"`
	SetupCard           string                    `toml:"setup_card" json:"setup_card"`
	FreeSpell           string                    `toml:"free_spell" json:"free_spell"`
	Ritual              string                    `toml:"ritual" json:"ritual"`
	BasicLand           string                    `toml:"basic_land" json:"basic_land"`
	DrawSpells          []string                  `toml:"draw_spells" json:"draw_spells"`
	Tutors              []string                  `toml:"tutors" json:"tutors"`
	ProtectionSpells    []string                  `toml:"protection_spells" json:"protection_spells"`
	TurnSpells          []string                  `toml:"turn_spells" json:"turn_spells"`
	GraveyardTargets    []string                  `toml:"graveyard_targets" json:"graveyard_targets"`
	AlternateCostSpells []string                  `toml:"alternate_cost_spells" json:"alternate_cost_spells"`
	ColorHateTargets    []string                  `toml:"color_hate_targets" json:"color_hate_targets"`
	DrawCounts          map[string]int            `toml:"draw_counts" json:"draw_counts"`
	LifeLoss            map[string]int            `toml:"life_loss" json:"life_loss"`
	ManaProduce         map[string]map[string]int `toml:"mana_produce" json:"mana_produce"`
	ManaCosts           map[string]map[string]int `toml:"mana_costs" json:"mana_costs"`
}

type cardSet map[string]struct{}

func newCardSet(names []string) cardSet {
	s := make(cardSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s cardSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s cardSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Tables is the immutable, validated form of a rule file.
type Tables struct {
	oracle    string
	setupCard string
	freeSpell string
	ritual    string
	basicLand string

	drawSpells       cardSet
	tutors           cardSet
	protection       cardSet
	turnSpells       cardSet
	graveyardTargets cardSet
	altCostSpells    cardSet
	colorHateTargets cardSet

	drawCounts  map[string]int
	lifeLoss    map[string]int
	manaProduce map[string]mana.Pool
	manaCosts   map[string]mana.Pool
}

// Default returns the embedded Vintage Doomsday tables.
func Default() *Tables {
	t, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded rules are invalid: %v", err))
	}
	return t
}

// Load reads and validates a TOML rule file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes TOML rule data.
func Parse(data []byte) (*Tables, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return New(f)
}

// New validates f and builds Tables from it. f is copied; later changes to f
// do not affect the result.
func New(f File) (*Tables, error) {
	if strings.TrimSpace(f.Oracle) == "" {
		return nil, fmt.Errorf("oracle card is required")
	}

	t := &Tables{
		oracle:           strings.TrimSpace(f.Oracle),
		setupCard:        strings.TrimSpace(f.SetupCard),
		freeSpell:        strings.TrimSpace(f.FreeSpell),
		ritual:           strings.TrimSpace(f.Ritual),
		basicLand:        strings.TrimSpace(f.BasicLand),
		drawSpells:       newCardSet(f.DrawSpells),
		tutors:           newCardSet(f.Tutors),
		protection:       newCardSet(f.ProtectionSpells),
		turnSpells:       newCardSet(f.TurnSpells),
		graveyardTargets: newCardSet(f.GraveyardTargets),
		altCostSpells:    newCardSet(f.AlternateCostSpells),
		colorHateTargets: newCardSet(f.ColorHateTargets),
		drawCounts:       make(map[string]int, len(f.DrawCounts)),
		lifeLoss:         make(map[string]int, len(f.LifeLoss)),
		manaProduce:      make(map[string]mana.Pool, len(f.ManaProduce)),
		manaCosts:        make(map[string]mana.Pool, len(f.ManaCosts)),
	}

	for name, n := range f.DrawCounts {
		if n < 0 {
			return nil, fmt.Errorf("draw count for %q cannot be negative: %d", name, n)
		}
		t.drawCounts[name] = n
	}
	for name, n := range f.LifeLoss {
		if n < 0 {
			return nil, fmt.Errorf("life loss for %q cannot be negative: %d", name, n)
		}
		t.lifeLoss[name] = n
	}
	for name, m := range f.ManaProduce {
		p, err := mana.PoolFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("mana production for %q: %w", name, err)
		}
		t.manaProduce[name] = p
	}
	for name, m := range f.ManaCosts {
		p, err := mana.PoolFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("mana cost for %q: %w", name, err)
		}
		t.manaCosts[name] = p
	}

	return t, nil
}

// WithCosts returns a copy of t whose cost table is t's costs overlaid with
// costs. t itself is left unchanged.
func (t *Tables) WithCosts(costs map[string]mana.Pool) *Tables {
	cp := *t
	cp.manaCosts = make(map[string]mana.Pool, len(t.manaCosts)+len(costs))
	for name, p := range t.manaCosts {
		cp.manaCosts[name] = p
	}
	for name, p := range costs {
		cp.manaCosts[name] = p
	}
	return &cp
}

// Oracle is the designated win-condition card.
func (t *Tables) Oracle() string { return t.oracle }

// SetupCard is the card cast to assemble the pile. Empty disables injection.
func (t *Tables) SetupCard() string { return t.setupCard }

// FreeSpell is the counterspell cast through its alternate cost.
func (t *Tables) FreeSpell() string { return t.freeSpell }

// Ritual is the mana ritual that counts toward storm.
func (t *Tables) Ritual() string { return t.ritual }

// BasicLand is excluded from the spell-count vulnerability.
func (t *Tables) BasicLand() string { return t.basicLand }

func (t *Tables) IsOracle(name string) bool          { return name == t.oracle }
func (t *Tables) IsSetupCard(name string) bool       { return t.setupCard != "" && name == t.setupCard }
func (t *Tables) IsDrawSpell(name string) bool       { return t.drawSpells.has(name) }
func (t *Tables) IsTutor(name string) bool           { return t.tutors.has(name) }
func (t *Tables) IsProtection(name string) bool      { return t.protection.has(name) }
func (t *Tables) IsTurnSpell(name string) bool       { return t.turnSpells.has(name) }
func (t *Tables) IsGraveyardTarget(name string) bool { return t.graveyardTargets.has(name) }
func (t *Tables) IsAlternateCost(name string) bool   { return t.altCostSpells.has(name) }
func (t *Tables) IsColorHateTarget(name string) bool { return t.colorHateTargets.has(name) }

// IsManaSource reports whether name has a mana production entry.
func (t *Tables) IsManaSource(name string) bool {
	_, ok := t.manaProduce[name]
	return ok
}

// Produces returns the mana name adds when played. Unknown cards produce nothing.
func (t *Tables) Produces(name string) mana.Pool {
	return t.manaProduce[name]
}

// Cost returns the mana needed to cast name. Unknown cards cost nothing.
func (t *Tables) Cost(name string) mana.Pool {
	return t.manaCosts[name]
}

// HasCost reports whether a cost entry exists for name.
func (t *Tables) HasCost(name string) bool {
	_, ok := t.manaCosts[name]
	return ok
}

// DrawCount returns how many cards name draws: the explicit entry if any,
// 1 for other draw spells and 0 for everything else.
func (t *Tables) DrawCount(name string) int {
	if n, ok := t.drawCounts[name]; ok {
		return n
	}
	if t.drawSpells.has(name) {
		return 1
	}
	return 0
}

// LifeLoss returns the life paid when name is in a pile.
func (t *Tables) LifeLoss(name string) int {
	return t.lifeLoss[name]
}

// File converts t back to its serializable form.
func (t *Tables) File() File {
	f := File{
		Oracle:              t.oracle,
		SetupCard:           t.setupCard,
		FreeSpell:           t.freeSpell,
		Ritual:              t.ritual,
		BasicLand:           t.basicLand,
		DrawSpells:          t.drawSpells.sorted(),
		Tutors:              t.tutors.sorted(),
		ProtectionSpells:    t.protection.sorted(),
		TurnSpells:          t.turnSpells.sorted(),
		GraveyardTargets:    t.graveyardTargets.sorted(),
		AlternateCostSpells: t.altCostSpells.sorted(),
		ColorHateTargets:    t.colorHateTargets.sorted(),
		DrawCounts:          make(map[string]int, len(t.drawCounts)),
		LifeLoss:            make(map[string]int, len(t.lifeLoss)),
		ManaProduce:         make(map[string]map[string]int, len(t.manaProduce)),
		ManaCosts:           make(map[string]map[string]int, len(t.manaCosts)),
	}
	for n, v := range t.drawCounts {
		f.DrawCounts[n] = v
	}
	for n, v := range t.lifeLoss {
		f.LifeLoss[n] = v
	}
	for n, p := range t.manaProduce {
		f.ManaProduce[n] = p.Map()
	}
	for n, p := range t.manaCosts {
		f.ManaCosts[n] = p.Map()
	}
	return f
}

// Marshal encodes t as TOML.
func (t *Tables) Marshal() ([]byte, error) {
	data, err := toml.Marshal(t.File())
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	return data, nil
}
