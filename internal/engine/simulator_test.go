package engine

import (
	"errors"
	"testing"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

func TestEngine_Simulate(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name      string
		pattern   []string
		profile   Profile
		start     Start
		want      string
		wantStorm int
	}{
		{
			name:      "resolves oracle",
			pattern:   []string{"Island", "Brainstorm", oracle},
			start:     Start{Pool: mana.Pool{mana.Blue: 2}},
			want:      "win",
			wantStorm: 2,
		},
		{
			name:      "runs out of mana",
			pattern:   []string{"Brainstorm", oracle},
			want:      "insufficient_mana_for_Brainstorm",
			wantStorm: 0,
		},
		{
			name:      "free counterspell needs no mana",
			pattern:   []string{"Force of Will"},
			want:      "no_oracle",
			wantStorm: 1,
		},
		{
			name:      "dress down stops oracle",
			pattern:   []string{oracle},
			profile:   NewProfile(DressDown),
			start:     Start{Pool: mana.Pool{mana.Blue: 2}},
			want:      "has_dress_down",
			wantStorm: 1,
		},
		{
			name:      "force counters the setup card",
			pattern:   []string{"Dark Ritual", "Doomsday", oracle},
			profile:   NewProfile(ForceOfWill),
			want:      "has_force_of_will",
			wantStorm: 1,
		},
		{
			name:      "flusterstorm waits for a second spell",
			pattern:   []string{"Brainstorm", "Ponder", oracle},
			profile:   NewProfile(Flusterstorm),
			start:     Start{Pool: mana.Pool{mana.Blue: 4}},
			want:      "has_flusterstorm",
			wantStorm: 2,
		},
		{
			name:      "mindbreak counters the first key spell",
			pattern:   []string{"Brainstorm", oracle},
			profile:   NewProfile(MindbreakTrap),
			start:     Start{Pool: mana.Pool{mana.Blue: 3}},
			want:      "has_mindbreak_trap",
			wantStorm: 1,
		},
		{
			name:      "first counter in check order wins",
			pattern:   []string{oracle},
			profile:   NewProfile(DressDown, Pyroblast, ForceOfWill),
			start:     Start{Pool: mana.Pool{mana.Blue: 2}},
			want:      "has_force_of_will",
			wantStorm: 1,
		},
		{
			name:      "structural-only hate never counters",
			pattern:   []string{oracle},
			profile:   NewProfile(SurgicalExtraction, ConsignToMemory, OrcishBowmasters),
			start:     Start{Pool: mana.Pool{mana.Blue: 2}},
			want:      "win",
			wantStorm: 1,
		},
		{
			name:      "land drops pay generic costs",
			pattern:   []string{"Time Walk"},
			start:     Start{Pool: mana.Pool{mana.Blue: 1}, LandDrops: 1},
			want:      "no_oracle",
			wantStorm: 1,
		},
		{
			name:      "unknown cards are free and add no storm",
			pattern:   []string{"Mystery Card", oracle},
			start:     Start{Pool: mana.Pool{mana.Blue: 2}},
			want:      "win",
			wantStorm: 1,
		},
		{
			name:      "empty sequence",
			pattern:   nil,
			want:      "no_oracle",
			wantStorm: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, storm, err := e.Simulate(tt.pattern, tt.profile, tt.start)
			if err != nil {
				t.Fatalf("Simulate() error = %v", err)
			}
			if outcome.String() != tt.want {
				t.Errorf("outcome = %q, want %q", outcome, tt.want)
			}
			if storm != tt.wantStorm {
				t.Errorf("storm = %d, want %d", storm, tt.wantStorm)
			}
		})
	}
}

func TestEngine_Simulate_InvalidStart(t *testing.T) {
	e := newTestEngine(t, nil)

	_, _, err := e.Simulate([]string{oracle}, Profile{}, Start{LandDrops: -1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}

	_, err = e.SimulateDetailed([]string{oracle}, Profile{}, Start{Pool: mana.Pool{mana.Blue: -1}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestEngine_SimulateDetailed_Steps(t *testing.T) {
	e := newTestEngine(t, nil)

	steps, err := e.SimulateDetailed([]string{"Dark Ritual", "Doomsday", "Brainstorm", oracle}, Profile{}, Start{LandDrops: 2})
	if err != nil {
		t.Fatalf("SimulateDetailed() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}

	produce := steps[0]
	if produce.Kind != StepProduce || produce.Outcome != nil {
		t.Errorf("step 0 = %+v, want production without outcome", produce)
	}
	if produce.PoolBefore != (mana.Pool{mana.Generic: 2}) {
		t.Errorf("pool before = %v, want land drops in generic", produce.PoolBefore)
	}
	if produce.PoolAfter != (mana.Pool{mana.Generic: 2, mana.Black: 3}) {
		t.Errorf("pool after ritual = %v", produce.PoolAfter)
	}
	if produce.StormAfter != 0 {
		t.Errorf("production changed storm to %d", produce.StormAfter)
	}

	setup := steps[1]
	if setup.Kind != StepCast || setup.StormBefore != 0 || setup.StormAfter != 1 {
		t.Errorf("setup step = %+v", setup)
	}
	if setup.PoolAfter != (mana.Pool{mana.Generic: 2}) {
		t.Errorf("pool after Doomsday = %v", setup.PoolAfter)
	}

	last := steps[2]
	if last.Outcome == nil || last.Outcome.String() != "insufficient_mana_for_Brainstorm" {
		t.Fatalf("last outcome = %v", last.Outcome)
	}
	if last.PoolAfter != last.PoolBefore {
		t.Error("failed payment spent mana")
	}
	if last.StormAfter != last.StormBefore {
		t.Error("failed payment changed storm")
	}
}

func TestEngine_SimulateDetailed_Exhausted(t *testing.T) {
	e := newTestEngine(t, nil)

	steps, err := e.SimulateDetailed([]string{"Island", "Mox Jet"}, Profile{}, Start{})
	if err != nil {
		t.Fatalf("SimulateDetailed() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	last := steps[2]
	if last.Kind != StepExhausted || last.Outcome == nil || last.Outcome.Kind != OutcomeNoOracle {
		t.Errorf("last step = %+v", last)
	}
	if last.PoolAfter != (mana.Pool{mana.Blue: 1, mana.Black: 1}) {
		t.Errorf("final pool = %v", last.PoolAfter)
	}
}

func TestEngine_SimulateDetailed_TriggeredLists(t *testing.T) {
	e := newTestEngine(t, costless)

	steps, err := e.SimulateDetailed([]string{oracle}, NewProfile(ForceOfWill, DressDown), Start{})
	if err != nil {
		t.Fatalf("SimulateDetailed() error = %v", err)
	}
	got := steps[0].Triggered
	if len(got) != 2 || got[0] != ForceOfWill || got[1] != DressDown {
		t.Errorf("Triggered = %v, want [has_force_of_will has_dress_down]", got)
	}
	if steps[0].Outcome.Disruption != ForceOfWill {
		t.Errorf("outcome = %v", steps[0].Outcome)
	}
}

func TestRun_NotRestartable(t *testing.T) {
	e := newTestEngine(t, costless)

	run, err := e.NewRun([]string{"Brainstorm", oracle}, Profile{}, Start{})
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}

	first := 0
	for range run.Steps() {
		first++
	}
	second := 0
	for range run.Steps() {
		second++
	}

	if first != 2 || second != 0 {
		t.Errorf("steps = %d then %d, want 2 then 0", first, second)
	}
	if o, _ := run.Result(); !o.IsWin() {
		t.Errorf("Result() = %v", o)
	}
}

func TestEngine_OnlyOracleAndBystandersWin(t *testing.T) {
	e := newTestEngine(t, costless)
	bystanders := []string{"Grizzly Bears", "Lightning Bolt", "Tarmogoyf", "Wasteland"}

	for i := 0; i <= len(bystanders); i++ {
		pattern := append(append([]string(nil), bystanders[:i]...), oracle)
		outcome, _, err := e.Simulate(pattern, Profile{}, Start{})
		if err != nil {
			t.Fatalf("Simulate() error = %v", err)
		}
		if !outcome.IsWin() {
			t.Errorf("Simulate(%v) = %v, want win", pattern, outcome)
		}
	}
}

// Summary and detailed modes must agree on every pile of a realistic deck,
// and no step may leave a negative pool.
func TestEngine_SimulateModesAgree(t *testing.T) {
	e := newTestEngine(t, nil)
	deck := []string{
		oracle, "Brainstorm", "Ponder", "Gush", "Dark Ritual", "Lotus Petal",
		"Island", "Force of Will", "Time Walk", "Demonic Consultation",
	}

	profiles := []Profile{{}, NewProfile(AllDisruptions...)}
	for _, k := range AllDisruptions {
		profiles = append(profiles, NewProfile(k))
	}
	starts := []Start{
		{},
		{Pool: mana.Pool{mana.Blue: 2, mana.Black: 3}},
		{LandDrops: 3, Pool: mana.Pool{mana.Blue: 5}},
	}

	for pile := range Combinations(deck, 5) {
		pattern := e.PlayPattern(pile)
		for _, profile := range profiles {
			for _, start := range starts {
				outcome, storm, err := e.Simulate(pattern, profile, start)
				if err != nil {
					t.Fatalf("Simulate() error = %v", err)
				}
				steps, err := e.SimulateDetailed(pattern, profile, start)
				if err != nil {
					t.Fatalf("SimulateDetailed() error = %v", err)
				}

				last := steps[len(steps)-1]
				if last.Outcome == nil || *last.Outcome != outcome || last.StormAfter != storm {
					t.Fatalf("pattern %v: detailed ended %v/%d, summary %v/%d",
						pattern, last.Outcome, last.StormAfter, outcome, storm)
				}
				for i, s := range steps {
					if !s.PoolBefore.Valid() || !s.PoolAfter.Valid() {
						t.Fatalf("pattern %v step %d: negative pool", pattern, i)
					}
					if i < len(steps)-1 && s.Outcome != nil {
						t.Fatalf("pattern %v: outcome before the last step", pattern)
					}
				}
			}
		}
	}
}
