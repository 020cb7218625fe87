package engine

import (
	"fmt"
	"iter"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

// Run is one simulation of a cast sequence. It is a single-use state
// machine: Next advances one card at a time until a terminal outcome.
// A Run must not be shared between goroutines.
type Run struct {
	e       *Engine
	pattern []string
	profile Profile

	pool    mana.Pool
	storm   int
	idx     int
	done    bool
	outcome Outcome
}

// NewRun prepares a simulation of pattern from start.
func (e *Engine) NewRun(pattern []string, profile Profile, start Start) (*Run, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	return &Run{
		e:       e,
		pattern: pattern,
		profile: profile,
		pool:    start.pool(),
	}, nil
}

// Done reports whether the run has reached a terminal outcome.
func (r *Run) Done() bool {
	return r.done
}

// Result returns the terminal outcome and storm count. The outcome is
// OutcomeNone until Done.
func (r *Run) Result() (Outcome, int) {
	return r.outcome, r.storm
}

// Next performs one transition. ok is false once the run has finished.
func (r *Run) Next() (step Step, ok bool) {
	if r.done {
		return Step{}, false
	}

	if r.idx >= len(r.pattern) {
		r.finish(Outcome{Kind: OutcomeNoOracle})
		return Step{
			Index:       r.idx,
			Kind:        StepExhausted,
			PoolBefore:  r.pool,
			PoolAfter:   r.pool,
			StormBefore: r.storm,
			StormAfter:  r.storm,
			Triggered:   []DisruptionKind{},
			Outcome:     r.outcomePtr(),
		}, true
	}

	t := r.e.tables
	card := r.pattern[r.idx]
	step = Step{
		Index:       r.idx,
		Card:        card,
		Kind:        StepCast,
		PoolBefore:  r.pool,
		StormBefore: r.storm,
		Triggered:   []DisruptionKind{},
	}
	r.idx++

	// Mana production is not a cast and never ends the run.
	if t.IsManaSource(card) {
		r.pool = r.pool.Plus(t.Produces(card))
		step.Kind = StepProduce
		step.PoolAfter = r.pool
		step.StormAfter = r.storm
		return step, true
	}

	if card != t.FreeSpell() {
		if !r.pool.Pay(t.Cost(card)) {
			r.finish(Outcome{Kind: OutcomeInsufficientMana, Card: card})
			step.PoolAfter = r.pool
			step.StormAfter = r.storm
			step.Outcome = r.outcomePtr()
			return step, true
		}
	}

	// Storm goes up before hate checks; several counters read it.
	if r.e.countsTowardStorm(card) {
		r.storm++
	}
	step.PoolAfter = r.pool
	step.StormAfter = r.storm

	for _, k := range castCheckOrder {
		if r.profile.Has(k) && r.e.counters(k, card, r.storm) {
			step.Triggered = append(step.Triggered, k)
		}
	}
	if len(step.Triggered) > 0 {
		r.finish(Outcome{Kind: OutcomeDisrupted, Disruption: step.Triggered[0]})
		step.Outcome = r.outcomePtr()
		return step, true
	}

	if t.IsOracle(card) {
		r.finish(Outcome{Kind: OutcomeWin})
		step.Outcome = r.outcomePtr()
	}
	return step, true
}

// Steps yields the remaining transitions. The sequence cannot be restarted.
func (r *Run) Steps() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for {
			step, ok := r.Next()
			if !ok || !yield(step) {
				return
			}
		}
	}
}

func (r *Run) finish(o Outcome) {
	r.done = true
	r.outcome = o
}

func (r *Run) outcomePtr() *Outcome {
	o := r.outcome
	return &o
}

// Simulate runs pattern to completion and returns only the terminal outcome
// and storm count.
func (e *Engine) Simulate(pattern []string, profile Profile, start Start) (Outcome, int, error) {
	run, err := e.NewRun(pattern, profile, start)
	if err != nil {
		return Outcome{}, 0, err
	}
	for !run.Done() {
		run.Next()
	}
	o, storm := run.Result()
	return o, storm, nil
}

// SimulateDetailed runs pattern to completion and returns every step.
// The last step carries the terminal outcome.
func (e *Engine) SimulateDetailed(pattern []string, profile Profile, start Start) ([]Step, error) {
	run, err := e.NewRun(pattern, profile, start)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(pattern)+1)
	for step := range run.Steps() {
		steps = append(steps, step)
	}
	return steps, nil
}

// countsTowardStorm reports whether casting card adds to the storm count.
func (e *Engine) countsTowardStorm(card string) bool {
	t := e.tables
	return t.IsDrawSpell(card) ||
		t.IsTurnSpell(card) ||
		t.IsSetupCard(card) ||
		t.IsOracle(card) ||
		(t.Ritual() != "" && card == t.Ritual()) ||
		(t.FreeSpell() != "" && card == t.FreeSpell())
}

// counters reports whether hate card k stops card when cast at the given
// storm count. Kinds without a cast-time answer never counter.
func (e *Engine) counters(k DisruptionKind, card string, storm int) bool {
	t := e.tables
	keySpell := t.IsDrawSpell(card) || t.IsOracle(card) || t.IsSetupCard(card)
	switch k {
	case ForceOfWill, Pyroblast:
		return keySpell || t.IsTurnSpell(card)
	case Flusterstorm:
		return storm > 1 && keySpell
	case MindbreakTrap:
		return storm >= 1 && keySpell
	case DressDown:
		return t.IsOracle(card)
	case SurgicalExtraction, ConsignToMemory, OrcishBowmasters:
		return false
	default:
		panic(fmt.Sprintf("engine: unhandled disruption kind %d", int(k)))
	}
}
