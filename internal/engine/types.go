package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

var (
	// ErrInvalidArgument marks caller mistakes such as a negative land drop count.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidConstraints marks a malformed Constraints record.
	ErrInvalidConstraints = errors.New("invalid constraints")
)

// OutcomeKind classifies how a simulation ended.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeWin
	OutcomeNoOracle
	OutcomeInsufficientMana
	OutcomeDisrupted
)

// Outcome is the terminal state of a simulation run. Card is set for
// OutcomeInsufficientMana, Disruption for OutcomeDisrupted.
type Outcome struct {
	Kind       OutcomeKind
	Card       string
	Disruption DisruptionKind
}

const insufficientManaPrefix = "insufficient_mana_for_"

// String renders the outcome vocabulary: "win", "no_oracle",
// "insufficient_mana_for_<card>" or a disruption key.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeWin:
		return "win"
	case OutcomeNoOracle:
		return "no_oracle"
	case OutcomeInsufficientMana:
		return insufficientManaPrefix + o.Card
	case OutcomeDisrupted:
		return o.Disruption.String()
	default:
		return ""
	}
}

// IsWin reports whether the win condition resolved.
func (o Outcome) IsWin() bool {
	return o.Kind == OutcomeWin
}

// MarshalText encodes the outcome as its string form.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the string form.
func (o *Outcome) UnmarshalText(text []byte) error {
	s := string(text)
	switch {
	case s == "":
		*o = Outcome{}
	case s == "win":
		*o = Outcome{Kind: OutcomeWin}
	case s == "no_oracle":
		*o = Outcome{Kind: OutcomeNoOracle}
	case strings.HasPrefix(s, insufficientManaPrefix):
		*o = Outcome{Kind: OutcomeInsufficientMana, Card: strings.TrimPrefix(s, insufficientManaPrefix)}
	default:
		k, err := ParseDisruption(s)
		if err != nil {
			return fmt.Errorf("unknown outcome %q", s)
		}
		*o = Outcome{Kind: OutcomeDisrupted, Disruption: k}
	}
	return nil
}

// StepKind distinguishes simulation steps.
type StepKind int

const (
	StepProduce   StepKind = iota // a mana source added to the pool
	StepCast                      // a spell was cast
	StepExhausted                 // the sequence ran out without the win condition
)

func (k StepKind) String() string {
	switch k {
	case StepProduce:
		return "produce"
	case StepCast:
		return "cast"
	case StepExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// MarshalText encodes the step kind as its string form.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Start is the state a simulation begins from.
type Start struct {
	Hand      []string  `json:"initial_hand"`
	Pool      mana.Pool `json:"initial_pool"`
	LandDrops int       `json:"land_drops"`
}

// Validate rejects impossible starting resources.
func (s Start) Validate() error {
	if s.LandDrops < 0 {
		return fmt.Errorf("%w: land drops cannot be negative: %d", ErrInvalidArgument, s.LandDrops)
	}
	if !s.Pool.Valid() {
		return fmt.Errorf("%w: initial pool cannot be negative: %v", ErrInvalidArgument, s.Pool)
	}
	return nil
}

func (s Start) pool() mana.Pool {
	p := s.Pool
	p[mana.Generic] += s.LandDrops
	return p
}

// Step is one transition of a detailed simulation.
type Step struct {
	Index       int              `json:"index"`
	Card        string           `json:"card"`
	Kind        StepKind         `json:"step_kind"`
	PoolBefore  mana.Pool        `json:"pool_before"`
	PoolAfter   mana.Pool        `json:"pool_after"`
	StormBefore int              `json:"storm_before"`
	StormAfter  int              `json:"storm_after"`
	Triggered   []DisruptionKind `json:"triggered_vulnerabilities"`
	Outcome     *Outcome         `json:"outcome,omitempty"`
}

// PoolBeforeString formats the pool before the transition.
func (s Step) PoolBeforeString() string {
	return s.PoolBefore.Detail()
}

// PoolAfterString formats the pool after the transition.
func (s Step) PoolAfterString() string {
	return s.PoolAfter.Detail()
}

// Constraints are the deckbuilding limits a pile must satisfy.
type Constraints struct {
	MaxLifeLoss       int  `json:"max_life_loss" toml:"max_life_loss"`
	MinManaSources    int  `json:"min_mana_sources" toml:"min_mana_sources"`
	MustIncludeOracle bool `json:"must_include_oracle" toml:"must_include_oracle"`
	MustIncludeDraw   bool `json:"must_include_draw" toml:"must_include_draw"`
}

// DefaultConstraints mirrors the historical defaults: any life total, one
// mana source, and both the win condition and a draw spell required.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxLifeLoss:       20,
		MinManaSources:    1,
		MustIncludeOracle: true,
		MustIncludeDraw:   true,
	}
}

// Validate rejects negative limits.
func (c Constraints) Validate() error {
	if c.MaxLifeLoss < 0 {
		return fmt.Errorf("%w: max life loss cannot be negative: %d", ErrInvalidConstraints, c.MaxLifeLoss)
	}
	if c.MinManaSources < 0 {
		return fmt.Errorf("%w: min mana sources cannot be negative: %d", ErrInvalidConstraints, c.MinManaSources)
	}
	return nil
}

// SuggestRequest bundles the inputs of one suggestion run.
type SuggestRequest struct {
	Constraints Constraints
	Profile     Profile
	Start       Start
	TopN        int
}

// SuggestionRecord is one ranked pile.
type SuggestionRecord struct {
	Pile            []string         `json:"pile"`
	PlayPattern     []string         `json:"play_pattern"`
	TurnsToWin      int              `json:"turns_to_win"`
	Outcome         Outcome          `json:"outcome"`
	StormCount      int              `json:"storm_count"`
	Vulnerabilities []DisruptionKind `json:"vulnerabilities"`
	ProtectionCount int              `json:"protection_count"`
	RiskScore       int              `json:"risk_score"`
}
