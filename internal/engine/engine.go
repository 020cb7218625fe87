// Package engine enumerates Doomsday piles, orders them into cast
// sequences, simulates those sequences against opponent disruption and
// ranks the results.
package engine

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/rules"
)

// DefaultPileSize is the number of cards Doomsday puts in the library.
const DefaultPileSize = 5

// RunStats summarizes one suggestion run.
type RunStats struct {
	DistinctCards int
	Candidates    int
	Survivors     int
	Returned      int
	Duration      time.Duration
}

// Recorder receives run statistics. metrics.EngineMetrics implements it.
type Recorder interface {
	RecordSuggestRun(stats RunStats)
}

// Options configures an Engine.
type Options struct {
	// PileSize is the number of cards per pile. Default: 5
	PileSize int
	// Workers is the number of goroutines evaluating piles. Default: runtime.NumCPU()
	Workers int
	// Logger receives one summary line per run. Default: slog.Default()
	Logger *slog.Logger
	// Recorder is optional.
	Recorder Recorder
}

// Engine evaluates piles against one immutable set of rule tables.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	tables   *rules.Tables
	pileSize int
	workers  int
	logger   *slog.Logger
	recorder Recorder
}

// New creates an engine over tables.
func New(tables *rules.Tables, opts Options) *Engine {
	if tables == nil {
		panic("engine: nil rule tables")
	}
	if opts.PileSize <= 0 {
		opts.PileSize = DefaultPileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		tables:   tables,
		pileSize: opts.PileSize,
		workers:  opts.Workers,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
}

// Tables returns the rule tables the engine was built with.
func (e *Engine) Tables() *rules.Tables {
	return e.tables
}

// PileSize returns the number of cards per enumerated pile.
func (e *Engine) PileSize() int {
	return e.pileSize
}
