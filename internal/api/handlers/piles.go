package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ramonehamilton/doomsday-companion/internal/api/response"
	"github.com/ramonehamilton/doomsday-companion/internal/charts"
	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// DefaultTopN is used when a suggest request does not set top_n.
const DefaultTopN = 10

// PileService is the part of doomsday.Service the pile handlers need.
type PileService interface {
	Suggest(ctx context.Context, deckText string, req engine.SuggestRequest) (*doomsday.SuggestResult, error)
	Simulate(ctx context.Context, req doomsday.SimulateRequest) (*doomsday.SimulateResult, error)
	SimulateDetailed(ctx context.Context, req doomsday.SimulateRequest) ([]engine.Step, error)
	TurnsToWin(req doomsday.TurnsRequest) (*doomsday.TurnsResult, error)
}

// SimulationRecorder counts simulation outcomes. metrics.EngineMetrics implements it.
type SimulationRecorder interface {
	RecordSimulation(outcome engine.Outcome)
}

// Publisher pushes events to websocket subscribers.
type Publisher interface {
	Publish(eventType string, data any) bool
}

// PileOptions configures a PileHandler. Every field is optional.
type PileOptions struct {
	Recorder SimulationRecorder
	Events   Publisher
	TopN     int
}

// PileHandler handles suggestion and simulation requests.
type PileHandler struct {
	service  PileService
	recorder SimulationRecorder
	events   Publisher
	topN     int
}

// NewPileHandler creates a new PileHandler.
func NewPileHandler(service PileService, opts PileOptions) *PileHandler {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	return &PileHandler{
		service:  service,
		recorder: opts.Recorder,
		events:   opts.Events,
		topN:     opts.TopN,
	}
}

// SuggestRequest is the body of POST /piles/suggest. Constraints default to
// engine.DefaultConstraints when omitted.
type SuggestRequest struct {
	Deck        string              `json:"deck"`
	Constraints *engine.Constraints `json:"constraints,omitempty"`
	Profile     engine.Profile      `json:"opponent_profile"`
	engine.Start
	TopN int `json:"top_n"`
}

func (h *PileHandler) engineRequest(req SuggestRequest) engine.SuggestRequest {
	constraints := engine.DefaultConstraints()
	if req.Constraints != nil {
		constraints = *req.Constraints
	}
	topN := req.TopN
	if topN == 0 {
		topN = h.topN
	}
	return engine.SuggestRequest{
		Constraints: constraints,
		Profile:     req.Profile,
		Start:       req.Start,
		TopN:        topN,
	}
}

func (h *PileHandler) suggest(w http.ResponseWriter, r *http.Request) (*doomsday.SuggestResult, bool) {
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return nil, false
	}
	if req.Deck == "" {
		response.BadRequest(w, errors.New("deck is required"))
		return nil, false
	}

	result, err := h.service.Suggest(r.Context(), req.Deck, h.engineRequest(req))
	if err != nil {
		response.EngineError(w, err)
		return nil, false
	}

	if h.events != nil {
		h.events.Publish("suggest:completed", map[string]any{
			"deck_size":   result.DeckSize,
			"suggestions": len(result.Records),
		})
	}
	return result, true
}

// Suggest ranks the piles of a decklist.
func (h *PileHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.suggest(w, r)
	if !ok {
		return
	}
	response.Success(w, result)
}

// SuggestChart ranks the piles of a decklist and returns an HTML report.
func (h *PileHandler) SuggestChart(w http.ResponseWriter, r *http.Request) {
	result, ok := h.suggest(w, r)
	if !ok {
		return
	}
	if len(result.Records) == 0 {
		response.NotFound(w, errors.New("no pile satisfies the constraints"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.RenderSuggestions(w, result.Records, charts.DefaultChartConfig()); err != nil {
		response.InternalError(w, err)
	}
}

// Simulate runs one cast sequence to completion.
func (h *PileHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req doomsday.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	result, err := h.service.Simulate(r.Context(), req)
	if err != nil {
		response.EngineError(w, err)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordSimulation(result.Outcome)
	}

	response.Success(w, result)
}

// SimulateDetailed runs one cast sequence and returns every step.
func (h *PileHandler) SimulateDetailed(w http.ResponseWriter, r *http.Request) {
	var req doomsday.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	steps, err := h.service.SimulateDetailed(r.Context(), req)
	if err != nil {
		response.EngineError(w, err)
		return
	}
	if h.recorder != nil && len(steps) > 0 {
		if last := steps[len(steps)-1]; last.Outcome != nil {
			h.recorder.RecordSimulation(*last.Outcome)
		}
	}

	response.Success(w, steps)
}

// TurnsToWin estimates how many turns a sequence takes.
func (h *PileHandler) TurnsToWin(w http.ResponseWriter, r *http.Request) {
	var req doomsday.TurnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	result, err := h.service.TurnsToWin(req)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, result)
}
