package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// mockPileService is a mock implementation of the pile service for testing.
type mockPileService struct {
	suggestDeck string
	suggestReq  engine.SuggestRequest
	suggest     *doomsday.SuggestResult
	simulate    *doomsday.SimulateResult
	steps       []engine.Step
	turns       *doomsday.TurnsResult
	err         error
}

func (m *mockPileService) Suggest(_ context.Context, deckText string, req engine.SuggestRequest) (*doomsday.SuggestResult, error) {
	m.suggestDeck = deckText
	m.suggestReq = req
	return m.suggest, m.err
}

func (m *mockPileService) Simulate(_ context.Context, _ doomsday.SimulateRequest) (*doomsday.SimulateResult, error) {
	return m.simulate, m.err
}

func (m *mockPileService) SimulateDetailed(_ context.Context, _ doomsday.SimulateRequest) ([]engine.Step, error) {
	return m.steps, m.err
}

func (m *mockPileService) TurnsToWin(_ doomsday.TurnsRequest) (*doomsday.TurnsResult, error) {
	return m.turns, m.err
}

type mockRecorder struct {
	outcomes []engine.Outcome
}

func (m *mockRecorder) RecordSimulation(outcome engine.Outcome) {
	m.outcomes = append(m.outcomes, outcome)
}

type mockPublisher struct {
	events []string
}

func (m *mockPublisher) Publish(eventType string, _ any) bool {
	m.events = append(m.events, eventType)
	return true
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestPileHandler_Suggest_Defaults(t *testing.T) {
	mock := &mockPileService{suggest: &doomsday.SuggestResult{DeckSize: 60}}
	events := &mockPublisher{}
	handler := NewPileHandler(mock, PileOptions{Events: events})

	w := post(t, handler.Suggest, `{"deck": "4 Brainstorm"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if mock.suggestDeck != "4 Brainstorm" {
		t.Errorf("Expected deck text to be passed through, got %q", mock.suggestDeck)
	}
	if mock.suggestReq.TopN != DefaultTopN {
		t.Errorf("Expected top_n %d, got %d", DefaultTopN, mock.suggestReq.TopN)
	}
	if mock.suggestReq.Constraints != engine.DefaultConstraints() {
		t.Errorf("Expected default constraints, got %+v", mock.suggestReq.Constraints)
	}
	if len(events.events) != 1 || events.events[0] != "suggest:completed" {
		t.Errorf("Expected one suggest:completed event, got %v", events.events)
	}
}

func TestPileHandler_Suggest_RequestFields(t *testing.T) {
	mock := &mockPileService{suggest: &doomsday.SuggestResult{}}
	handler := NewPileHandler(mock, PileOptions{TopN: 7})

	body := `{
		"deck": "1 Island",
		"top_n": 2,
		"constraints": {"max_life_loss": 4, "min_mana_sources": 2},
		"opponent_profile": {"has_force_of_will": true},
		"initial_hand": ["Brainstorm"],
		"initial_pool": {"U": 1},
		"land_drops": 1
	}`
	w := post(t, handler.Suggest, body)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	got := mock.suggestReq
	if got.TopN != 2 {
		t.Errorf("Expected top_n 2, got %d", got.TopN)
	}
	if got.Constraints.MaxLifeLoss != 4 || got.Constraints.MinManaSources != 2 || got.Constraints.MustIncludeOracle {
		t.Errorf("Unexpected constraints %+v", got.Constraints)
	}
	if !got.Profile.Has(engine.ForceOfWill) || got.Profile.Has(engine.Pyroblast) {
		t.Errorf("Unexpected profile %v", got.Profile.Enabled())
	}
	if len(got.Start.Hand) != 1 || got.Start.Pool.Total() != 1 || got.Start.LandDrops != 1 {
		t.Errorf("Unexpected start %+v", got.Start)
	}
}

func TestPileHandler_Suggest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest},
		{"missing deck", `{"top_n": 1}`, nil, http.StatusBadRequest},
		{"invalid constraints", `{"deck": "1 Island"}`, fmt.Errorf("%w: negative", engine.ErrInvalidConstraints), http.StatusBadRequest},
		{"cancelled", `{"deck": "1 Island"}`, context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockPublisher{}
			handler := NewPileHandler(&mockPileService{err: tt.err}, PileOptions{Events: events})

			w := post(t, handler.Suggest, tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
			if len(events.events) != 0 {
				t.Errorf("Expected no events on failure, got %v", events.events)
			}
		})
	}
}

func TestPileHandler_SuggestChart_NoSuggestions(t *testing.T) {
	mock := &mockPileService{suggest: &doomsday.SuggestResult{}}
	handler := NewPileHandler(mock, PileOptions{})

	w := post(t, handler.SuggestChart, `{"deck": "1 Island"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestPileHandler_Simulate_RecordsOutcome(t *testing.T) {
	win := engine.Outcome{Kind: engine.OutcomeWin}
	mock := &mockPileService{simulate: &doomsday.SimulateResult{Outcome: win, StormCount: 4}}
	recorder := &mockRecorder{}
	handler := NewPileHandler(mock, PileOptions{Recorder: recorder})

	w := post(t, handler.Simulate, `{"play_pattern": ["Thassa's Oracle"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Data struct {
			Outcome    string `json:"outcome"`
			StormCount int    `json:"storm_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Data.Outcome != "win" || body.Data.StormCount != 4 {
		t.Errorf("Unexpected response %+v", body.Data)
	}
	if len(recorder.outcomes) != 1 || !recorder.outcomes[0].IsWin() {
		t.Errorf("Expected one recorded win, got %v", recorder.outcomes)
	}
}

func TestPileHandler_SimulateDetailed_RecordsFinalOutcome(t *testing.T) {
	disrupted := engine.Outcome{Kind: engine.OutcomeDisrupted, Disruption: engine.ForceOfWill}
	mock := &mockPileService{steps: []engine.Step{
		{Index: 0, Card: "Dark Ritual", Kind: engine.StepProduce},
		{Index: 1, Card: "Doomsday", Kind: engine.StepCast, Outcome: &disrupted},
	}}
	recorder := &mockRecorder{}
	handler := NewPileHandler(mock, PileOptions{Recorder: recorder})

	w := post(t, handler.SimulateDetailed, `{"pile": ["Doomsday"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != disrupted {
		t.Errorf("Expected the final outcome to be recorded, got %v", recorder.outcomes)
	}
}

func TestPileHandler_ServiceErrors(t *testing.T) {
	invalid := fmt.Errorf("%w: pile or play pattern required", engine.ErrInvalidArgument)

	tests := []struct {
		name string
		call func(*PileHandler) http.HandlerFunc
		err  error
		want int
	}{
		{"simulate invalid", func(h *PileHandler) http.HandlerFunc { return h.Simulate }, invalid, http.StatusBadRequest},
		{"simulate failure", func(h *PileHandler) http.HandlerFunc { return h.Simulate }, errors.New("resolver down"), http.StatusInternalServerError},
		{"detailed invalid", func(h *PileHandler) http.HandlerFunc { return h.SimulateDetailed }, invalid, http.StatusBadRequest},
		{"turns invalid", func(h *PileHandler) http.HandlerFunc { return h.TurnsToWin }, invalid, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockRecorder{}
			handler := NewPileHandler(&mockPileService{err: tt.err}, PileOptions{Recorder: recorder})

			w := post(t, tt.call(handler), `{}`)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
			if len(recorder.outcomes) != 0 {
				t.Errorf("Expected nothing recorded, got %v", recorder.outcomes)
			}
		})
	}
}

func TestPileHandler_InvalidBodies(t *testing.T) {
	handler := NewPileHandler(&mockPileService{}, PileOptions{})

	for name, fn := range map[string]http.HandlerFunc{
		"simulate": handler.Simulate,
		"detailed": handler.SimulateDetailed,
		"turns":    handler.TurnsToWin,
	} {
		t.Run(name, func(t *testing.T) {
			w := post(t, fn, `not json`)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}
