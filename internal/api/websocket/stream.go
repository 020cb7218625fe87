package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// Maximum size of the simulation request a client sends.
const maxRequestSize = 64 * 1024

// Event types sent by StreamHandler.
const (
	EventSimulationStarted = "simulation:started"
	EventSimulationStep    = "simulation:step"
	EventSimulationDone    = "simulation:done"
	EventError             = "error"
)

// Runner prepares step-by-step simulations. doomsday.Service implements it.
type Runner interface {
	NewRun(ctx context.Context, req doomsday.SimulateRequest) (*engine.Run, []string, error)
}

// OutcomeRecorder counts simulation outcomes.
type OutcomeRecorder interface {
	RecordSimulation(outcome engine.Outcome)
}

// StreamHandler serves one simulation per connection. The client sends a
// single doomsday.SimulateRequest. The server answers with a started event
// carrying the cast sequence, one step event per transition and a done
// event with the outcome, then closes the connection.
type StreamHandler struct {
	runner   Runner
	recorder OutcomeRecorder
	logger   *slog.Logger
}

// NewStreamHandler creates a StreamHandler. recorder and logger may be nil.
func NewStreamHandler(runner Runner, recorder OutcomeRecorder, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{runner: runner, recorder: recorder, logger: logger}
}

// SimulationDone is the payload of the done event.
type SimulationDone struct {
	Outcome    engine.Outcome `json:"outcome"`
	StormCount int            `json:"storm_count"`
	Steps      int            `json:"steps"`
}

// ServeWs handles GET /ws/simulate.
func (h *StreamHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxRequestSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	var req doomsday.SimulateRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.send(conn, EventError, map[string]string{"message": "invalid simulation request"})
		return
	}

	ctx := r.Context()
	run, pattern, err := h.runner.NewRun(ctx, req)
	if err != nil {
		h.send(conn, EventError, map[string]string{"message": err.Error()})
		return
	}

	if !h.send(conn, EventSimulationStarted, map[string]any{"play_pattern": pattern}) {
		return
	}

	steps := 0
	for step := range run.Steps() {
		if ctx.Err() != nil {
			return
		}
		if !h.send(conn, EventSimulationStep, step) {
			return
		}
		steps++
	}

	outcome, storm := run.Result()
	if h.recorder != nil {
		h.recorder.RecordSimulation(outcome)
	}
	h.send(conn, EventSimulationDone, SimulationDone{Outcome: outcome, StormCount: storm, Steps: steps})

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *StreamHandler) send(conn *websocket.Conn, eventType string, data any) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := conn.WriteJSON(Event{Type: eventType, Data: data}); err != nil {
		h.logger.Debug("websocket write failed", "event", eventType, "error", err)
		return false
	}
	return true
}
