package handlers

import (
	"net/http"

	"github.com/ramonehamilton/doomsday-companion/internal/api/response"
	"github.com/ramonehamilton/doomsday-companion/internal/metrics"
	"github.com/ramonehamilton/doomsday-companion/internal/rules"
	"github.com/ramonehamilton/doomsday-companion/internal/version"
)

// SystemHandler handles rule table, metrics and version requests.
type SystemHandler struct {
	tables  *rules.Tables
	metrics *metrics.EngineMetrics
}

// NewSystemHandler creates a new SystemHandler. m may be nil.
func NewSystemHandler(tables *rules.Tables, m *metrics.EngineMetrics) *SystemHandler {
	return &SystemHandler{tables: tables, metrics: m}
}

// GetRules returns the active rule tables.
func (h *SystemHandler) GetRules(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.tables.File())
}

// GetMetrics returns engine statistics.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	if h.metrics == nil {
		response.Success(w, metrics.NewEngineMetrics().GetStats())
		return
	}
	response.Success(w, h.metrics.GetStats())
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"version": version.GetVersion(),
		"service": "doomsday-companion-api",
	})
}
