package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/doomsday-companion/internal/api/handlers"
	"github.com/ramonehamilton/doomsday-companion/internal/api/response"
	"github.com/ramonehamilton/doomsday-companion/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoints (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)
	s.router.Get("/ws/simulate", s.stream.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		deckHandler := handlers.NewDeckHandler(s.service)
		r.Route("/decks", func(r chi.Router) {
			r.Post("/parse", deckHandler.ParseDeckList)
			r.Post("/format", deckHandler.FormatDeckList)
		})

		pileHandler := handlers.NewPileHandler(s.service, handlers.PileOptions{
			Recorder: s.metrics,
			Events:   s.wsHub,
			TopN:     s.topN,
		})
		r.Route("/piles", func(r chi.Router) {
			r.Post("/suggest", pileHandler.Suggest)
			r.Post("/suggest/chart", pileHandler.SuggestChart)
			r.Post("/simulate", pileHandler.Simulate)
			r.Post("/simulate/detailed", pileHandler.SimulateDetailed)
			r.Post("/turns", pileHandler.TurnsToWin)
		})

		systemHandler := handlers.NewSystemHandler(s.service.Rules(), s.metrics)
		r.Get("/rules", systemHandler.GetRules)
		r.Get("/metrics", systemHandler.GetMetrics)
		r.Get("/version", systemHandler.GetVersion)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "doomsday-companion-api",
		"version": version.GetVersion(),
	})
}
