// Package main runs the REST API server used by the web front-end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/api"
	"github.com/ramonehamilton/doomsday-companion/internal/app"
	"github.com/ramonehamilton/doomsday-companion/internal/config"
)

var (
	configPath     = flag.String("config", config.DefaultPath(), "Path to config.toml")
	port           = flag.Int("port", 0, "API server port (default: from config, 8080)")
	dbPath         = flag.String("db-path", "", "Cost cache database path (default: ~/.doomsday/costs.db)")
	offline        = flag.Bool("offline", false, "Do not contact Scryfall")
	warm           = flag.Bool("warm", true, "Warm the cost cache from the deck directory on startup")
	watch          = flag.Bool("watch", false, "Keep warming the cost cache as decklists change")
	debugMode      = flag.Bool("debug-mode", false, "Enable verbose debug logging")
	debugModeShort = flag.Bool("d", false, "Enable debug logging (shorthand for -debug-mode)")
)

func main() {
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	debug := *debugMode || *debugModeShort || cfg.App.DebugMode

	logger := app.NewLogger(os.Stderr, debug)
	slog.SetDefault(logger)

	fmt.Println("Doomsday Companion - REST API Server")
	fmt.Println("====================================")
	fmt.Println()
	fmt.Printf("Starting API server on port %d...\n", cfg.API.Port)
	if cfg.Cache.Enabled {
		fmt.Printf("Cost cache: %s\n", cfg.Database.Path)
	}

	a, err := app.New(cfg, app.Options{Offline: *offline, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *warm {
		go func() {
			if _, _, err := a.WarmDecks(ctx); err != nil {
				logger.Warn("cost cache warm-up failed", "error", err)
			}
			if *watch {
				if err := a.WatchDecks(ctx); err != nil {
					logger.Warn("deck watcher stopped", "error", err)
				}
			}
		}()
	}

	server := api.NewServer(&api.Config{
		Port:        cfg.API.Port,
		CORSOrigins: cfg.API.CORSOrigins,
		TopN:        cfg.Engine.TopN,
	}, a.Service, a.Metrics, logger)

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Println()
	fmt.Printf("API server running at http://localhost:%d\n", cfg.API.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	<-ctx.Done()

	fmt.Println()
	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
}
