package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/kardianos/service"

	"github.com/ramonehamilton/doomsday-companion/internal/app"
)

// watcherProgram implements service.Interface. It keeps the cost cache warm
// for every decklist in the deck directory.
type watcherProgram struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start implements service.Interface
func (p *watcherProgram) Start(s service.Service) error {
	slog.Info("starting deck watcher service")
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.run(ctx); err != nil {
			slog.Error("deck watcher stopped", "error", err)
		}
	}()
	return nil
}

func (p *watcherProgram) run(ctx context.Context) error {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, app.Options{Logger: slog.Default()})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}()

	if _, _, err := a.WarmDecks(ctx); err != nil {
		return err
	}
	return a.WatchDecks(ctx)
}

// Stop implements service.Interface
func (p *watcherProgram) Stop(s service.Service) error {
	slog.Info("stopping deck watcher service")
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// getServiceConfig returns the service configuration
func getServiceConfig() *service.Config {
	return &service.Config{
		Name:        "DoomsdayDeckWatcher",
		DisplayName: "Doomsday Deck Watcher",
		Description: "Keeps the Doomsday Companion card cost cache warm for the decklists in the deck directory",
		Arguments:   []string{"-config", *configPath, "service", "run"},
	}
}

// runServiceCommand handles service management commands
func runServiceCommand(args []string) {
	if len(args) == 0 {
		printServiceUsage()
		os.Exit(1)
	}
	action := args[0]

	prg := &watcherProgram{}
	svcConfig := getServiceConfig()
	s, err := service.New(prg, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch action {
	case "run":
		if err := s.Run(); err != nil {
			log.Fatalf("Service failed: %v", err)
		}

	case "install":
		if err := s.Install(); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		fmt.Println("✓ Service installed successfully")
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Start the service: doomsday service start")
		fmt.Println("  2. Verify it's running: doomsday service status")

	case "uninstall":
		if err := s.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall service: %v", err)
		}
		fmt.Println("✓ Service uninstalled successfully")

	case "start":
		if err := s.Start(); err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}
		fmt.Println("✓ Service started successfully")

	case "stop":
		if err := s.Stop(); err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}
		fmt.Println("✓ Service stopped successfully")

	case "restart":
		if err := s.Restart(); err != nil {
			log.Fatalf("Failed to restart service: %v", err)
		}
		fmt.Println("✓ Service restarted successfully")

	case "status":
		status, err := s.Status()
		if err != nil {
			log.Fatalf("Failed to get service status: %v", err)
		}

		fmt.Println("Service Status:")
		switch status {
		case service.StatusRunning:
			fmt.Println("  Status: ✓ Running")
		case service.StatusStopped:
			fmt.Println("  Status: ● Stopped")
		default:
			fmt.Println("  Status: ? Unknown")
		}
		fmt.Printf("  Name: %s\n", svcConfig.Name)
		fmt.Printf("  Platform: %s\n", service.Platform())

	default:
		fmt.Printf("Unknown service command: %s\n", action)
		printServiceUsage()
		os.Exit(1)
	}
}

func printServiceUsage() {
	fmt.Println("Usage: doomsday service [install|uninstall|start|stop|restart|status|run]")
	fmt.Println()
	fmt.Println("  install    - Install the deck watcher as a system service")
	fmt.Println("  uninstall  - Uninstall the service")
	fmt.Println("  start      - Start the service")
	fmt.Println("  stop       - Stop the service")
	fmt.Println("  restart    - Restart the service")
	fmt.Println("  status     - Show service status")
	fmt.Println("  run        - Run in the foreground (used by the service manager)")
}
