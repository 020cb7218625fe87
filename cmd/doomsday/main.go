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

	"github.com/ramonehamilton/doomsday-companion/internal/app"
	"github.com/ramonehamilton/doomsday-companion/internal/config"
	"github.com/ramonehamilton/doomsday-companion/internal/version"
)

var (
	configPath     = flag.String("config", config.DefaultPath(), "Path to config.toml")
	debugMode      = flag.Bool("debug-mode", false, "Enable verbose debug logging")
	debugModeShort = flag.Bool("d", false, "Enable debug logging (shorthand for -debug-mode)")
	offline        = flag.Bool("offline", false, "Do not contact Scryfall; use cached and built-in costs")
)

type command struct {
	run   func(ctx context.Context, a *app.App, args []string) error
	about string
}

var commands = map[string]command{
	"suggest":  {runSuggest, "Rank the Doomsday piles a decklist can build"},
	"simulate": {runSimulate, "Simulate one pile or cast sequence"},
	"turns":    {runTurns, "Count the turns a cast sequence needs"},
	"parse":    {runParse, "Parse a decklist and print its cards"},
	"warm":     {runWarm, "Resolve costs for every decklist in the deck directory"},
	"cache":    {runCache, "List or prune cached card costs"},
}

var commandOrder = []string{"suggest", "simulate", "turns", "parse", "warm", "cache"}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if *debugModeShort {
		*debugMode = true
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	name, rest := args[0], args[1:]

	switch name {
	case "version":
		fmt.Printf("doomsday %s\n", version.GetVersion())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.App.DebugMode {
		*debugMode = true
	}

	logger := app.NewLogger(os.Stderr, *debugMode)
	slog.SetDefault(logger)

	switch name {
	case "migrate":
		runMigrationCommand(cfg, rest)
		return
	case "service":
		runServiceCommand(rest)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	a, err := app.New(cfg, app.Options{Offline: *offline, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cmd.run(ctx, a, rest)
	stop()

	if closeErr := a.Close(); closeErr != nil {
		logger.Warn("failed to close database", "error", closeErr)
	}
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

func printUsage() {
	fmt.Println("Doomsday Companion")
	fmt.Println("==================")
	fmt.Println()
	fmt.Println("Usage: doomsday [global options] <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range commandOrder {
		fmt.Printf("  %-9s - %s\n", name, commands[name].about)
	}
	fmt.Println("  migrate   - Manage the cost cache schema (up/down/version)")
	fmt.Println("  service   - Run the deck watcher as a system service")
	fmt.Println("  version   - Print the version")
	fmt.Println()
	fmt.Println("Global options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  doomsday suggest -deck decks/dd.txt -opponent has_force_of_will -top 5")
	fmt.Println("  doomsday simulate -card \"Dark Ritual\" -card \"Thassa's Oracle\" -pool U:2 -detailed")
	fmt.Println("  doomsday warm -watch")
	fmt.Println()
}
