package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ramonehamilton/doomsday-companion/internal/app"
	"github.com/ramonehamilton/doomsday-companion/internal/charts"
	"github.com/ramonehamilton/doomsday-companion/internal/config"
	"github.com/ramonehamilton/doomsday-companion/internal/deckimport"
	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
	"github.com/ramonehamilton/doomsday-companion/internal/storage"
)

func runSuggest(ctx context.Context, a *app.App, args []string) error {
	defaults := engine.DefaultConstraints()

	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	deckPath := fs.String("deck", "", "Decklist file (default: stdin)")
	top := fs.Int("top", a.Config.Engine.TopN, "Number of piles to show")
	maxLifeLoss := fs.Int("max-life-loss", defaults.MaxLifeLoss, "Most life a pile may cost")
	minSources := fs.Int("min-mana-sources", defaults.MinManaSources, "Fewest mana sources a pile may hold")
	requireOracle := fs.Bool("require-oracle", defaults.MustIncludeOracle, "Only piles with the win condition")
	requireDraw := fs.Bool("require-draw", defaults.MustIncludeDraw, "Only piles with a draw spell")
	jsonOut := fs.Bool("json", false, "Print JSON instead of a table")
	chartPath := fs.String("chart", "", "Write an HTML report to this path")
	openChart := fs.Bool("open", false, "Open the HTML report in a browser")
	var start startFlags
	start.register(fs)
	_ = fs.Parse(args)

	text, err := readDeck(*deckPath, os.Stdin)
	if err != nil {
		return err
	}
	st, profile, err := start.build()
	if err != nil {
		return err
	}

	result, err := a.Service.Suggest(ctx, text, engine.SuggestRequest{
		Constraints: engine.Constraints{
			MaxLifeLoss:       *maxLifeLoss,
			MinManaSources:    *minSources,
			MustIncludeOracle: *requireOracle,
			MustIncludeDraw:   *requireDraw,
		},
		Profile: profile,
		Start:   st,
		TopN:    *top,
	})
	if err != nil {
		return err
	}
	printWarnings(result.Warnings)

	if *jsonOut {
		return printJSON(result)
	}
	displaySuggestions(result)

	if *chartPath != "" && len(result.Records) > 0 {
		if err := charts.RenderSuggestionsFile(*chartPath, result.Records, charts.DefaultChartConfig()); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", *chartPath)
		if *openChart {
			if err := charts.OpenInBrowser(*chartPath); err != nil {
				log.Printf("Warning: Failed to open browser: %v", err)
			}
		}
	}
	return nil
}

func runSimulate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	var cards cardList
	fs.Var(&cards, "card", "Pile card (repeatable)")
	asPattern := fs.Bool("pattern", false, "Cast the cards in the given order instead of ordering the pile")
	detailed := fs.Bool("detailed", false, "Show every step")
	jsonOut := fs.Bool("json", false, "Print JSON instead of text")
	var start startFlags
	start.register(fs)
	_ = fs.Parse(args)

	st, profile, err := start.build()
	if err != nil {
		return err
	}

	req := doomsday.SimulateRequest{Profile: profile, Start: st}
	if *asPattern {
		req.PlayPattern = cards
	} else {
		req.Pile = cards
	}

	if *detailed {
		steps, err := a.Service.SimulateDetailed(ctx, req)
		if err != nil {
			return err
		}
		if *jsonOut {
			return printJSON(steps)
		}
		displaySteps(steps)
		return nil
	}

	result, err := a.Service.Simulate(ctx, req)
	if err != nil {
		return err
	}
	a.Metrics.RecordSimulation(result.Outcome)
	if *jsonOut {
		return printJSON(result)
	}
	displaySimulation(result)
	return nil
}

func runTurns(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("turns", flag.ExitOnError)
	var cards, hand cardList
	fs.Var(&cards, "card", "Pile card (repeatable)")
	fs.Var(&hand, "hand", "Card in the opening hand (repeatable)")
	asPattern := fs.Bool("pattern", false, "Use the cards in the given order instead of ordering the pile")
	_ = fs.Parse(args)

	req := doomsday.TurnsRequest{Hand: hand}
	if *asPattern {
		req.PlayPattern = cards
	} else {
		req.Pile = cards
	}

	result, err := a.Service.TurnsToWin(req)
	if err != nil {
		return err
	}
	fmt.Printf("Sequence: %s\n", joinCards(result.PlayPattern))
	fmt.Printf("Turns to win: %d\n", result.TurnsToWin)
	return nil
}

func runParse(_ context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	deckPath := fs.String("deck", "", "Decklist file (default: stdin)")
	jsonOut := fs.Bool("json", false, "Print JSON instead of a decklist")
	_ = fs.Parse(args)

	text, err := readDeck(*deckPath, os.Stdin)
	if err != nil {
		return err
	}

	result := a.Service.Parse(text)
	printWarnings(result.Warnings)
	if *jsonOut {
		return printJSON(result)
	}
	fmt.Print(deckimport.Format(result.Cards))
	fmt.Printf("\n%d cards, %d distinct\n", len(result.Cards), len(result.Counts))
	return nil
}

func runWarm(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("warm", flag.ExitOnError)
	watch := fs.Bool("watch", false, "Keep watching the deck directory for changes")
	dir := fs.String("dir", a.Config.Decks.Dir, "Deck directory")
	_ = fs.Parse(args)

	a.Config.Decks.Dir = *dir

	deckCount, resolved, err := a.WarmDecks(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Warmed %d decks from %s (%d costs resolved)\n", deckCount, *dir, resolved)

	if !*watch {
		return nil
	}
	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	return a.WatchDecks(ctx)
}

func runCache(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		printCacheUsage()
		return fmt.Errorf("missing cache command")
	}

	switch args[0] {
	case "list":
		entries, err := a.CachedCosts(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CARD\tMANA COST\tPOOL\tFETCHED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.ManaCost, e.Cost, e.FetchedAt.Local().Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d cached costs\n", len(entries))
	case "prune":
		fs := flag.NewFlagSet("cache prune", flag.ExitOnError)
		maxAge := fs.Duration("max-age", 0, "Remove entries older than this (default: cache TTL)")
		_ = fs.Parse(args[1:])

		n, err := a.PruneCache(ctx, *maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Removed %d cached costs\n", n)
	default:
		printCacheUsage()
		return fmt.Errorf("unknown cache command: %s", args[0])
	}
	return nil
}

func printCacheUsage() {
	fmt.Println("Usage: doomsday cache [list|prune]")
	fmt.Println()
	fmt.Println("  list                    - Show every cached card cost")
	fmt.Println("  prune [-max-age 720h]   - Remove stale entries")
}

func runMigrationCommand(cfg *config.Config, args []string) {
	if len(args) == 0 {
		printMigrationUsage()
		os.Exit(1)
	}

	dbPath := cfg.Database.Path
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	mgr, err := storage.NewMigrationManager(dbPath)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch args[0] {
	case "up":
		if err := mgr.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("✓ Migrations applied")
	case "down":
		if err := mgr.Down(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		fmt.Println("✓ Migrations rolled back")
	case "version":
		v, dirty, err := mgr.Version()
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		fmt.Printf("Database: %s\n", dbPath)
		fmt.Printf("Version: %d\n", v)
		if dirty {
			fmt.Println("Warning: database is in a dirty state")
		}
	default:
		fmt.Printf("Unknown migrate command: %s\n", args[0])
		printMigrationUsage()
		os.Exit(1)
	}
}

func printMigrationUsage() {
	fmt.Println("Usage: doomsday migrate [up|down|version]")
	fmt.Println()
	fmt.Println("  up       - Apply pending migrations")
	fmt.Println("  down     - Roll back every migration (drops the cost cache)")
	fmt.Println("  version  - Show the current schema version")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
