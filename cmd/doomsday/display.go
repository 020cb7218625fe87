package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ramonehamilton/doomsday-companion/internal/doomsday"
	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// displaySuggestions prints ranked piles, best first.
func displaySuggestions(result *doomsday.SuggestResult) {
	fmt.Printf("Deck: %d cards\n\n", result.DeckSize)

	if len(result.Records) == 0 {
		fmt.Println("No pile satisfies the constraints.")
		return
	}

	fmt.Println("Suggested Piles")
	fmt.Println("---------------")
	for i, r := range result.Records {
		fmt.Printf("%d. %s\n", i+1, joinCards(r.Pile))
		fmt.Printf("   Sequence: %s\n", joinCards(r.PlayPattern))
		fmt.Printf("   Outcome: %s  Turns: %d  Storm: %d  Risk: %d  Protection: %d\n",
			r.Outcome, r.TurnsToWin, r.StormCount, r.RiskScore, r.ProtectionCount)
		if len(r.Vulnerabilities) > 0 {
			fmt.Printf("   Weak to: %s\n", joinKinds(r.Vulnerabilities))
		}
	}
	fmt.Println()
}

// displaySimulation prints the result of one simulation.
func displaySimulation(result *doomsday.SimulateResult) {
	fmt.Printf("Sequence: %s\n", joinCards(result.PlayPattern))
	fmt.Printf("Outcome: %s\n", result.Outcome)
	fmt.Printf("Storm count: %d\n", result.StormCount)
	fmt.Printf("Turns to win: %d\n", result.TurnsToWin)
}

// displaySteps prints a step table with the pool before and after each card.
func displaySteps(steps []engine.Step) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCard\tAction\tPool before\tPool after\tStorm\tResult")
	for _, s := range steps {
		card := s.Card
		if card == "" {
			card = "-"
		}
		result := ""
		if s.Outcome != nil {
			result = s.Outcome.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Index+1, card, s.Kind, s.PoolBeforeString(), s.PoolAfterString(), s.StormAfter, result)
	}
	_ = w.Flush()
}

func joinCards(cards []string) string {
	if len(cards) == 0 {
		return "-"
	}
	return strings.Join(cards, " → ")
}

func joinKinds(kinds []engine.DisruptionKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.CardName()
	}
	return strings.Join(names, ", ")
}
