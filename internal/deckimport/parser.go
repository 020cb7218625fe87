// Package deckimport turns decklist text into card names.
package deckimport

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxQuantity is the largest count accepted on one line.
	MaxQuantity = 250
	// MaxCards caps the cards a whole decklist may expand to.
	MaxCards = 1000
)

var (
	// "4 Brainstorm (FCA) 28", "4x Brainstorm" or "4 Brainstorm"
	lineRegex        = regexp.MustCompile(`^(\d+)x?\s+(.+)$`)
	setCodeRegex     = regexp.MustCompile(`\s*\([^)]*\)`)
	collectorNoRegex = regexp.MustCompile(`\s+\d+$`)
)

// ParsedCard is one decklist entry.
type ParsedCard struct {
	Quantity int
	Name     string
	Line     int
}

// ParseResult holds the entries of a decklist and the lines that were skipped.
type ParseResult struct {
	Cards    []*ParsedCard
	Warnings []string
}

// Parse reads decklist text line by line. Blank lines and "#" comments are
// ignored; lines that do not look like "<quantity> <name>" are recorded as
// warnings and skipped so one stray line never rejects a whole list.
// So are counts above MaxQuantity and lines that would take the list past
// MaxCards.
func Parse(input string) *ParseResult {
	result := &ParseResult{
		Cards:    make([]*ParsedCard, 0),
		Warnings: make([]string, 0),
	}
	total := 0

	for i, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		matches := lineRegex.FindStringSubmatch(line)
		if matches == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %d: Could not parse '%s'", i+1, line))
			continue
		}

		quantity, err := strconv.Atoi(matches[1])
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %d: Invalid quantity '%s'", i+1, matches[1]))
			continue
		}
		if quantity > MaxQuantity {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %d: Quantity %d exceeds %d", i+1, quantity, MaxQuantity))
			continue
		}
		if total+quantity > MaxCards {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %d: Decklist exceeds %d cards", i+1, MaxCards))
			continue
		}

		name := NormalizeName(matches[2])
		if name == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %d: Missing card name", i+1))
			continue
		}

		total += quantity
		result.Cards = append(result.Cards, &ParsedCard{
			Quantity: quantity,
			Name:     name,
			Line:     i + 1,
		})
	}

	return result
}

// NormalizeName strips parenthetical set codes and a trailing collector
// number, so "Brainstorm (FCA) 28" and "Brainstorm" are the same card.
func NormalizeName(raw string) string {
	name := setCodeRegex.ReplaceAllString(raw, "")
	name = collectorNoRegex.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// ParseDecklist returns the flat multiset of card names in text, each name
// repeated by its quantity.
func ParseDecklist(text string) []string {
	return Expand(Parse(text))
}

// Expand flattens parsed entries into card names, each repeated by its
// quantity.
func Expand(result *ParseResult) []string {
	total := 0
	for _, c := range result.Cards {
		total += c.Quantity
	}

	deck := make([]string, 0, total)
	for _, c := range result.Cards {
		for n := 0; n < c.Quantity; n++ {
			deck = append(deck, c.Name)
		}
	}
	return deck
}

// Counts groups a flat deck by card name.
func Counts(deck []string) map[string]int {
	counts := make(map[string]int)
	for _, name := range deck {
		counts[name]++
	}
	return counts
}

// Format serializes a deck as one "<count> <name>" line per distinct name,
// sorted by name. ParseDecklist(Format(deck)) yields the same multiset.
func Format(deck []string) string {
	counts := Counts(deck)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%d %s\n", counts[name], name)
	}
	return b.String()
}
