// Package decks loads decklist files from disk and watches a directory for
// changes to them.
package decks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/deckimport"
)

// Ext is the decklist file extension.
const Ext = ".txt"

// Deck is one decklist file.
type Deck struct {
	// Name is the file name without extension.
	Name     string
	Path     string
	Cards    []string
	Warnings []string
	ModTime  time.Time
}

// Distinct returns the deck's card names without repeats, sorted.
func (d *Deck) Distinct() []string {
	counts := deckimport.Counts(d.Cards)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads and parses one decklist.
func LoadFile(path string) (*Deck, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat deck %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %s: %w", path, err)
	}

	parsed := deckimport.Parse(string(data))
	deck := &Deck{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:     path,
		Warnings: parsed.Warnings,
		ModTime:  info.ModTime(),
	}
	for _, c := range parsed.Cards {
		for i := 0; i < c.Quantity; i++ {
			deck.Cards = append(deck.Cards, c.Name)
		}
	}
	return deck, nil
}

// LoadDir loads every decklist in dir, ordered by file name. A missing
// directory yields no decks.
func LoadDir(dir string) ([]*Deck, error) {
	paths, err := listDecks(dir)
	if err != nil {
		return nil, err
	}

	decks := make([]*Deck, 0, len(paths))
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, nil
}

func listDecks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read deck directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isDeckFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isDeckFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext) && !strings.HasPrefix(name, ".")
}
