package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ramonehamilton/doomsday-companion/internal/engine"
	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

// cardList collects a repeated -card style flag. Card names may contain
// commas, so each occurrence is one card.
type cardList []string

func (c *cardList) String() string {
	return strings.Join(*c, "; ")
}

func (c *cardList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("card name cannot be empty")
	}
	*c = append(*c, v)
	return nil
}

// parseProfile reads a comma separated list of disruption keys such as
// "has_force_of_will,has_pyroblast". The "has_" prefix is optional.
func parseProfile(s string) (engine.Profile, error) {
	var kinds []engine.DisruptionKind
	for _, part := range strings.Split(s, ",") {
		key := strings.TrimSpace(part)
		if key == "" {
			continue
		}
		if !strings.HasPrefix(key, "has_") {
			key = "has_" + key
		}
		k, err := engine.ParseDisruption(key)
		if err != nil {
			return engine.Profile{}, err
		}
		kinds = append(kinds, k)
	}
	return engine.NewProfile(kinds...), nil
}

// parsePool reads "U:2,B:1" into a mana pool.
func parsePool(s string) (mana.Pool, error) {
	m := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, amount, ok := strings.Cut(part, ":")
		if !ok {
			return mana.Pool{}, fmt.Errorf("invalid mana %q: want COLOR:AMOUNT", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(amount))
		if err != nil {
			return mana.Pool{}, fmt.Errorf("invalid amount in %q: %w", part, err)
		}
		m[strings.TrimSpace(sym)] += n
	}
	return mana.PoolFromMap(m)
}

// readDeck returns the decklist at path, or standard input when path is
// empty or "-".
func readDeck(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read decklist from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read decklist: %w", err)
	}
	return string(data), nil
}

// startFlags are the starting resources shared by suggest and simulate.
type startFlags struct {
	hand      cardList
	pool      string
	landDrops int
	opponent  string
}

func (s *startFlags) register(fs *flag.FlagSet) {
	fs.Var(&s.hand, "hand", "Card in the opening hand (repeatable)")
	fs.StringVar(&s.pool, "pool", "", "Floating mana, e.g. U:1,B:3")
	fs.IntVar(&s.landDrops, "land-drops", 0, "Land drops available (each adds one generic mana)")
	fs.StringVar(&s.opponent, "opponent", "", "Opponent hate, e.g. has_force_of_will,has_pyroblast")
}

func (s *startFlags) build() (engine.Start, engine.Profile, error) {
	pool, err := parsePool(s.pool)
	if err != nil {
		return engine.Start{}, engine.Profile{}, err
	}
	profile, err := parseProfile(s.opponent)
	if err != nil {
		return engine.Start{}, engine.Profile{}, err
	}
	return engine.Start{Hand: s.hand, Pool: pool, LandDrops: s.landDrops}, profile, nil
}
