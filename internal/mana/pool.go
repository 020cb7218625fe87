// Package mana models mana colors, mana pools and Scryfall mana cost strings.
package mana

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Color is one of the fixed mana buckets.
type Color int

const (
	White Color = iota
	Blue
	Black
	Red
	Green
	Generic // colorless and generic mana share one bucket
	numColors
)

// Colors lists every bucket in display order.
var Colors = []Color{White, Blue, Black, Red, Green, Generic}

var colorSymbols = [numColors]string{"W", "U", "B", "R", "G", "C"}

func (c Color) String() string {
	if c < 0 || c >= numColors {
		return "?"
	}
	return colorSymbols[c]
}

// ParseColor maps a single mana symbol ("U", "b", "C") to its bucket.
func ParseColor(symbol string) (Color, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for i, sym := range colorSymbols {
		if sym == s {
			return Color(i), true
		}
	}
	return 0, false
}

// Pool is an amount of mana per color. The zero value is an empty pool.
// Pool is a value type; copies never alias.
type Pool [numColors]int

// PoolFromMap builds a pool from a symbol → amount map such as {"U": 1, "C": 2}.
func PoolFromMap(m map[string]int) (Pool, error) {
	var p Pool
	for sym, amt := range m {
		c, ok := ParseColor(sym)
		if !ok {
			return Pool{}, fmt.Errorf("unknown mana color %q", sym)
		}
		if amt < 0 {
			return Pool{}, fmt.Errorf("negative amount %d for color %s", amt, c)
		}
		p[c] += amt
	}
	return p, nil
}

// Get returns the amount of mana of color c.
func (p Pool) Get(c Color) int {
	return p[c]
}

// Plus returns the sum of p and other.
func (p Pool) Plus(other Pool) Pool {
	for i := range p {
		p[i] += other[i]
	}
	return p
}

// Shortfall returns the first color, in display order, for which p cannot
// cover cost. ok is false when p covers the whole cost.
func (p Pool) Shortfall(cost Pool) (Color, bool) {
	for _, c := range Colors {
		if p[c] < cost[c] {
			return c, true
		}
	}
	return 0, false
}

// Pay subtracts cost from p. It returns false and leaves p untouched when any
// color would go negative; mana is never partially spent.
func (p *Pool) Pay(cost Pool) bool {
	if _, short := p.Shortfall(cost); short {
		return false
	}
	for i := range p {
		p[i] -= cost[i]
	}
	return true
}

// IsEmpty reports whether every bucket is zero.
func (p Pool) IsEmpty() bool {
	return p == Pool{}
}

// Total returns the amount of mana across all buckets.
func (p Pool) Total() int {
	n := 0
	for _, v := range p {
		n += v
	}
	return n
}

// Valid reports whether no bucket is negative.
func (p Pool) Valid() bool {
	for _, v := range p {
		if v < 0 {
			return false
		}
	}
	return true
}

// Map returns the non-zero buckets keyed by symbol.
func (p Pool) Map() map[string]int {
	m := make(map[string]int)
	for _, c := range Colors {
		if p[c] != 0 {
			m[c.String()] = p[c]
		}
	}
	return m
}

// String renders the non-zero buckets as "U:1, B:3". An empty pool renders as "-".
func (p Pool) String() string {
	if p.IsEmpty() {
		return "-"
	}
	parts := make([]string, 0, len(Colors))
	for _, c := range Colors {
		if p[c] != 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", c, p[c]))
		}
	}
	return strings.Join(parts, ", ")
}

// Detail renders the pool for step-by-step views. Blue, black and generic
// are always shown, other colors only when present: "U:1, B:0, C:2".
func (p Pool) Detail() string {
	parts := make([]string, 0, len(Colors))
	for _, c := range Colors {
		if p[c] != 0 || c == Blue || c == Black || c == Generic {
			parts = append(parts, fmt.Sprintf("%s:%d", c, p[c]))
		}
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the pool as a symbol → amount object.
func (p Pool) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// UnmarshalJSON decodes a symbol → amount object.
func (p *Pool) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := PoolFromMap(m)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
