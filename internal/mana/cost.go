package mana

import (
	"regexp"
	"strconv"
	"strings"
)

var symbolRegex = regexp.MustCompile(`\{([^}]+)\}`)

// ParseCost converts a Scryfall mana cost such as "{2}{U}{U}{B}" into a pool
// of requirements ({C:2, U:2, B:1}).
//
// Numeric symbols go to the generic bucket, X costs nothing, hybrid symbols
// ("{U/B}", "{2/W}") count as their first colored half and Phyrexian symbols
// ("{U/P}") count as their color. Anything else (snow, tap, half mana) is ignored.
func ParseCost(cost string) Pool {
	var p Pool
	for _, m := range symbolRegex.FindAllStringSubmatch(cost, -1) {
		sym := strings.ToUpper(strings.TrimSpace(m[1]))
		if n, err := strconv.Atoi(sym); err == nil {
			p[Generic] += n
			continue
		}
		if c, ok := ParseColor(sym); ok {
			p[c]++
			continue
		}
		if strings.Contains(sym, "/") {
			for _, half := range strings.Split(sym, "/") {
				if c, ok := ParseColor(half); ok && c != Generic {
					p[c]++
					break
				}
			}
		}
	}
	return p
}

// FormatCost renders a cost pool back into Scryfall notation, generic first.
func FormatCost(p Pool) string {
	var b strings.Builder
	if p[Generic] > 0 {
		b.WriteString("{" + strconv.Itoa(p[Generic]) + "}")
	}
	for _, c := range Colors {
		if c == Generic {
			continue
		}
		for i := 0; i < p[c]; i++ {
			b.WriteString("{" + c.String() + "}")
		}
	}
	return b.String()
}
