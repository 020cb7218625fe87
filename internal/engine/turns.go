package engine

import "slices"

// TurnsToWin counts the turns needed to draw through pattern until the win
// condition is in hand. Draw spells in hand are spent first; then each turn
// draws one card plus any extra cards that card draws. Every extra-turn
// spell in the pattern saves a turn. Mana and disruption are ignored.
func (e *Engine) TurnsToWin(pattern, hand []string) int {
	t := e.tables
	if slices.ContainsFunc(hand, t.IsOracle) {
		return 0
	}

	n := len(pattern)
	idx := 0
	for _, card := range hand {
		idx += t.DrawCount(card)
		if idx >= n {
			idx = n
			break
		}
	}
	if slices.ContainsFunc(pattern[:idx], t.IsOracle) {
		return 0
	}

	turns := 0
	for idx < n {
		turns++
		card := pattern[idx]
		idx++
		extra := max(t.DrawCount(card)-1, 0)
		idx = min(idx+extra, n)
		if slices.ContainsFunc(pattern[:idx], t.IsOracle) {
			break
		}
	}

	extraTurns := 0
	for _, card := range pattern {
		if t.IsTurnSpell(card) {
			extraTurns++
		}
	}
	return max(turns-extraTurns, 0)
}
