package engine

import "sort"

// PlayPattern orders a pile into its cast sequence: protection, mana
// sources, extra-turn spells, the setup card and tutors, draw spells, any
// remaining cards, then the win condition. The setup card is added when the
// rules name one, even though it is not part of the pile. Cards keep
// alphabetical order within a group so the result does not depend on the
// order of pile.
func (e *Engine) PlayPattern(pile []string) []string {
	t := e.tables
	cards := append([]string(nil), pile...)
	sort.Strings(cards)

	var protection, sources, turns, setup, draws, rest, oracle []string
	if t.SetupCard() != "" {
		setup = append(setup, t.SetupCard())
	}

	for _, c := range cards {
		switch {
		case t.IsProtection(c):
			protection = append(protection, c)
		case t.IsManaSource(c):
			sources = append(sources, c)
		case t.IsTurnSpell(c):
			turns = append(turns, c)
		case t.IsSetupCard(c):
			// already placed
		case t.IsTutor(c):
			setup = append(setup, c)
		case t.IsOracle(c):
			oracle = append(oracle, c)
		case t.IsDrawSpell(c):
			draws = append(draws, c)
		default:
			rest = append(rest, c)
		}
	}

	pattern := make([]string, 0, len(cards)+1)
	for _, group := range [][]string{protection, sources, turns, setup, draws, rest, oracle} {
		pattern = append(pattern, group...)
	}
	return pattern
}
