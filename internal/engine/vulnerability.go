package engine

// Vulnerable reports whether a pile's composition is structurally exposed to
// the hate card k. The check ignores ordering, mana and the opponent profile;
// callers decide whether k is relevant.
func (e *Engine) Vulnerable(k DisruptionKind, pile []string) bool {
	t := e.tables
	switch k {
	case ForceOfWill:
		return anyCard(pile, func(c string) bool { return t.IsOracle(c) || t.IsDrawSpell(c) })
	case Flusterstorm:
		return anyCard(pile, func(c string) bool { return t.IsDrawSpell(c) || c == t.Ritual() })
	case SurgicalExtraction:
		return anyCard(pile, func(c string) bool { return t.IsOracle(c) || t.IsGraveyardTarget(c) })
	case MindbreakTrap:
		spells := 0
		for _, c := range pile {
			if !t.IsManaSource(c) && c != t.BasicLand() {
				spells++
			}
		}
		return spells >= 3
	case DressDown:
		return anyCard(pile, t.IsOracle)
	case ConsignToMemory:
		// Only the alternate-cost table drives this one; with an empty table
		// nothing is flagged and the simulation has to catch it instead.
		return anyCard(pile, t.IsAlternateCost)
	case OrcishBowmasters:
		return anyCard(pile, func(c string) bool {
			return !t.IsManaSource(c) && !t.IsOracle(c) && !t.IsDrawSpell(c) && !t.IsTutor(c)
		})
	case Pyroblast:
		return anyCard(pile, func(c string) bool { return t.IsDrawSpell(c) || t.IsColorHateTarget(c) })
	default:
		return false
	}
}

// Vulnerabilities returns the kinds held in profile that pile is exposed to,
// in reporting order.
func (e *Engine) Vulnerabilities(pile []string, profile Profile) []DisruptionKind {
	out := make([]DisruptionKind, 0)
	for _, k := range AllDisruptions {
		if profile.Has(k) && e.Vulnerable(k, pile) {
			out = append(out, k)
		}
	}
	return out
}

func anyCard(pile []string, pred func(string) bool) bool {
	for _, c := range pile {
		if pred(c) {
			return true
		}
	}
	return false
}
