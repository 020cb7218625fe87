package models

import (
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/mana"
)

// CardCost is a resolved mana cost as stored in the card_costs table.
type CardCost struct {
	Name      string    `json:"name"`
	ManaCost  string    `json:"mana_cost"` // printed cost, e.g. "{1}{U}"
	Cost      mana.Pool `json:"cost"`
	TypeLine  string    `json:"type_line"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsStale reports whether the entry is older than ttl at now.
func (c *CardCost) IsStale(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.FetchedAt) > ttl
}
