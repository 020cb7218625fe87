package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DisruptionKind identifies one opponent hate card.
type DisruptionKind int

const (
	ForceOfWill DisruptionKind = iota
	Flusterstorm
	SurgicalExtraction
	MindbreakTrap
	DressDown
	ConsignToMemory
	OrcishBowmasters
	Pyroblast
	numDisruptions
)

// AllDisruptions lists every kind in the order structural vulnerabilities are reported.
var AllDisruptions = []DisruptionKind{
	ForceOfWill,
	Flusterstorm,
	SurgicalExtraction,
	MindbreakTrap,
	DressDown,
	ConsignToMemory,
	OrcishBowmasters,
	Pyroblast,
}

// castCheckOrder is the order cast-time counters are tried; the first match halts a run.
var castCheckOrder = []DisruptionKind{
	ForceOfWill,
	Pyroblast,
	Flusterstorm,
	MindbreakTrap,
	DressDown,
}

var disruptionKeys = [numDisruptions]string{
	ForceOfWill:        "has_force_of_will",
	Flusterstorm:       "has_flusterstorm",
	SurgicalExtraction: "has_surgical_extraction",
	MindbreakTrap:      "has_mindbreak_trap",
	DressDown:          "has_dress_down",
	ConsignToMemory:    "has_consign_to_memory",
	OrcishBowmasters:   "has_orcish_bowmasters",
	Pyroblast:          "has_pyroblast",
}

var disruptionNames = [numDisruptions]string{
	ForceOfWill:        "Force of Will",
	Flusterstorm:       "Flusterstorm",
	SurgicalExtraction: "Surgical Extraction",
	MindbreakTrap:      "Mindbreak Trap",
	DressDown:          "Dress Down",
	ConsignToMemory:    "Consign to Memory",
	OrcishBowmasters:   "Orcish Bowmasters",
	Pyroblast:          "Pyroblast",
}

// String returns the profile key, e.g. "has_force_of_will".
func (k DisruptionKind) String() string {
	if k < 0 || k >= numDisruptions {
		return fmt.Sprintf("DisruptionKind(%d)", int(k))
	}
	return disruptionKeys[k]
}

// CardName returns the hate card's printed name.
func (k DisruptionKind) CardName() string {
	if k < 0 || k >= numDisruptions {
		return "Unknown"
	}
	return disruptionNames[k]
}

// ParseDisruption maps a profile key back to its kind.
func ParseDisruption(key string) (DisruptionKind, error) {
	for i, k := range disruptionKeys {
		if k == key {
			return DisruptionKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown disruption key %q", ErrInvalidArgument, key)
}

// MarshalText encodes the kind as its profile key.
func (k DisruptionKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= numDisruptions {
		return nil, fmt.Errorf("invalid disruption kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a profile key.
func (k *DisruptionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseDisruption(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Profile records which hate cards the opponent is assumed to hold.
type Profile [numDisruptions]bool

// NewProfile enables the given kinds. Unknown kinds are ignored.
func NewProfile(kinds ...DisruptionKind) Profile {
	var p Profile
	for _, k := range kinds {
		if k >= 0 && k < numDisruptions {
			p[k] = true
		}
	}
	return p
}

// Has reports whether the opponent holds k.
func (p Profile) Has(k DisruptionKind) bool {
	return k >= 0 && k < numDisruptions && p[k]
}

// Enabled lists the held kinds in reporting order.
func (p Profile) Enabled() []DisruptionKind {
	out := make([]DisruptionKind, 0, numDisruptions)
	for _, k := range AllDisruptions {
		if p[k] {
			out = append(out, k)
		}
	}
	return out
}

// MarshalJSON encodes the profile as {"has_force_of_will": true, ...} with every key present.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, numDisruptions)
	for _, k := range AllDisruptions {
		m[k.String()] = p[k]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a key → bool object. Unknown keys are rejected.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parsed Profile
	for _, key := range keys {
		k, err := ParseDisruption(key)
		if err != nil {
			return err
		}
		parsed[k] = m[key]
	}
	*p = parsed
	return nil
}
