// Package world holds the mutable city state graph that every subsystem
// reads and that only the tick coordinator mutates (through subsystem calls).
package world

import "sort"

// Environment holds the city-wide aggregate scalars, each clamped to [0,1].
type Environment struct {
	Stability    float64 `json:"stability"`
	Unrest       float64 `json:"unrest"`
	Pollution    float64 `json:"pollution"`
	Biodiversity float64 `json:"biodiversity"`
	ClimateRisk  float64 `json:"climate_risk"`
	Security     float64 `json:"security"`
}

// Clamp forces every environment scalar back into [0,1].
func (e *Environment) Clamp() {
	e.Stability = Clamp01(e.Stability)
	e.Unrest = Clamp01(e.Unrest)
	e.Pollution = Clamp01(e.Pollution)
	e.Biodiversity = Clamp01(e.Biodiversity)
	e.ClimateRisk = Clamp01(e.ClimateRisk)
	e.Security = Clamp01(e.Security)
}

// State is the complete simulation state for one city.
// Tick never decreases; Seed is immutable after creation.
type State struct {
	CityName  string              `json:"city_name"`
	Districts []*District         `json:"districts"` // Ordered; iteration order is authored order.
	Factions  map[string]*Faction `json:"factions"`
	Agents    map[string]*Agent   `json:"agents"`
	Env       Environment         `json:"environment"`

	// Default focus center authored with the world; may be empty.
	DefaultFocusID string `json:"default_focus_id,omitempty"`

	Tick uint64 `json:"tick"`
	Seed int64  `json:"seed"`
}

// District returns the district with the given id, or nil.
func (s *State) District(id string) *District {
	for _, d := range s.Districts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// FactionIDs returns faction ids in sorted order. Map iteration order is
// not deterministic; every subsystem walks factions through this.
func (s *State) FactionIDs() []string {
	ids := make([]string, 0, len(s.Factions))
	for id := range s.Factions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AgentIDs returns agent ids in sorted order.
func (s *State) AgentIDs() []string {
	ids := make([]string, 0, len(s.Agents))
	for id := range s.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalPopulation sums district populations.
func (s *State) TotalPopulation() int {
	total := 0
	for _, d := range s.Districts {
		total += d.Population
	}
	return total
}

// PopulationWeightedModifier returns the population-weighted city average
// of a per-district modifier selected by pick. Falls back to the plain
// mean when the city is empty.
func (s *State) PopulationWeightedModifier(pick func(Modifiers) float64) float64 {
	if len(s.Districts) == 0 {
		return 0
	}
	totalPop := s.TotalPopulation()
	if totalPop == 0 {
		sum := 0.0
		for _, d := range s.Districts {
			sum += pick(d.Modifiers)
		}
		return sum / float64(len(s.Districts))
	}
	sum := 0.0
	for _, d := range s.Districts {
		sum += pick(d.Modifiers) * float64(d.Population)
	}
	return sum / float64(totalPop)
}

// MeanModifier returns the population-unweighted city average of a modifier.
func (s *State) MeanModifier(pick func(Modifiers) float64) float64 {
	if len(s.Districts) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range s.Districts {
		sum += pick(d.Modifiers)
	}
	return sum / float64(len(s.Districts))
}
