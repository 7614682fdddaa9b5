// Factions and agents — the political actors of the city.
package world

// Faction is an organized power bloc holding territory and resources.
type Faction struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Legitimacy float64            `json:"legitimacy"` // 0–1, public standing.
	Resources  map[string]float64 `json:"resources"`  // Named counters, never negative.
	Territory  []string           `json:"territory"`  // District IDs under influence.
}

// ClampResources forces every faction resource counter to be non-negative.
func (f *Faction) ClampResources() {
	for k, v := range f.Resources {
		if v < 0 {
			f.Resources[k] = 0
		}
	}
}

// Traits are an agent's fixed personality scalars, each in [0,1].
type Traits struct {
	Empathy float64 `json:"empathy"`
	Cunning float64 `json:"cunning"`
	Resolve float64 `json:"resolve"`
}

// Needs are an agent's slowly shifting motivations, each in [0,1].
type Needs struct {
	Safety    float64 `json:"safety"`
	Wealth    float64 `json:"wealth"`
	Belonging float64 `json:"belonging"`
}

// Agent is a named individual whose decisions feed the narrative stream.
type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	HomeID    string `json:"home_id,omitempty"`    // District, may be empty.
	FactionID string `json:"faction_id,omitempty"` // Affiliation, may be empty.
	Traits    Traits `json:"traits"`
	Needs     Needs  `json:"needs"`
}
