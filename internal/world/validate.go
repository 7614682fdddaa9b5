// World validation — enforced once at load time; the engine consumes
// the adjacency graph read-only afterwards.
package world

import "fmt"

// Validate checks structural invariants on a freshly loaded state:
// unique district ids, non-negative populations, stock bounds, modifier
// bounds, and a symmetric, non-self-referential adjacency graph.
func (s *State) Validate() error {
	if len(s.Districts) == 0 {
		return fmt.Errorf("world %q has no districts", s.CityName)
	}

	byID := make(map[string]*District, len(s.Districts))
	for _, d := range s.Districts {
		if d.ID == "" {
			return fmt.Errorf("district %q has empty id", d.Name)
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("duplicate district id %q", d.ID)
		}
		if d.Population < 0 {
			return fmt.Errorf("district %q has negative population %d", d.ID, d.Population)
		}
		for res, st := range d.Stocks {
			if st.Capacity < 0 || st.Current < 0 || st.Current > st.Capacity {
				return fmt.Errorf("district %q stock %q violates 0 <= current <= capacity (%.2f/%.2f)",
					d.ID, res, st.Current, st.Capacity)
			}
		}
		byID[d.ID] = d
	}

	for _, d := range s.Districts {
		for _, n := range d.Adjacent {
			if n == d.ID {
				return fmt.Errorf("district %q is adjacent to itself", d.ID)
			}
			other, ok := byID[n]
			if !ok {
				return fmt.Errorf("district %q is adjacent to unknown district %q", d.ID, n)
			}
			if !contains(other.Adjacent, d.ID) {
				return fmt.Errorf("adjacency %q -> %q is not symmetric", d.ID, n)
			}
		}
	}

	if s.DefaultFocusID != "" {
		if _, ok := byID[s.DefaultFocusID]; !ok {
			return fmt.Errorf("default focus %q is not a district", s.DefaultFocusID)
		}
	}

	for _, f := range s.Factions {
		if f.Legitimacy < 0 || f.Legitimacy > 1 {
			return fmt.Errorf("faction %q legitimacy %.2f outside [0,1]", f.ID, f.Legitimacy)
		}
		for _, t := range f.Territory {
			if _, ok := byID[t]; !ok {
				return fmt.Errorf("faction %q claims unknown district %q", f.ID, t)
			}
		}
	}

	for _, a := range s.Agents {
		if a.HomeID != "" {
			if _, ok := byID[a.HomeID]; !ok {
				return fmt.Errorf("agent %q lives in unknown district %q", a.ID, a.HomeID)
			}
		}
		if a.FactionID != "" {
			if _, ok := s.Factions[a.FactionID]; !ok {
				return fmt.Errorf("agent %q belongs to unknown faction %q", a.ID, a.FactionID)
			}
		}
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
