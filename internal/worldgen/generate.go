// Package worldgen builds starting world states: a deterministic
// noise-driven demo city, and a loader for authored world files.
package worldgen

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/emberline/crucible/internal/world"
)

// GenConfig holds demo city generation parameters.
type GenConfig struct {
	Districts         int   // Number of districts to lay out.
	Seed              int64 // Drives noise layers and the RNG; same seed, same city.
	Factions          int
	AgentsPerDistrict int
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Districts:         8,
		Seed:              42,
		Factions:          3,
		AgentsPerDistrict: 2,
	}
}

var districtNames = []string{
	"Harborview", "Ironmarket", "Gloamfield", "Lanternrow", "Cindervale",
	"Northreach", "Willowgate", "Saltmere", "Copperline", "Duskwall",
	"Fenwick", "Stonecross", "Emberside", "Quayside", "Thornhill", "Ashford",
}

var factionNames = []string{
	"Civic Assembly", "Harbor Syndicate", "Ember Collective",
	"Lantern Court", "Gloam Pact",
}

var agentNames = []string{
	"Mara Voss", "Teodor Hale", "Ines Calloway", "Ruel Santiago",
	"Petra Lindqvist", "Dario Mbeki", "Sable Finch", "Oren Castellan",
	"Yuki Andrade", "Hollis Grey", "Nadia Ferro", "Emrys Vale",
	"Cora Alemayehu", "Janos Reyes", "Lark Whitlock", "Selim Osei",
	"Freya Dunmore", "Alix Moreau", "Bastian Krall", "Odile Navarre",
	"Rhea Thistlewood", "Mikel Arnesen", "Cyra Bellweather", "Tomas Ilves",
	"Greta Holloway", "Rafe Quintero", "Imogen Starke", "Dmitri Volkov",
	"Anouk Verhoeven", "Silas Merriweather", "Lena Okafor", "Bram Corwin",
}

var agentRoles = []string{"organizer", "broker", "journalist", "engineer", "medic", "magistrate"}

// Generate creates a complete city from layered simplex noise. Districts
// sit on a jittered ring, adjacency connects ring neighbors plus a few
// noise-chosen chords, and populations follow a prosperity noise layer.
func Generate(cfg GenConfig) (*world.State, error) {
	if cfg.Districts < 2 {
		return nil, fmt.Errorf("generate: need at least 2 districts, got %d", cfg.Districts)
	}
	if cfg.Districts > len(districtNames) {
		return nil, fmt.Errorf("generate: at most %d districts supported, got %d", len(districtNames), cfg.Districts)
	}

	prosperityNoise := opensimplex.NewNormalized(cfg.Seed)
	pollutionNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	richnessNoise := opensimplex.NewNormalized(cfg.Seed + 2)
	rng := rand.New(rand.NewSource(cfg.Seed + 3))

	st := &world.State{
		CityName: "Crucible",
		Factions: make(map[string]*world.Faction),
		Agents:   make(map[string]*world.Agent),
		Seed:     cfg.Seed,
		Env: world.Environment{
			Stability:    0.7,
			Unrest:       0.2,
			Pollution:    0.3,
			Biodiversity: 0.6,
			ClimateRisk:  0.2,
			Security:     0.6,
		},
	}

	// Districts on a jittered ring, sampling the noise layers at each
	// position for starting conditions.
	radius := 10.0
	for i := 0; i < cfg.Districts; i++ {
		angle := 2 * math.Pi * float64(i) / float64(cfg.Districts)
		x := radius*math.Cos(angle) + rng.Float64()*2 - 1
		y := radius*math.Sin(angle) + rng.Float64()*2 - 1

		prosperity := prosperityNoise.Eval2(x*0.1, y*0.1)
		pollution := pollutionNoise.Eval2(x*0.1, y*0.1)
		richness := richnessNoise.Eval2(x*0.1, y*0.1)

		pop := 5000 + int(prosperity*45000)
		d := &world.District{
			ID:         fmt.Sprintf("d%02d", i+1),
			Name:       districtNames[i],
			Population: pop,
			Stocks:     makeStocks(pop, richness),
			Modifiers: world.Modifiers{
				Unrest:     world.Clamp01(0.15 + (1-prosperity)*0.2),
				Pollution:  world.Clamp01(0.2 + pollution*0.4),
				Prosperity: world.Clamp01(0.3 + prosperity*0.5),
				Security:   world.Clamp01(0.4 + prosperity*0.3),
			},
			Coord:    world.Coord{X: x, Y: y},
			HasCoord: true,
		}
		st.Districts = append(st.Districts, d)
	}

	// Ring adjacency plus a few chords for shortcuts.
	connect := func(a, b *world.District) {
		a.Adjacent = append(a.Adjacent, b.ID)
		b.Adjacent = append(b.Adjacent, a.ID)
	}
	for i := range st.Districts {
		connect(st.Districts[i], st.Districts[(i+1)%len(st.Districts)])
	}
	chords := cfg.Districts / 3
	for i := 0; i < chords; i++ {
		a := rng.Intn(cfg.Districts)
		b := rng.Intn(cfg.Districts)
		if a == b || adjacent(st.Districts[a], st.Districts[b].ID) {
			continue
		}
		connect(st.Districts[a], st.Districts[b])
	}

	// Factions partition the districts round-robin as starting territory.
	nFactions := cfg.Factions
	if nFactions > len(factionNames) {
		nFactions = len(factionNames)
	}
	for i := 0; i < nFactions; i++ {
		f := &world.Faction{
			ID:         fmt.Sprintf("f%02d", i+1),
			Name:       factionNames[i],
			Legitimacy: 0.4 + rng.Float64()*0.3,
			Resources:  map[string]float64{"treasury": 50 + rng.Float64()*50, "members": 20},
		}
		for j := i; j < len(st.Districts); j += nFactions {
			f.Territory = append(f.Territory, st.Districts[j].ID)
		}
		st.Factions[f.ID] = f
	}

	// Agents spread across districts with noise-free RNG traits.
	factionIDs := make([]string, 0, nFactions)
	for i := 0; i < nFactions; i++ {
		factionIDs = append(factionIDs, fmt.Sprintf("f%02d", i+1))
	}
	nameIdx := 0
	for _, d := range st.Districts {
		for j := 0; j < cfg.AgentsPerDistrict && nameIdx < len(agentNames); j++ {
			a := &world.Agent{
				ID:     fmt.Sprintf("a%02d", nameIdx+1),
				Name:   agentNames[nameIdx],
				Role:   agentRoles[nameIdx%len(agentRoles)],
				HomeID: d.ID,
				Traits: world.Traits{
					Empathy: rng.Float64(),
					Cunning: rng.Float64(),
					Resolve: rng.Float64(),
				},
				Needs: world.Needs{
					Safety:    0.4 + rng.Float64()*0.4,
					Wealth:    0.3 + rng.Float64()*0.4,
					Belonging: 0.4 + rng.Float64()*0.4,
				},
			}
			if rng.Float64() < 0.6 && len(factionIDs) > 0 {
				a.FactionID = factionIDs[rng.Intn(len(factionIDs))]
			}
			st.Agents[a.ID] = a
			nameIdx++
		}
	}

	st.DefaultFocusID = st.Districts[0].ID

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return st, nil
}

// makeStocks sizes a district's stocks from its population and the local
// richness noise sample.
func makeStocks(pop int, richness float64) map[world.Resource]*world.Stock {
	stocks := make(map[world.Resource]*world.Stock)
	scale := float64(pop) / 1000
	for _, r := range world.Resources() {
		base := scale * (20 + richness*20)
		regen := scale * (8 + richness*6)
		if r == world.ResourceLuxuries {
			base *= 0.3
			regen *= 0.2
		}
		stocks[r] = &world.Stock{
			Capacity: base,
			Current:  base * 0.8,
			Regen:    regen,
		}
	}
	return stocks
}

func adjacent(d *world.District, id string) bool {
	for _, n := range d.Adjacent {
		if n == id {
			return true
		}
	}
	return false
}
