// Package factions implements the per-tick faction decision subsystem.
// Factions score a candidate-action set against legitimacy and territory
// pressure, sample one action, and then rest on a cooldown.
package factions

import (
	"fmt"
	"math/rand"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/decision"
	"github.com/emberline/crucible/internal/world"
)

// Faction action kinds. The environment subsystem reads INVEST_DISTRICT and
// SABOTAGE_RIVAL for their pollution side effects.
const (
	ActionInvest      = "INVEST_DISTRICT"
	ActionSabotage    = "SABOTAGE_RIVAL"
	ActionRecruit     = "RECRUIT_MEMBERS"
	ActionConsolidate = "CONSOLIDATE_TERRITORY"
)

// Action is one faction's chosen move for the tick.
type Action struct {
	FactionID  string            `json:"faction_id"`
	Kind       string            `json:"kind"`
	DistrictID string            `json:"district_id,omitempty"` // Target of invest/consolidate.
	RivalID    string            `json:"rival_id,omitempty"`    // Target of sabotage.
	Rationale  string            `json:"rationale"`
	Scored     []decision.Scored `json:"scored"`
}

// System holds faction cooldowns across ticks. Cooldowns are the only
// state retained between ticks; a faction that acted rests for the
// configured number of ticks before acting again.
type System struct {
	cooldownTicks int
	cooldowns     map[string]int
}

// NewSystem creates the faction decision subsystem.
func NewSystem(cfg config.Factions) *System {
	return &System{
		cooldownTicks: cfg.CooldownTicks,
		cooldowns:     make(map[string]int),
	}
}

// Tick decrements cooldowns, then lets every off-cooldown faction sample
// one action. Returns the actions, the legitimacy deltas they caused, and
// the narrative events they produced.
func (s *System) Tick(st *world.State, rng *rand.Rand) ([]Action, map[string]float64, []world.Event, error) {
	for id := range s.cooldowns {
		if s.cooldowns[id] > 0 {
			s.cooldowns[id]--
		}
	}

	var actions []Action
	deltas := make(map[string]float64)
	var events []world.Event

	for _, id := range st.FactionIDs() {
		if s.cooldowns[id] > 0 {
			continue
		}
		f := st.Factions[id]
		cands := s.candidates(st, f)
		choice := decision.Sample(rng, cands)
		if choice < 0 {
			continue
		}

		act := Action{
			FactionID: id,
			Kind:      cands[choice].Kind,
			Scored:    cands,
		}
		s.apply(st, f, &act, deltas, &events)
		actions = append(actions, act)
		s.cooldowns[id] = s.cooldownTicks
	}

	return actions, deltas, events, nil
}

// candidates scores the faction's options. Legitimacy gap drives invest,
// a stronger rival drives sabotage, thin resources drive recruitment.
func (s *System) candidates(st *world.State, f *world.Faction) []decision.Scored {
	gap := 1 - f.Legitimacy

	worstPollution := 0.0
	for _, t := range f.Territory {
		if d := st.District(t); d != nil && d.Modifiers.Pollution > worstPollution {
			worstPollution = d.Modifiers.Pollution
		}
	}

	rivalEdge := 0.0
	for _, otherID := range st.FactionIDs() {
		if otherID == f.ID {
			continue
		}
		if edge := st.Factions[otherID].Legitimacy - f.Legitimacy; edge > rivalEdge {
			rivalEdge = edge
		}
	}

	treasury := f.Resources["treasury"]
	resourcePressure := 1.0
	if treasury > 0 {
		resourcePressure = 1 / (1 + treasury/50)
	}

	investScore := gap*0.8 + worstPollution*0.6
	if treasury < 10 {
		investScore = 0 // Cannot afford to invest.
	}
	sabotageScore := rivalEdge*1.2 + gap*0.3 - f.Legitimacy*0.2
	if treasury < 5 {
		sabotageScore = 0
	}

	return []decision.Scored{
		{Kind: ActionInvest, Score: investScore},
		{Kind: ActionSabotage, Score: sabotageScore},
		{Kind: ActionRecruit, Score: resourcePressure*0.9 + gap*0.2},
		{Kind: ActionConsolidate, Score: float64(len(f.Territory))*0.1 + f.Legitimacy*0.3},
	}
}

// apply executes the action's direct effects: resource spend, legitimacy
// shifts, and target selection. Pollution side effects are applied later
// by the environment subsystem, which reads the action list.
func (s *System) apply(st *world.State, f *world.Faction, act *Action, deltas map[string]float64, events *[]world.Event) {
	shift := func(id string, amount float64) {
		target := st.Factions[id]
		before := target.Legitimacy
		target.Legitimacy = world.Clamp01(target.Legitimacy + amount)
		deltas[id] += target.Legitimacy - before
	}

	switch act.Kind {
	case ActionInvest:
		act.DistrictID = s.pollutedTerritory(st, f)
		f.Resources["treasury"] -= 10
		f.ClampResources()
		shift(f.ID, 0.02)
		name := act.DistrictID
		if d := st.District(act.DistrictID); d != nil {
			name = d.Name
		}
		act.Rationale = fmt.Sprintf("%s funds public works in %s to rebuild standing", f.Name, name)
		*events = append(*events, world.Event{
			Message:    fmt.Sprintf("%s invests in infrastructure across %s", f.Name, name),
			DistrictID: act.DistrictID,
			Scope:      world.ScopeFaction,
		})

	case ActionSabotage:
		act.RivalID = s.strongestRival(st, f)
		f.Resources["treasury"] -= 5
		f.ClampResources()
		if act.RivalID != "" {
			shift(act.RivalID, -0.03)
			rival := st.Factions[act.RivalID]
			act.DistrictID = firstTerritory(rival)
			act.Rationale = fmt.Sprintf("%s undermines %s operations to close the legitimacy gap", f.Name, rival.Name)
			*events = append(*events, world.Event{
				Message:    fmt.Sprintf("Sabotage strikes %s holdings; %s suspected", rival.Name, f.Name),
				DistrictID: act.DistrictID,
				Scope:      world.ScopeFaction,
			})
		}

	case ActionRecruit:
		f.Resources["members"] += 5
		f.Resources["treasury"] += 2
		act.Rationale = fmt.Sprintf("%s runs a recruitment drive to refill its ranks", f.Name)
		*events = append(*events, world.Event{
			Message: fmt.Sprintf("%s holds open recruitment rallies", f.Name),
			Scope:   world.ScopeFaction,
		})

	case ActionConsolidate:
		shift(f.ID, 0.01)
		act.DistrictID = firstTerritory(f)
		act.Rationale = fmt.Sprintf("%s consolidates control over its territory", f.Name)
		*events = append(*events, world.Event{
			Message:    fmt.Sprintf("%s tightens its grip on its districts", f.Name),
			DistrictID: act.DistrictID,
			Scope:      world.ScopeFaction,
		})
	}
}

// pollutedTerritory picks the faction's most polluted district, falling
// back to its first territory, then the largest district in the city.
func (s *System) pollutedTerritory(st *world.State, f *world.Faction) string {
	best := ""
	bestPollution := -1.0
	for _, t := range f.Territory {
		if d := st.District(t); d != nil && d.Modifiers.Pollution > bestPollution {
			best = t
			bestPollution = d.Modifiers.Pollution
		}
	}
	if best != "" {
		return best
	}
	for _, d := range st.Districts {
		if best == "" || d.Population > st.District(best).Population {
			best = d.ID
		}
	}
	return best
}

// strongestRival returns the rival faction with the highest legitimacy.
func (s *System) strongestRival(st *world.State, f *world.Faction) string {
	best := ""
	bestLeg := -1.0
	for _, id := range st.FactionIDs() {
		if id == f.ID {
			continue
		}
		if leg := st.Factions[id].Legitimacy; leg > bestLeg {
			best = id
			bestLeg = leg
		}
	}
	return best
}

func firstTerritory(f *world.Faction) string {
	if len(f.Territory) == 0 {
		return ""
	}
	return f.Territory[0]
}
