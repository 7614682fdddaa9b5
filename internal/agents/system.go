// Package agents implements the per-tick agent decision subsystem.
// Each agent scores a small candidate-action set with an additive utility
// function and samples one action by weighted cumulative sum.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/decision"
	"github.com/emberline/crucible/internal/world"
)

// Action kinds an agent can take. Inspect and negotiate are "strategic":
// one of them is forced to lead the tick for the first agent whose utility
// favors it.
const (
	ActionInspect   = "inspect"
	ActionNegotiate = "negotiate"
	ActionAgitate   = "agitate"
	ActionOrganize  = "organize_relief"
	ActionPatrol    = "patrol"
	ActionTrade     = "trade"
)

// Strategic reports whether an action kind counts as strategic.
func Strategic(kind string) bool {
	return kind == ActionInspect || kind == ActionNegotiate
}

// Decision is one agent's chosen action for the tick, with the full
// scored candidate list for downstream explanation.
type Decision struct {
	AgentID    string           `json:"agent_id"`
	Kind       string           `json:"kind"`
	DistrictID string           `json:"district_id,omitempty"`
	Forced     bool             `json:"forced,omitempty"` // Chosen by the strategic-first rule, not sampled.
	Rationale  string           `json:"rationale"`
	Scored     []decision.Scored `json:"scored"`
}

// System holds the agent subsystem's per-instance configuration.
type System struct {
	maxActions int
}

// NewSystem creates the agent decision subsystem.
func NewSystem(cfg config.Agents) *System {
	return &System{maxActions: cfg.MaxActionsPerTick}
}

// Tick produces up to the configured number of agent decisions, walking
// agents in sorted-id order. The first agent whose top-scoring candidate
// is strategic acts first and deterministically; everyone else samples.
func (s *System) Tick(st *world.State, rng *rand.Rand) ([]Decision, []world.Event, error) {
	ids := st.AgentIDs()
	if len(ids) == 0 {
		return nil, nil, nil
	}

	limit := s.maxActions
	if limit < 1 || limit > len(ids) {
		limit = len(ids)
	}
	acting := ids[:limit]

	// First pass: find the agent the strategic-first rule applies to.
	forcedIdx := -1
	forcedChoice := -1
	candidatesFor := make([][]decision.Scored, len(acting))
	for i, id := range acting {
		cands := s.candidates(st, st.Agents[id])
		candidatesFor[i] = cands
		if forcedIdx == -1 {
			if best := decision.Best(cands); best >= 0 && Strategic(cands[best].Kind) {
				forcedIdx = i
				forcedChoice = best
			}
		}
	}

	var decisions []Decision
	var events []world.Event

	emit := func(i int, choice int, forced bool) {
		id := acting[i]
		a := st.Agents[id]
		cands := candidatesFor[i]
		kind := cands[choice].Kind
		d := Decision{
			AgentID:    id,
			Kind:       kind,
			DistrictID: a.HomeID,
			Forced:     forced,
			Rationale:  rationale(st, a, kind, cands[choice].Score),
			Scored:     cands,
		}
		decisions = append(decisions, d)
		events = append(events, apply(st, a, kind)...)
	}

	// The forced strategic action, if any, leads the tick.
	if forcedIdx >= 0 {
		emit(forcedIdx, forcedChoice, true)
	}
	for i := range acting {
		if i == forcedIdx {
			continue
		}
		choice := decision.Sample(rng, candidatesFor[i])
		if choice < 0 {
			continue // Nothing worth doing this tick.
		}
		emit(i, choice, false)
	}

	return decisions, events, nil
}

// candidates scores the fixed action set for one agent. Pressure terms come
// from the agent's home district and faction; trait scalars weight them.
func (s *System) candidates(st *world.State, a *world.Agent) []decision.Scored {
	home := st.District(a.HomeID)

	var unrest, pollution, security, prosperity float64
	if home != nil {
		unrest = home.Modifiers.Unrest
		pollution = home.Modifiers.Pollution
		security = home.Modifiers.Security
		prosperity = home.Modifiers.Prosperity
	} else {
		unrest = st.Env.Unrest
		pollution = st.Env.Pollution
		security = st.Env.Security
		prosperity = 0.5
	}

	legitimacyGap := 0.0
	if a.FactionID != "" {
		if f, ok := st.Factions[a.FactionID]; ok {
			legitimacyGap = 1 - f.Legitimacy
		}
	}

	foodPressure := 0.0
	if home != nil {
		if stock := home.Stock(world.ResourceFood); stock != nil {
			foodPressure = 1 - stock.Ratio()
		}
	}

	return []decision.Scored{
		{Kind: ActionInspect, Score: a.Traits.Cunning*0.6 + unrest*0.8 + pollution*0.4 - prosperity*0.3},
		{Kind: ActionNegotiate, Score: a.Traits.Empathy*0.6 + legitimacyGap*0.9 + unrest*0.3},
		{Kind: ActionAgitate, Score: unrest*1.2 + (1-a.Needs.Safety)*0.5 - a.Traits.Empathy*0.4 - security*0.3},
		{Kind: ActionOrganize, Score: foodPressure*1.1 + a.Traits.Empathy*0.5 + a.Traits.Resolve*0.3},
		{Kind: ActionPatrol, Score: (1-security)*0.8 + a.Traits.Resolve*0.4 - unrest*0.2},
		{Kind: ActionTrade, Score: (1-a.Needs.Wealth)*0.7 + prosperity*0.5 + a.Traits.Cunning*0.2},
	}
}

// apply mutates the agent's needs and the home district slightly and
// returns the narrative events the action produced.
func apply(st *world.State, a *world.Agent, kind string) []world.Event {
	home := st.District(a.HomeID)
	var events []world.Event

	push := func(msg string, scope world.Scope) {
		events = append(events, world.Event{Message: msg, DistrictID: a.HomeID, Scope: scope})
	}

	switch kind {
	case ActionInspect:
		a.Needs.Safety = world.Clamp01(a.Needs.Safety + 0.02)
		if home != nil {
			push(fmt.Sprintf("%s inspects conditions in %s", a.Name, home.Name), world.ScopeDistrict)
		} else {
			push(fmt.Sprintf("%s surveys the city", a.Name), world.ScopeCity)
		}
	case ActionNegotiate:
		a.Needs.Belonging = world.Clamp01(a.Needs.Belonging + 0.03)
		push(fmt.Sprintf("%s brokers talks between rival blocs", a.Name), world.ScopeFaction)
	case ActionAgitate:
		if home != nil {
			home.Modifiers.Unrest = world.Clamp01(home.Modifiers.Unrest + 0.01)
			push(fmt.Sprintf("%s stirs discontent in %s", a.Name, home.Name), world.ScopeDistrict)
		}
	case ActionOrganize:
		if home != nil {
			home.Modifiers.Unrest = world.Clamp01(home.Modifiers.Unrest - 0.01)
			push(fmt.Sprintf("%s organizes relief efforts in %s", a.Name, home.Name), world.ScopeDistrict)
		}
		a.Needs.Belonging = world.Clamp01(a.Needs.Belonging + 0.02)
	case ActionPatrol:
		if home != nil {
			home.Modifiers.Security = world.Clamp01(home.Modifiers.Security + 0.01)
			push(fmt.Sprintf("%s patrols the streets of %s", a.Name, home.Name), world.ScopeDistrict)
		}
		a.Needs.Safety = world.Clamp01(a.Needs.Safety + 0.02)
	case ActionTrade:
		a.Needs.Wealth = world.Clamp01(a.Needs.Wealth + 0.03)
		if home != nil {
			push(fmt.Sprintf("%s works the markets of %s", a.Name, home.Name), world.ScopeDistrict)
		}
	}

	return events
}

func rationale(st *world.State, a *world.Agent, kind string, score float64) string {
	home := st.District(a.HomeID)
	where := "the city"
	unrest := st.Env.Unrest
	if home != nil {
		where = home.Name
		unrest = home.Modifiers.Unrest
	}
	return fmt.Sprintf("%s chose %s in %s (score %.2f, local unrest %.2f)",
		a.Name, kind, where, score, unrest)
}
