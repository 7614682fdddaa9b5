package factions

import (
	"math/rand"
	"testing"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/world"
)

func rivalryState() *world.State {
	return &world.State{
		CityName: "testville",
		Districts: []*world.District{
			{ID: "a", Name: "Alpha", Population: 1000, Modifiers: world.Modifiers{Pollution: 0.7}, Adjacent: []string{"b"}},
			{ID: "b", Name: "Beta", Population: 400, Modifiers: world.Modifiers{Pollution: 0.1}, Adjacent: []string{"a"}},
		},
		Factions: map[string]*world.Faction{
			"weak": {
				ID: "weak", Name: "The Weak", Legitimacy: 0.2,
				Resources: map[string]float64{"treasury": 100, "members": 20},
				Territory: []string{"a"},
			},
			"strong": {
				ID: "strong", Name: "The Strong", Legitimacy: 0.8,
				Resources: map[string]float64{"treasury": 100, "members": 40},
				Territory: []string{"b"},
			},
		},
		Agents: map[string]*world.Agent{},
	}
}

func TestTick_CooldownPreventsBackToBackActions(t *testing.T) {
	sys := NewSystem(config.Factions{CooldownTicks: 3})
	rng := rand.New(rand.NewSource(1))
	st := rivalryState()

	first, _, _, err := sys.Tick(st, rng)
	if err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("both factions should act on tick 1, got %d actions", len(first))
	}

	// Ticks 2 and 3 fall inside the cooldown window.
	for i := 2; i <= 3; i++ {
		acts, _, _, err := sys.Tick(st, rng)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if len(acts) != 0 {
			t.Fatalf("faction acted during cooldown on tick %d: %+v", i, acts)
		}
	}

	acts, _, _, err := sys.Tick(st, rng)
	if err != nil {
		t.Fatalf("tick 4: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("cooldown should have expired by tick 4, got %d actions", len(acts))
	}
}

func TestTick_LegitimacyDeltasMatchShifts(t *testing.T) {
	sys := NewSystem(config.Factions{CooldownTicks: 3})
	st := rivalryState()

	before := map[string]float64{}
	for id, f := range st.Factions {
		before[id] = f.Legitimacy
	}

	_, deltas, _, err := sys.Tick(st, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}

	for id, f := range st.Factions {
		got := f.Legitimacy - before[id]
		if diff := got - deltas[id]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("faction %s: ledger says %+.4f but legitimacy moved %+.4f", id, deltas[id], got)
		}
	}
}

func TestApply_InvestTargetsMostPollutedTerritory(t *testing.T) {
	sys := NewSystem(config.Factions{CooldownTicks: 3})
	st := rivalryState()
	f := st.Factions["weak"]
	f.Territory = []string{"a", "b"}

	act := Action{FactionID: f.ID, Kind: ActionInvest}
	deltas := map[string]float64{}
	var events []world.Event
	sys.apply(st, f, &act, deltas, &events)

	if act.DistrictID != "a" {
		t.Fatalf("invest should target the most polluted territory, got %q", act.DistrictID)
	}
	if f.Resources["treasury"] != 90 {
		t.Fatalf("invest should cost 10 treasury, have %v", f.Resources["treasury"])
	}
	if deltas["weak"] <= 0 {
		t.Fatalf("invest should raise own legitimacy, delta %v", deltas["weak"])
	}
	if len(events) != 1 || events[0].Scope != world.ScopeFaction {
		t.Fatalf("invest should emit one faction-scope event, got %+v", events)
	}
}

func TestApply_SabotageHitsStrongestRival(t *testing.T) {
	sys := NewSystem(config.Factions{CooldownTicks: 3})
	st := rivalryState()
	f := st.Factions["weak"]

	act := Action{FactionID: f.ID, Kind: ActionSabotage}
	deltas := map[string]float64{}
	var events []world.Event
	sys.apply(st, f, &act, deltas, &events)

	if act.RivalID != "strong" {
		t.Fatalf("sabotage should target the strongest rival, got %q", act.RivalID)
	}
	if deltas["strong"] >= 0 {
		t.Fatalf("sabotage should cut rival legitimacy, delta %v", deltas["strong"])
	}
	if act.DistrictID != "b" {
		t.Fatalf("sabotage event should land in the rival's territory, got %q", act.DistrictID)
	}
}

func TestCandidates_PoorFactionCannotInvest(t *testing.T) {
	sys := NewSystem(config.Factions{CooldownTicks: 3})
	st := rivalryState()
	f := st.Factions["weak"]
	f.Resources["treasury"] = 3

	for _, c := range sys.candidates(st, f) {
		if c.Kind == ActionInvest && c.Score != 0 {
			t.Fatalf("broke faction scored invest at %v", c.Score)
		}
		if c.Kind == ActionSabotage && c.Score != 0 {
			t.Fatalf("broke faction scored sabotage at %v", c.Score)
		}
	}
}
