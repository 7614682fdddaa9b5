// Package environment couples economy shortages and faction actions into
// unrest, pollution, and biodiversity feedback. Every numeric effect is
// recorded in a delta ledger so callers can reconstruct why a metric moved.
package environment

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/economy"
	"github.com/emberline/crucible/internal/factions"
	"github.com/emberline/crucible/internal/world"
)

// Delta is one attributable change to one metric. DistrictID is empty for
// city-wide metrics.
type Delta struct {
	DistrictID string  `json:"district_id,omitempty"`
	Metric     string  `json:"metric"`
	Amount     float64 `json:"amount"`
	Cause      string  `json:"cause"`
}

// Impact is the environment subsystem's per-tick output.
type Impact struct {
	ScarcityPressure float64 `json:"scarcity_pressure"`
	Deltas           []Delta `json:"deltas"`
}

// System applies environmental feedback. It holds no cross-tick state; the
// scarcity signal is recomputed from the economy report every tick.
type System struct {
	cfg config.Environment
}

// NewSystem creates the environment subsystem.
func NewSystem(cfg config.Environment) *System {
	return &System{cfg: cfg}
}

// Tick applies scarcity pressure, pollution diffusion, faction side
// effects, and biodiversity decay. Deltas are rounded so the ledger stays
// readable; all touched scalars are clamped back to [0,1].
func (s *System) Tick(st *world.State, rng *rand.Rand, econ economy.Report, factionActions []factions.Action) (Impact, []world.Event, error) {
	impact := Impact{}
	var events []world.Event

	// Shortage duration -> capped scarcity pressure.
	duration := economy.MaxShortageDuration(econ)
	pressure := s.cfg.ScarcityPerTick * float64(duration)
	if pressure > s.cfg.ScarcityCap {
		pressure = s.cfg.ScarcityCap
	}
	impact.ScarcityPressure = pressure

	record := func(districtID, metric string, amount float64, cause string) {
		amount = round4(amount)
		if amount == 0 {
			return
		}
		impact.Deltas = append(impact.Deltas, Delta{
			DistrictID: districtID,
			Metric:     metric,
			Amount:     amount,
			Cause:      cause,
		})
	}

	if pressure > 0 {
		// City-wide pressure.
		before := st.Env.Unrest
		st.Env.Unrest = world.Clamp01(st.Env.Unrest + pressure*s.cfg.UnrestCoupling)
		record("", "unrest", st.Env.Unrest-before, "scarcity")

		before = st.Env.Pollution
		st.Env.Pollution = world.Clamp01(st.Env.Pollution + pressure*s.cfg.PollutionCoupling)
		record("", "pollution", st.Env.Pollution-before, "scarcity")

		// Districts in shortage feel it directly.
		hit := make(map[string]bool)
		for _, sh := range econ.Shortages {
			hit[sh.DistrictID] = true
		}
		for _, d := range st.Districts {
			if !hit[d.ID] {
				continue
			}
			before := d.Modifiers.Unrest
			d.Modifiers.Unrest = world.Clamp01(d.Modifiers.Unrest + pressure*s.cfg.UnrestCoupling)
			record(d.ID, "unrest", d.Modifiers.Unrest-before, "scarcity")
		}

		events = append(events, world.Event{
			Message: fmt.Sprintf("Scarcity pressure mounts across the city (%.2f)", pressure),
			Scope:   world.ScopeCity,
		})
	}

	// Pollution diffusion: each district drifts toward the unweighted city
	// mean, approximating neighbor smoothing.
	mean := st.MeanModifier(func(m world.Modifiers) float64 { return m.Pollution })
	for _, d := range st.Districts {
		before := d.Modifiers.Pollution
		d.Modifiers.Pollution = world.Clamp01(before + (mean-before)*s.cfg.DiffusionRate)
		record(d.ID, "pollution", d.Modifiers.Pollution-before, "diffusion")
	}

	// Faction side effects, each with an exact traceable delta.
	for _, act := range factionActions {
		d := st.District(act.DistrictID)
		if d == nil {
			continue
		}
		switch act.Kind {
		case factions.ActionInvest:
			before := d.Modifiers.Pollution
			d.Modifiers.Pollution = world.Clamp01(before - s.cfg.InvestRelief)
			record(d.ID, "pollution", d.Modifiers.Pollution-before, "faction:"+act.FactionID+":invest")
		case factions.ActionSabotage:
			before := d.Modifiers.Pollution
			d.Modifiers.Pollution = world.Clamp01(before + s.cfg.SabotageSpike)
			record(d.ID, "pollution", d.Modifiers.Pollution-before, "faction:"+act.FactionID+":sabotage")
			events = append(events, world.Event{
				Message:    fmt.Sprintf("Industrial sabotage fouls the air over %s", d.Name),
				DistrictID: d.ID,
				Scope:      world.ScopeDistrict,
			})
		}
	}

	// Biodiversity erodes with city pollution.
	if st.Env.Pollution > 0 {
		before := st.Env.Biodiversity
		st.Env.Biodiversity = world.Clamp01(before - st.Env.Pollution*s.cfg.BiodiversityDecay)
		record("", "biodiversity", st.Env.Biodiversity-before, "pollution")
	}

	st.Env.Clamp()
	return impact, events, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
