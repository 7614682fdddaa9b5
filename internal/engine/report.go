// TickReport — the immutable per-tick output and the engine's sole
// outbound contract. Owned by the caller after Run returns.
package engine

import (
	"github.com/emberline/crucible/internal/agents"
	"github.com/emberline/crucible/internal/director"
	"github.com/emberline/crucible/internal/economy"
	"github.com/emberline/crucible/internal/environment"
	"github.com/emberline/crucible/internal/factions"
	"github.com/emberline/crucible/internal/focus"
	"github.com/emberline/crucible/internal/world"
)

// DistrictSnapshot is a value copy of one district's observable state at
// the end of a tick.
type DistrictSnapshot struct {
	ID         string                       `json:"id"`
	Name       string                       `json:"name"`
	Population int                          `json:"population"`
	Modifiers  world.Modifiers              `json:"modifiers"`
	Stocks     map[world.Resource]world.Stock `json:"stocks"`
}

// Timing is one subsystem's wall time for the tick, recorded only when
// profiling is enabled.
type Timing struct {
	Subsystem string `json:"subsystem"`
	Micros    int64  `json:"micros"`
}

// TickReport is everything one tick produced.
type TickReport struct {
	Tick uint64 `json:"tick"` // Post-increment counter value.

	Events     []focus.Ranked `json:"events"` // Curated, best first.
	Suppressed int            `json:"suppressed"`

	Environment world.Environment  `json:"environment"`
	Districts   []DistrictSnapshot `json:"districts"`

	AgentDecisions   []agents.Decision  `json:"agent_decisions"`
	FactionActions   []factions.Action  `json:"faction_actions"`
	LegitimacyDeltas map[string]float64 `json:"legitimacy_deltas"`

	Economy economy.Report     `json:"economy"`
	Impact  environment.Impact `json:"impact"`

	FocusAllocation focus.BudgetResult `json:"focus_allocation"`
	Director        director.Snapshot  `json:"director"`
	Analysis        director.Analysis  `json:"analysis"`

	Timings   []Timing `json:"timings,omitempty"`
	Anomalies []string `json:"anomalies"`
}

func snapshotDistricts(st *world.State) []DistrictSnapshot {
	snaps := make([]DistrictSnapshot, 0, len(st.Districts))
	for _, d := range st.Districts {
		stocks := make(map[world.Resource]world.Stock, len(d.Stocks))
		for r, s := range d.Stocks {
			stocks[r] = *s
		}
		snaps = append(snaps, DistrictSnapshot{
			ID:         d.ID,
			Name:       d.Name,
			Population: d.Population,
			Modifiers:  d.Modifiers,
			Stocks:     stocks,
		})
	}
	return snaps
}
