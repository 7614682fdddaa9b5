// Package focus allocates the bounded per-tick narrative event budget
// between a focus ring of districts and the rest of the world, and ranks
// every event for historical recall.
package focus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/world"
)

// State is the current focus: a center district and a ring of up to the
// configured number of neighbors, chosen by population rank.
type State struct {
	CenterID string   `json:"center_id"`
	Ring     []string `json:"ring"`
}

// Ranked is an event with its deterministic curation score. Every event
// of a tick is ranked, including the ones that end up suppressed.
type Ranked struct {
	world.Event
	Score        float64 `json:"score"`
	RingDistance int     `json:"ring_distance"` // 0 = center, ring position + 1, or outside.
}

// BudgetResult is the outcome of curating one tick's events.
type BudgetResult struct {
	Total      int      `json:"total"` // min(digest size, event count, requested budget)
	FocusUsed  int      `json:"focus_used"`
	GlobalUsed int      `json:"global_used"`
	Visible    []Ranked `json:"visible"`
	Suppressed int      `json:"suppressed"`
	Ranked     []Ranked `json:"ranked"` // All events, best first.
	Focus      State    `json:"focus"`
}

// DigestEntry is one tick's curation outcome in the rolling history.
type DigestEntry struct {
	Tick       uint64   `json:"tick"`
	Visible    []Ranked `json:"visible"`
	Suppressed int      `json:"suppressed"`
}

// Scope severity weights and keyword bonuses for event ranking.
const (
	weightCity     = 3.0
	weightFaction  = 2.0
	weightDistrict = 1.5

	distancePenalty = 0.1
)

var keywordBonuses = []struct {
	word  string
	bonus float64
}{
	{"critical", 0.5},
	{"collapse", 0.5},
	{"shortage", 0.3},
}

// Manager owns focus state and the rolling digest history.
type Manager struct {
	cfg     config.Focus
	center  string
	ring    []string
	history []DigestEntry
}

// NewManager creates a focus manager with no focus yet; the first call
// that touches focus state resolves the default center.
func NewManager(cfg config.Focus) *Manager {
	return &Manager{cfg: cfg}
}

// Describe returns the current focus, regenerating it if the center has
// become invalid.
func (m *Manager) Describe(st *world.State) State {
	m.ensure(st)
	return State{CenterID: m.center, Ring: append([]string(nil), m.ring...)}
}

// SetFocus moves the focus center. An unknown district id fails and
// leaves the focus unchanged.
func (m *Manager) SetFocus(st *world.State, districtID string) (State, error) {
	if st.District(districtID) == nil {
		return State{}, fmt.Errorf("set focus: unknown district %q", districtID)
	}
	m.center = districtID
	m.ring = m.buildRing(st, districtID)
	return m.Describe(st), nil
}

// ClearFocus resets the focus to the world default.
func (m *Manager) ClearFocus(st *world.State) State {
	m.center = ""
	m.ring = nil
	return m.Describe(st)
}

// ensure regenerates the focus when the center is missing or no longer a
// district. Default: the authored default focus, else the most populous
// district.
func (m *Manager) ensure(st *world.State) {
	if m.center != "" && st.District(m.center) != nil {
		return
	}
	center := st.DefaultFocusID
	if center == "" || st.District(center) == nil {
		best := ""
		bestPop := -1
		for _, d := range st.Districts {
			if d.Population > bestPop {
				best = d.ID
				bestPop = d.Population
			}
		}
		center = best
	}
	m.center = center
	m.ring = m.buildRing(st, center)
}

// buildRing picks up to RingSize of the center's neighbors, ranked by
// population (not graph distance).
func (m *Manager) buildRing(st *world.State, centerID string) []string {
	center := st.District(centerID)
	if center == nil {
		return nil
	}
	neighbors := make([]*world.District, 0, len(center.Adjacent))
	for _, id := range center.Adjacent {
		if d := st.District(id); d != nil {
			neighbors = append(neighbors, d)
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Population > neighbors[j].Population
	})
	if len(neighbors) > m.cfg.RingSize {
		neighbors = neighbors[:m.cfg.RingSize]
	}
	ring := make([]string, len(neighbors))
	for i, d := range neighbors {
		ring[i] = d.ID
	}
	return ring
}

// ringDistance maps an event's district to its position in the focus
// ring: 0 for the center, i+1 for ring members, beyond the ring otherwise.
func (m *Manager) ringDistance(districtID string) int {
	if districtID == m.center {
		return 0
	}
	for i, id := range m.ring {
		if id == districtID {
			return i + 1
		}
	}
	return len(m.ring) + 2
}

// rank scores one event: scope severity, keyword bonuses, minus a
// penalty growing with ring distance. Deterministic for a fixed focus.
func (m *Manager) rank(ev world.Event) Ranked {
	score := weightDistrict
	switch ev.Scope {
	case world.ScopeCity:
		score = weightCity
	case world.ScopeFaction:
		score = weightFaction
	}

	lower := strings.ToLower(ev.Message)
	for _, kb := range keywordBonuses {
		if strings.Contains(lower, kb.word) {
			score += kb.bonus
		}
	}

	dist := m.ringDistance(ev.DistrictID)
	score -= float64(dist) * distancePenalty

	return Ranked{Event: ev, Score: score, RingDistance: dist}
}

// Curate splits a bounded event budget between the focus ring and the
// rest of the world. Ring events are admitted into the ring reservation
// first, everything else competes for the global reservation, and any
// leftover capacity is backfilled from either pool before the rest are
// suppressed.
func (m *Manager) Curate(st *world.State, events []world.Event, budget int) BudgetResult {
	m.ensure(st)

	total := m.cfg.DigestSize
	if len(events) < total {
		total = len(events)
	}
	if budget < total {
		total = budget
	}
	if total < 0 {
		total = 0
	}

	// Split the total: ring reservation by ratio, global gets the rest
	// but at least the configured floor (never more than the total).
	focusBudget := int(float64(total) * m.cfg.BudgetRatio)
	globalBudget := total - focusBudget
	if globalBudget < m.cfg.GlobalFloor {
		globalBudget = m.cfg.GlobalFloor
		if globalBudget > total {
			globalBudget = total
		}
		focusBudget = total - globalBudget
	}

	ranked := make([]Ranked, 0, len(events))
	for _, ev := range events {
		ranked = append(ranked, m.rank(ev))
	}
	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranked[order[a]].Score > ranked[order[b]].Score
	})

	inRing := func(r Ranked) bool { return r.RingDistance <= len(m.ring) }

	var visible []Ranked
	taken := make([]bool, len(ranked))
	focusUsed, globalUsed := 0, 0

	// Reserved passes: ring events into the focus reservation, the rest
	// into the global reservation, best scores first.
	for _, idx := range order {
		r := ranked[idx]
		if inRing(r) && focusUsed < focusBudget {
			visible = append(visible, r)
			taken[idx] = true
			focusUsed++
		} else if !inRing(r) && globalUsed < globalBudget {
			visible = append(visible, r)
			taken[idx] = true
			globalUsed++
		}
	}

	// Backfill leftover capacity from either pool.
	for _, idx := range order {
		if len(visible) >= total {
			break
		}
		if taken[idx] {
			continue
		}
		r := ranked[idx]
		visible = append(visible, r)
		taken[idx] = true
		if inRing(r) {
			focusUsed++
		} else {
			globalUsed++
		}
	}

	sortedAll := make([]Ranked, 0, len(ranked))
	for _, idx := range order {
		sortedAll = append(sortedAll, ranked[idx])
	}

	return BudgetResult{
		Total:      total,
		FocusUsed:  focusUsed,
		GlobalUsed: globalUsed,
		Visible:    visible,
		Suppressed: len(events) - len(visible),
		Ranked:     sortedAll,
		Focus:      State{CenterID: m.center, Ring: append([]string(nil), m.ring...)},
	}
}

// RecordDigest appends a tick's curation outcome to the rolling history,
// trimming to the configured length.
func (m *Manager) RecordDigest(tick uint64, result BudgetResult) {
	m.history = append(m.history, DigestEntry{
		Tick:       tick,
		Visible:    result.Visible,
		Suppressed: result.Suppressed,
	})
	if len(m.history) > m.cfg.HistoryLength {
		m.history = m.history[len(m.history)-m.cfg.HistoryLength:]
	}
}

// History returns the rolling digest history, oldest first.
func (m *Manager) History() []DigestEntry {
	return append([]DigestEntry(nil), m.history...)
}
