// Package director turns the curated narrative stream into a recommended
// next point of attention: it snapshots each tick's focus output, selects
// hotspots, and routes travel over the district adjacency graph.
package director

import (
	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/economy"
	"github.com/emberline/crucible/internal/focus"
	"github.com/emberline/crucible/internal/world"
)

// Snapshot is the bridge's per-tick capture of the world as the director
// sees it: focus, top-ranked events, and coarse summaries.
type Snapshot struct {
	Tick       uint64                     `json:"tick"`
	CenterID   string                     `json:"center_id"`
	Ring       []string                   `json:"ring"`
	TopEvents  []focus.Ranked             `json:"top_events"`
	Env        world.Environment          `json:"environment"`
	Legitimacy map[string]float64         `json:"legitimacy"`
	Prices     map[world.Resource]float64 `json:"prices"`
}

// Bridge records snapshots into a capped rolling feed.
type Bridge struct {
	cfg  config.Director
	feed []Snapshot
}

// NewBridge creates the director bridge.
func NewBridge(cfg config.Director) *Bridge {
	return &Bridge{cfg: cfg}
}

// Record builds a snapshot from the tick's focus result and economy
// report, appends it to the feed, and returns it.
func (b *Bridge) Record(st *world.State, tick uint64, result focus.BudgetResult, econ economy.Report) Snapshot {
	topN := b.cfg.HotspotLimit * 2
	if topN > len(result.Ranked) {
		topN = len(result.Ranked)
	}

	legitimacy := make(map[string]float64, len(st.Factions))
	for _, id := range st.FactionIDs() {
		legitimacy[id] = st.Factions[id].Legitimacy
	}

	prices := make(map[world.Resource]float64, len(econ.Prices))
	for r, p := range econ.Prices {
		prices[r] = p
	}

	snap := Snapshot{
		Tick:       tick,
		CenterID:   result.Focus.CenterID,
		Ring:       append([]string(nil), result.Focus.Ring...),
		TopEvents:  append([]focus.Ranked(nil), result.Ranked[:topN]...),
		Env:        st.Env,
		Legitimacy: legitimacy,
		Prices:     prices,
	}

	b.feed = append(b.feed, snap)
	if len(b.feed) > b.cfg.FeedLength {
		b.feed = b.feed[len(b.feed)-b.cfg.FeedLength:]
	}
	return snap
}

// Feed returns the rolling snapshot feed, oldest first.
func (b *Bridge) Feed() []Snapshot {
	return append([]Snapshot(nil), b.feed...)
}
