// The narrative director: hotspot selection and travel-aware routing.
package director

import (
	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/world"
)

// Route describes travel from the focus center to a hotspot district.
type Route struct {
	Path       []string `json:"path,omitempty"` // District ids, center first.
	Hops       int      `json:"hops"`
	Distance   float64  `json:"distance"` // Euclidean length along the path, or the fallback.
	TravelTime float64  `json:"travel_time"`
	Reachable  bool     `json:"reachable"`
	Reason     string   `json:"reason,omitempty"` // "no_path" when unreachable.
}

// Hotspot is one dramatically significant location the director selected.
type Hotspot struct {
	DistrictID string  `json:"district_id"`
	Message    string  `json:"message"`
	Score      float64 `json:"score"`
	Route      Route   `json:"route"`
}

// Analysis is the director's per-tick recommendation.
type Analysis struct {
	Hotspots         []Hotspot `json:"hotspots"`
	RecommendedFocus string    `json:"recommended_focus,omitempty"`
	Fallback         bool      `json:"fallback"` // No event cleared the score threshold.
}

// Director selects hotspots from a snapshot and routes to them.
type Director struct {
	cfg config.Director
}

// NewDirector creates the narrative director.
func NewDirector(cfg config.Director) *Director {
	return &Director{cfg: cfg}
}

// Evaluate picks up to the configured number of hotspots whose score
// clears the threshold — falling back to the single best-scoring located
// event so any ranked event yields at least one recommendation — and
// computes a travel route to each. The first reachable hotspot that is
// not the current center becomes the recommended focus.
func (d *Director) Evaluate(st *world.State, snap Snapshot) Analysis {
	analysis := Analysis{}

	var picked []int
	for i, ev := range snap.TopEvents {
		if ev.DistrictID == "" {
			continue // City-wide events have nowhere to travel to.
		}
		if ev.Score > d.cfg.ScoreThreshold {
			picked = append(picked, i)
			if len(picked) >= d.cfg.HotspotLimit {
				break
			}
		}
	}
	if len(picked) == 0 {
		// Fallback: the closest-scoring located event, so a ranked tick
		// always produces a recommendation.
		best := -1
		for i, ev := range snap.TopEvents {
			if ev.DistrictID == "" {
				continue
			}
			if best == -1 || ev.Score > snap.TopEvents[best].Score {
				best = i
			}
		}
		if best >= 0 {
			picked = append(picked, best)
			analysis.Fallback = true
		}
	}

	for _, i := range picked {
		ev := snap.TopEvents[i]
		hotspot := Hotspot{
			DistrictID: ev.DistrictID,
			Message:    ev.Message,
			Score:      ev.Score,
			Route:      d.route(st, snap.CenterID, ev.DistrictID),
		}
		analysis.Hotspots = append(analysis.Hotspots, hotspot)
		if analysis.RecommendedFocus == "" && hotspot.Route.Reachable && hotspot.DistrictID != snap.CenterID {
			analysis.RecommendedFocus = hotspot.DistrictID
		}
	}

	return analysis
}

// route runs a breadth-first shortest path over the adjacency graph.
// Travel time = hops x hop cost + path Euclidean length x distance cost.
// Disconnected targets fall back to straight-line distance, or the
// configured default when coordinates are missing.
func (d *Director) route(st *world.State, fromID, toID string) Route {
	from := st.District(fromID)
	to := st.District(toID)
	if from == nil || to == nil {
		return Route{Reachable: false, Reason: "no_path", Distance: d.cfg.DefaultDistance}
	}

	if fromID == toID {
		return Route{Path: []string{fromID}, Reachable: true}
	}

	path := shortestPath(st, fromID, toID)
	if path == nil {
		dist := d.cfg.DefaultDistance
		if from.HasCoord && to.HasCoord {
			dist = world.Distance(from.Coord, to.Coord)
		}
		return Route{
			Reachable:  false,
			Reason:     "no_path",
			Distance:   dist,
			TravelTime: dist * d.cfg.DistanceCost,
		}
	}

	hops := len(path) - 1
	length := 0.0
	for i := 1; i < len(path); i++ {
		a, b := st.District(path[i-1]), st.District(path[i])
		if a.HasCoord && b.HasCoord {
			length += world.Distance(a.Coord, b.Coord)
		}
	}

	return Route{
		Path:       path,
		Hops:       hops,
		Distance:   length,
		TravelTime: float64(hops)*d.cfg.HopCost + length*d.cfg.DistanceCost,
		Reachable:  true,
	}
}

// shortestPath is a plain BFS over district adjacency. Returns nil when
// no path exists.
func shortestPath(st *world.State, fromID, toID string) []string {
	prev := map[string]string{fromID: fromID}
	queue := []string{fromID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == toID {
			break
		}
		curD := st.District(cur)
		if curD == nil {
			continue
		}
		for _, n := range curD.Adjacent {
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}

	if _, ok := prev[toID]; !ok {
		return nil
	}

	var path []string
	for cur := toID; ; cur = prev[cur] {
		path = append([]string{cur}, path...)
		if cur == fromID {
			break
		}
	}
	return path
}
