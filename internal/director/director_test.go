package director

import (
	"testing"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/economy"
	"github.com/emberline/crucible/internal/focus"
	"github.com/emberline/crucible/internal/world"
)

func directorConfig() config.Director {
	return config.Director{
		HotspotLimit:    3,
		ScoreThreshold:  1.0,
		HopCost:         1.0,
		DistanceCost:    0.1,
		DefaultDistance: 10.0,
		FeedLength:      4,
	}
}

// routeState: a five-district chain a-b-c-d-e with an a-d chord, so the
// shortest a->e path is a-d-e, not the chain. "island" is disconnected.
func routeState() *world.State {
	mk := func(id string, x float64, adj ...string) *world.District {
		return &world.District{
			ID: id, Name: id, Population: 100,
			Coord: world.Coord{X: x}, HasCoord: true,
			Adjacent: adj,
		}
	}
	return &world.State{
		CityName: "testville",
		Districts: []*world.District{
			mk("a", 0, "b", "d"),
			mk("b", 1, "a", "c"),
			mk("c", 2, "b", "d"),
			mk("d", 3, "c", "e", "a"),
			mk("e", 4, "d"),
			mk("island", 20),
		},
		Factions: map[string]*world.Faction{},
		Agents:   map[string]*world.Agent{},
	}
}

func TestRoute_ShortestPathByHops(t *testing.T) {
	d := NewDirector(directorConfig())
	r := d.route(routeState(), "a", "e")

	if !r.Reachable {
		t.Fatalf("connected districts reported unreachable: %+v", r)
	}
	want := []string{"a", "d", "e"}
	if len(r.Path) != len(want) {
		t.Fatalf("path = %v, want %v", r.Path, want)
	}
	for i := range want {
		if r.Path[i] != want[i] {
			t.Fatalf("path = %v, want %v", r.Path, want)
		}
	}
	if r.Hops != 2 {
		t.Fatalf("hops = %d, want 2", r.Hops)
	}
	// a(0)->d(3) is 3, d(3)->e(4) is 1; travel = 2 hops + 4 length * 0.1.
	if diff := r.Distance - 4.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("distance = %v, want 4", r.Distance)
	}
	if diff := r.TravelTime - 2.4; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("travel time = %v, want 2.4", r.TravelTime)
	}
}

func TestRoute_SelfRoute(t *testing.T) {
	d := NewDirector(directorConfig())
	r := d.route(routeState(), "a", "a")
	if !r.Reachable || r.Hops != 0 || r.TravelTime != 0 {
		t.Fatalf("self route should be free: %+v", r)
	}
}

func TestRoute_UnreachableFallsBackToEuclidean(t *testing.T) {
	d := NewDirector(directorConfig())
	r := d.route(routeState(), "a", "island")

	if r.Reachable {
		t.Fatal("disconnected district reported reachable")
	}
	if r.Reason != "no_path" {
		t.Fatalf("reason = %q, want no_path", r.Reason)
	}
	if diff := r.Distance - 20.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("fallback distance = %v, want straight-line 20", r.Distance)
	}
	if diff := r.TravelTime - 2.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("fallback travel time = %v, want 20 * 0.1", r.TravelTime)
	}
}

func TestRoute_UnreachableWithoutCoords(t *testing.T) {
	d := NewDirector(directorConfig())
	st := routeState()
	st.Districts[5].HasCoord = false

	r := d.route(st, "a", "island")
	if r.Reachable || r.Distance != 10.0 {
		t.Fatalf("coordless fallback should use the default distance: %+v", r)
	}
}

func TestEvaluate_HotspotsAndRecommendation(t *testing.T) {
	d := NewDirector(directorConfig())
	snap := Snapshot{
		CenterID: "a",
		TopEvents: []focus.Ranked{
			{Event: world.Event{Message: "citywide mood", Scope: world.ScopeCity}, Score: 3.0},
			{Event: world.Event{Message: "riot brews", DistrictID: "e", Scope: world.ScopeDistrict}, Score: 2.1},
			{Event: world.Event{Message: "market jitters", DistrictID: "b", Scope: world.ScopeDistrict}, Score: 1.4},
			{Event: world.Event{Message: "quiet evening", DistrictID: "c", Scope: world.ScopeDistrict}, Score: 0.4},
		},
	}

	analysis := d.Evaluate(routeState(), snap)
	if analysis.Fallback {
		t.Fatal("fallback set despite events above threshold")
	}
	if len(analysis.Hotspots) != 2 {
		t.Fatalf("hotspots = %d, want the 2 located events above threshold", len(analysis.Hotspots))
	}
	if analysis.Hotspots[0].DistrictID != "e" {
		t.Fatalf("first hotspot = %q, want e", analysis.Hotspots[0].DistrictID)
	}
	if analysis.RecommendedFocus != "e" {
		t.Fatalf("recommended focus = %q, want e", analysis.RecommendedFocus)
	}
	if !analysis.Hotspots[0].Route.Reachable {
		t.Fatalf("hotspot route should be reachable: %+v", analysis.Hotspots[0].Route)
	}
}

func TestEvaluate_FallbackBelowThreshold(t *testing.T) {
	d := NewDirector(directorConfig())
	snap := Snapshot{
		CenterID: "a",
		TopEvents: []focus.Ranked{
			{Event: world.Event{Message: "slow news", DistrictID: "b", Scope: world.ScopeDistrict}, Score: 0.3},
			{Event: world.Event{Message: "slower news", DistrictID: "c", Scope: world.ScopeDistrict}, Score: 0.6},
		},
	}

	analysis := d.Evaluate(routeState(), snap)
	if !analysis.Fallback {
		t.Fatal("fallback not set when nothing clears the threshold")
	}
	if len(analysis.Hotspots) != 1 || analysis.Hotspots[0].DistrictID != "c" {
		t.Fatalf("fallback should pick the best located event: %+v", analysis.Hotspots)
	}
}

func TestEvaluate_NoLocatedEvents(t *testing.T) {
	d := NewDirector(directorConfig())
	snap := Snapshot{
		CenterID: "a",
		TopEvents: []focus.Ranked{
			{Event: world.Event{Message: "citywide mood", Scope: world.ScopeCity}, Score: 3.0},
		},
	}
	analysis := d.Evaluate(routeState(), snap)
	if len(analysis.Hotspots) != 0 || analysis.RecommendedFocus != "" {
		t.Fatalf("city-only events should yield no hotspots: %+v", analysis)
	}
}

func TestBridge_FeedCapAndSnapshotContents(t *testing.T) {
	b := NewBridge(directorConfig()) // FeedLength 4.
	st := routeState()
	st.Factions["f1"] = &world.Faction{ID: "f1", Legitimacy: 0.6}

	result := focus.BudgetResult{
		Focus: focus.State{CenterID: "a", Ring: []string{"b", "d"}},
		Ranked: []focus.Ranked{
			{Event: world.Event{Message: "one", DistrictID: "b"}, Score: 2},
			{Event: world.Event{Message: "two", DistrictID: "c"}, Score: 1},
		},
	}
	econ := economy.Report{Prices: map[world.Resource]float64{world.ResourceFood: 1.25}}

	var last Snapshot
	for tick := uint64(1); tick <= 7; tick++ {
		last = b.Record(st, tick, result, econ)
	}

	if last.CenterID != "a" || len(last.TopEvents) != 2 {
		t.Fatalf("snapshot malformed: %+v", last)
	}
	if last.Legitimacy["f1"] != 0.6 {
		t.Fatalf("legitimacy summary missing: %+v", last.Legitimacy)
	}
	if last.Prices[world.ResourceFood] != 1.25 {
		t.Fatalf("price summary missing: %+v", last.Prices)
	}

	feed := b.Feed()
	if len(feed) != 4 {
		t.Fatalf("feed length = %d, want cap 4", len(feed))
	}
	if feed[0].Tick != 4 || feed[3].Tick != 7 {
		t.Fatalf("feed kept wrong window: first %d, last %d", feed[0].Tick, feed[3].Tick)
	}
}
