package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/engine"
	"github.com/emberline/crucible/internal/world"
)

func testServer() *Server {
	st := &world.State{
		CityName:       "testville",
		Seed:           1,
		DefaultFocusID: "a",
		Districts: []*world.District{
			{ID: "a", Name: "Alpha", Population: 1000, Adjacent: []string{"b"}},
			{ID: "b", Name: "Beta", Population: 500, Adjacent: []string{"a"}},
		},
		Factions: map[string]*world.Faction{},
		Agents:   map[string]*world.Agent{},
	}
	return &Server{
		Mu:       &sync.Mutex{},
		State:    st,
		Coord:    engine.NewCoordinator(config.Default()),
		AdminKey: "sesame",
	}
}

func TestHandleStatus(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["city"] != "testville" {
		t.Fatalf("city = %v", body["city"])
	}
	if body["population"] != "1,500" {
		t.Fatalf("population = %v, want humanized 1,500", body["population"])
	}
}

func TestHandleFocus_GetAndPost(t *testing.T) {
	s := testServer()

	rec := httptest.NewRecorder()
	s.handleFocus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/focus", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}

	// POST without auth.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/focus", strings.NewReader(`{"district_id":"b"}`))
	s.handleFocus(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated POST status = %d", rec.Code)
	}

	// Authorized POST moves the focus.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/focus", strings.NewReader(`{"district_id":"b"}`))
	req.Header.Set("Authorization", "Bearer sesame")
	s.handleFocus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized POST status = %d: %s", rec.Code, rec.Body.String())
	}
	var fs struct {
		CenterID string `json:"center_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fs.CenterID != "b" {
		t.Fatalf("center = %q, want b", fs.CenterID)
	}

	// Unknown district answers 404 and leaves the focus alone.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/focus", strings.NewReader(`{"district_id":"nowhere"}`))
	req.Header.Set("Authorization", "Bearer sesame")
	s.handleFocus(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown district status = %d", rec.Code)
	}
	if got := s.Coord.Focus().Describe(s.State).CenterID; got != "b" {
		t.Fatalf("failed POST moved focus to %q", got)
	}

	// Empty id clears back to the default.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/focus", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer sesame")
	s.handleFocus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if got := s.Coord.Focus().Describe(s.State).CenterID; got != "a" {
		t.Fatalf("clear did not restore default: %q", got)
	}
}

func TestPushReports_RingCap(t *testing.T) {
	s := testServer()
	for i := 0; i < 30; i++ {
		s.PushReports([]engine.TickReport{{Tick: uint64(i + 1)}})
	}

	rec := httptest.NewRecorder()
	s.handleRecentReports(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/recent?limit=100", nil))
	var reports []engine.TickReport
	if err := json.NewDecoder(rec.Body).Decode(&reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != recentReportCap {
		t.Fatalf("ring length = %d, want cap %d", len(reports), recentReportCap)
	}
	if reports[len(reports)-1].Tick != 30 {
		t.Fatalf("newest tick = %d, want 30", reports[len(reports)-1].Tick)
	}
}

func TestParseLimit(t *testing.T) {
	mk := func(q string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/x?"+q, nil)
	}
	if got := parseLimit(mk(""), 5, 100); got != 5 {
		t.Fatalf("default = %d", got)
	}
	if got := parseLimit(mk("limit=12"), 5, 100); got != 12 {
		t.Fatalf("explicit = %d", got)
	}
	if got := parseLimit(mk("limit=9999"), 5, 100); got != 100 {
		t.Fatalf("capped = %d", got)
	}
	if got := parseLimit(mk("limit=bogus"), 5, 100); got != 5 {
		t.Fatalf("bogus = %d", got)
	}
	if got := parseLimit(mk("limit=-3"), 5, 100); got != 5 {
		t.Fatalf("negative = %d", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d denied inside the budget", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request allowed past the budget")
	}
	// A different client has its own bucket.
	if !rl.Allow("5.6.7.8") {
		t.Fatal("independent client denied")
	}
	if rl.RetryAfter("1.2.3.4") <= 0 {
		t.Fatal("exhausted client has no retry hint")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	if ip := clientIP(req); ip != "10.0.0.9" {
		t.Fatalf("ip = %q", ip)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if ip := clientIP(req); ip != "203.0.113.5" {
		t.Fatalf("forwarded ip = %q", ip)
	}
}
