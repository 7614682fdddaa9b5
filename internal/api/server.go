// Package api serves the simulation over HTTP. GET endpoints are public
// read-only observation; POST endpoints require a bearer token. Every
// response is built from the TickReport contract and the focus/director
// accessors — the API never reaches into subsystem internals.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/emberline/crucible/internal/engine"
	"github.com/emberline/crucible/internal/persistence"
	"github.com/emberline/crucible/internal/world"
)

// Server serves the world over HTTP. Mu serializes every touch of State
// and Coord with the tick loop; the engine itself is single-threaded.
type Server struct {
	Mu    *sync.Mutex
	State *world.State
	Coord *engine.Coordinator
	DB    *persistence.DB
	RunID string

	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	recentMu sync.Mutex
	recent   []engine.TickReport
}

const recentReportCap = 20

// PushReports feeds freshly produced reports into the recent ring.
func (s *Server) PushReports(reports []engine.TickReport) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	s.recent = append(s.recent, reports...)
	if len(s.recent) > recentReportCap {
		s.recent = s.recent[len(s.recent)-recentReportCap:]
	}
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	limiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", limited(limiter, s.handleStatus))
	mux.HandleFunc("/api/v1/reports/recent", limited(limiter, s.handleRecentReports))
	mux.HandleFunc("/api/v1/events", limited(limiter, s.handleEvents))
	mux.HandleFunc("/api/v1/districts", limited(limiter, s.handleDistricts))
	mux.HandleFunc("/api/v1/focus", limited(limiter, s.handleFocus))
	mux.HandleFunc("/api/v1/director/feed", limited(limiter, s.handleDirectorFeed))
	mux.HandleFunc("/api/v1/director/analysis", limited(limiter, s.handleDirectorAnalysis))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.AdminKey == "" {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+s.AdminKey
}

// handleStatus summarizes the city for a quick check-in.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"city":       s.State.CityName,
		"tick":       s.State.Tick,
		"seed":       s.State.Seed,
		"population": humanize.Comma(int64(s.State.TotalPopulation())),
		"districts":  len(s.State.Districts),
		"factions":   len(s.State.Factions),
		"agents":     len(s.State.Agents),
		"environment": s.State.Env,
		"run_id":     s.RunID,
	})
}

// handleRecentReports returns the newest in-memory tick reports.
func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	s.recentMu.Lock()
	reports := append([]engine.TickReport(nil), s.recent...)
	s.recentMu.Unlock()

	limit := parseLimit(r, 5, recentReportCap)
	if len(reports) > limit {
		reports = reports[len(reports)-limit:]
	}
	writeJSON(w, http.StatusOK, reports)
}

// handleEvents returns recent curated events from the report store.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no report store attached", http.StatusServiceUnavailable)
		return
	}
	events, err := s.DB.RecentEvents(s.RunID, parseLimit(r, 50, 500))
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleDistricts lists district snapshots from live state.
func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	type row struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Population string          `json:"population"`
		Modifiers  world.Modifiers `json:"modifiers"`
		Adjacent   []string        `json:"adjacent"`
	}
	rows := make([]row, 0, len(s.State.Districts))
	for _, d := range s.State.Districts {
		rows = append(rows, row{
			ID:         d.ID,
			Name:       d.Name,
			Population: humanize.Comma(int64(d.Population)),
			Modifiers:  d.Modifiers,
			Adjacent:   d.Adjacent,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleFocus serves the focus state and, for authorized POSTs, moves or
// clears it. Setting an unknown district answers 404 and changes nothing.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Coord.Focus().Describe(s.State))

	case http.MethodPost:
		if !s.authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			DistrictID string `json:"district_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.DistrictID == "" {
			writeJSON(w, http.StatusOK, s.Coord.Focus().ClearFocus(s.State))
			return
		}
		fs, err := s.Coord.Focus().SetFocus(s.State, req.DistrictID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, fs)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleDirectorFeed returns the rolling director snapshot feed.
func (s *Server) handleDirectorFeed(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	feed := s.Coord.DirectorFeed()
	s.Mu.Unlock()

	limit := parseLimit(r, 10, len(feed))
	if len(feed) > limit {
		feed = feed[len(feed)-limit:]
	}
	writeJSON(w, http.StatusOK, feed)
}

// handleDirectorAnalysis returns the most recent director analysis.
func (s *Server) handleDirectorAnalysis(w http.ResponseWriter, r *http.Request) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	writeJSON(w, http.StatusOK, s.Coord.LastAnalysis())
}

func parseLimit(r *http.Request, def, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
