// Command crucible runs the deterministic city simulation: it builds or
// loads a world, advances ticks on a pacing loop, records reports, and
// serves the read-only API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/emberline/crucible/internal/api"
	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/engine"
	"github.com/emberline/crucible/internal/persistence"
	"github.com/emberline/crucible/internal/world"
	"github.com/emberline/crucible/internal/worldgen"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "", "YAML tuning file (defaults built in)")
		worldPath  = flag.String("world", "", "authored world JSON (omit to generate a demo city)")
		dbPath     = flag.String("db", "data/crucible.db", "report database path (empty to disable)")
		seed       = flag.Int64("seed", 42, "generation seed for the demo city")
		districts  = flag.Int("districts", 8, "district count for the demo city")
		port       = flag.Int("port", 8080, "HTTP API port (0 to disable)")
		batch      = flag.Int("batch", 1, "ticks per pacing interval")
		interval   = flag.Duration("interval", time.Second, "wall-clock pacing interval")
		once       = flag.Int("once", 0, "run N ticks, print a summary, and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	tuning := config.Default()
	if *tuningPath != "" {
		var err error
		tuning, err = config.Load(*tuningPath)
		if err != nil {
			slog.Error("failed to load tuning", "path", *tuningPath, "error", err)
			os.Exit(1)
		}
		slog.Info("tuning loaded", "path", *tuningPath)
	}

	// ── World ─────────────────────────────────────────────────────────
	var st *world.State
	var err error
	if *worldPath != "" {
		st, err = worldgen.Load(*worldPath)
		if err != nil {
			slog.Error("failed to load world", "path", *worldPath, "error", err)
			os.Exit(1)
		}
		slog.Info("world loaded", "path", *worldPath, "city", st.CityName)
	} else {
		gen := worldgen.DefaultGenConfig()
		gen.Seed = *seed
		gen.Districts = *districts
		st, err = worldgen.Generate(gen)
		if err != nil {
			slog.Error("failed to generate world", "error", err)
			os.Exit(1)
		}
		slog.Info("demo city generated", "seed", *seed, "districts", len(st.Districts))
	}

	coord := engine.NewCoordinator(tuning)

	slog.Info("city ready",
		"city", st.CityName,
		"population", humanize.Comma(int64(st.TotalPopulation())),
		"districts", len(st.Districts),
		"factions", len(st.Factions),
		"agents", len(st.Agents),
	)

	// ── One-shot mode ────────────────────────────────────────────────
	if *once > 0 {
		reports, err := coord.Run(st, *once, nil)
		if err != nil {
			slog.Error("run failed", "error", err)
			os.Exit(1)
		}
		last := reports[len(reports)-1]
		fmt.Printf("Ran %d ticks of %s.\n", len(reports), st.CityName)
		fmt.Printf("Tick %d: %d events shown, %d suppressed, scarcity %.2f, unrest %.2f\n",
			last.Tick, len(last.Events), last.Suppressed, last.Impact.ScarcityPressure, last.Environment.Unrest)
		for _, ev := range last.Events {
			fmt.Printf("  [%.2f] %s\n", ev.Score, ev.Message)
		}
		if last.Analysis.RecommendedFocus != "" {
			fmt.Printf("Director recommends focusing on %s\n", last.Analysis.RecommendedFocus)
		}
		return
	}

	// ── Report store ─────────────────────────────────────────────────
	var db *persistence.DB
	runID := ""
	if *dbPath != "" {
		os.MkdirAll("data", 0755)
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runID, err = db.BeginRun(st.CityName, st.Seed)
		if err != nil {
			slog.Error("failed to begin run", "error", err)
			os.Exit(1)
		}
		slog.Info("report store opened", "path", *dbPath, "run", runID)
	}

	// ── API ──────────────────────────────────────────────────────────
	var mu sync.Mutex
	var server *api.Server
	if *port > 0 {
		server = &api.Server{
			Mu:       &mu,
			State:    st,
			Coord:    coord,
			DB:       db,
			RunID:    runID,
			Port:     *port,
			AdminKey: os.Getenv("CRUCIBLE_ADMIN_KEY"),
		}
		server.Start()
	}

	// ── Pacing loop ──────────────────────────────────────────────────
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("%s is alive: %s residents across %d districts.\n",
		st.CityName, humanize.Comma(int64(st.TotalPopulation())), len(st.Districts))
	if *port > 0 {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", *port)
	}
	fmt.Println("Simulating... (Ctrl+C to stop)")

	for {
		select {
		case sig := <-stop:
			slog.Info("received signal, shutting down", "signal", sig, "tick", st.Tick)
			return
		case <-ticker.C:
			mu.Lock()
			reports, err := coord.Run(st, *batch, nil)
			mu.Unlock()
			if err != nil {
				slog.Error("tick batch failed", "error", err)
				continue
			}

			last := reports[len(reports)-1]
			if len(last.Anomalies) > 0 {
				slog.Warn("tick completed with anomalies", "tick", last.Tick, "anomalies", last.Anomalies)
			}
			slog.Info("tick",
				"tick", last.Tick,
				"events", len(last.Events),
				"suppressed", last.Suppressed,
				"scarcity", fmt.Sprintf("%.2f", last.Impact.ScarcityPressure),
				"unrest", fmt.Sprintf("%.2f", last.Environment.Unrest),
				"recommended", last.Analysis.RecommendedFocus,
			)

			if server != nil {
				server.PushReports(reports)
			}
			if db != nil {
				if err := db.SaveReports(runID, reports); err != nil {
					slog.Error("report save failed", "error", err)
				}
			}
		}
	}
}
