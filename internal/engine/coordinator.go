// Package engine orchestrates the deterministic tick simulation: it
// sequences every subsystem in a fixed order once per tick, contains
// per-subsystem failures as anomalies, and assembles the TickReport.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/emberline/crucible/internal/agents"
	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/director"
	"github.com/emberline/crucible/internal/economy"
	"github.com/emberline/crucible/internal/environment"
	"github.com/emberline/crucible/internal/factions"
	"github.com/emberline/crucible/internal/focus"
	"github.com/emberline/crucible/internal/world"
)

var (
	// ErrBadCount rejects tick counts below 1.
	ErrBadCount = errors.New("tick count must be >= 1")
	// ErrTickLimit rejects requests past the configured guard before any
	// tick executes.
	ErrTickLimit = errors.New("tick count exceeds configured maximum")
)

// Coordinator drives one World State. Not safe for concurrent use: the
// caller serializes all Run calls against a given state.
type Coordinator struct {
	cfg config.Tuning

	agents      *agents.System
	factions    *factions.System
	economy     *economy.System
	environment *environment.System
	focus       *focus.Manager
	bridge      *director.Bridge
	director    *director.Director

	lastAnalysis director.Analysis
}

// NewCoordinator wires the subsystems in their fixed execution order.
func NewCoordinator(cfg config.Tuning) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		agents:      agents.NewSystem(cfg.Agents),
		factions:    factions.NewSystem(cfg.Factions),
		economy:     economy.NewSystem(cfg.Economy),
		environment: environment.NewSystem(cfg.Environment),
		focus:       focus.NewManager(cfg.Focus),
		bridge:      director.NewBridge(cfg.Director),
		director:    director.NewDirector(cfg.Director),
	}
}

// Run advances the state by count ticks and returns one report per tick.
// Fails fast, before any mutation, on a bad count or a count past the
// configured maximum. seedOverride, when non-nil, replaces the per-tick
// derived seed for every tick of this call.
func (c *Coordinator) Run(st *world.State, count int, seedOverride *int64) ([]TickReport, error) {
	if count < 1 {
		return nil, fmt.Errorf("run %d ticks: %w", count, ErrBadCount)
	}
	if count > c.cfg.Engine.MaxTicks {
		return nil, fmt.Errorf("run %d ticks (max %d): %w", count, c.cfg.Engine.MaxTicks, ErrTickLimit)
	}

	reports := make([]TickReport, 0, count)
	for i := 0; i < count; i++ {
		reports = append(reports, c.runTick(st, seedOverride))
	}
	return reports, nil
}

// runTick executes one tick in the fixed subsystem order. Every subsystem
// call is contained: a failure becomes an anomaly tag and an empty
// result, and the tick always completes.
func (c *Coordinator) runTick(st *world.State, seedOverride *int64) TickReport {
	seed := st.Seed + int64(st.Tick)
	if seedOverride != nil {
		seed = *seedOverride
	}
	rng := rand.New(rand.NewSource(seed))

	report := TickReport{
		Anomalies:        []string{},
		LegitimacyDeltas: map[string]float64{},
	}
	var events []world.Event

	contain := func(name string, fn func() error) {
		var start time.Time
		if c.cfg.Engine.Profile {
			start = time.Now()
		}
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn()
		}()
		if err != nil {
			slog.Warn("subsystem failed", "subsystem", name, "tick", st.Tick, "error", err)
			report.Anomalies = append(report.Anomalies, name)
		}
		if c.cfg.Engine.Profile {
			report.Timings = append(report.Timings, Timing{
				Subsystem: name,
				Micros:    time.Since(start).Microseconds(),
			})
		}
	}

	// Agent decisions.
	contain("agents", func() error {
		decisions, evs, err := c.agents.Tick(st, rng)
		if err != nil {
			return err
		}
		report.AgentDecisions = decisions
		events = append(events, evs...)
		return nil
	})

	// Faction actions.
	contain("factions", func() error {
		actions, deltas, evs, err := c.factions.Tick(st, rng)
		if err != nil {
			return err
		}
		report.FactionActions = actions
		report.LegitimacyDeltas = deltas
		events = append(events, evs...)
		return nil
	})

	// Economy: production, consumption, shortages, prices.
	contain("economy", func() error {
		econ, evs, err := c.economy.Tick(st, rng)
		if err != nil {
			return err
		}
		report.Economy = econ
		events = append(events, evs...)
		return nil
	})

	// Resource rebalancing: force every stock back into bounds.
	contain("rebalance", func() error {
		for _, d := range st.Districts {
			d.ClampStocks()
		}
		return nil
	})

	// District modifier drift: mean-revert toward 0.5 plus scaled noise.
	contain("drift", func() error {
		scale := c.cfg.Engine.VolatilityScale
		rate := c.cfg.Engine.ModifierDrift
		for _, d := range st.Districts {
			m := &d.Modifiers
			m.Unrest = MeanRevert(m.Unrest, rng.Float64()*2-1, scale, rate)
			m.Pollution = MeanRevert(m.Pollution, rng.Float64()*2-1, scale, rate)
			m.Prosperity = MeanRevert(m.Prosperity, rng.Float64()*2-1, scale, rate)
			m.Security = MeanRevert(m.Security, rng.Float64()*2-1, scale, rate)
			d.ClampModifiers()
		}
		return nil
	})

	// Environment feedback: scarcity, diffusion, faction side effects.
	contain("environment", func() error {
		impact, evs, err := c.environment.Tick(st, rng, report.Economy, report.FactionActions)
		if err != nil {
			return err
		}
		report.Impact = impact
		events = append(events, evs...)
		return nil
	})

	// Environment aggregate drift toward population-weighted district
	// averages.
	contain("envdrift", func() error {
		scale := c.cfg.Engine.VolatilityScale
		rate := c.cfg.Engine.EnvCoupling
		unrest := st.PopulationWeightedModifier(func(m world.Modifiers) float64 { return m.Unrest })
		pollution := st.PopulationWeightedModifier(func(m world.Modifiers) float64 { return m.Pollution })
		security := st.PopulationWeightedModifier(func(m world.Modifiers) float64 { return m.Security })
		prosperity := st.PopulationWeightedModifier(func(m world.Modifiers) float64 { return m.Prosperity })

		st.Env.Unrest = CoupleToward(st.Env.Unrest, unrest, rng.Float64()*2-1, scale, rate)
		st.Env.Pollution = CoupleToward(st.Env.Pollution, pollution, rng.Float64()*2-1, scale, rate)
		st.Env.Security = CoupleToward(st.Env.Security, security, rng.Float64()*2-1, scale, rate)
		st.Env.Stability = CoupleToward(st.Env.Stability, prosperity, rng.Float64()*2-1, scale, rate)
		st.Env.ClimateRisk = CoupleToward(st.Env.ClimateRisk, pollution, rng.Float64()*2-1, scale, rate)
		st.Env.Clamp()
		return nil
	})

	// Focus curation over the tick's full event stream.
	contain("focus", func() error {
		report.FocusAllocation = c.focus.Curate(st, events, c.cfg.Engine.MaxEventsPerTick)
		report.Events = report.FocusAllocation.Visible
		report.Suppressed = report.FocusAllocation.Suppressed
		return nil
	})

	// Tick counter advance; the report carries the post-increment value.
	st.Tick++
	report.Tick = st.Tick

	c.focus.RecordDigest(st.Tick, report.FocusAllocation)

	// Director snapshot, then analysis.
	contain("director", func() error {
		report.Director = c.bridge.Record(st, st.Tick, report.FocusAllocation, report.Economy)
		report.Analysis = c.director.Evaluate(st, report.Director)
		c.lastAnalysis = report.Analysis
		return nil
	})

	report.Environment = st.Env
	report.Districts = snapshotDistricts(st)
	return report
}

// Focus exposes the focus manager for the inbound set/clear/describe
// operations.
func (c *Coordinator) Focus() *focus.Manager { return c.focus }

// DirectorFeed returns the bridge's rolling snapshot history.
func (c *Coordinator) DirectorFeed() []director.Snapshot { return c.bridge.Feed() }

// LastAnalysis returns the most recent director analysis.
func (c *Coordinator) LastAnalysis() director.Analysis { return c.lastAnalysis }
