// Package config holds the engine tuning constants, loadable from YAML.
// All values are read-only inputs to the simulation core.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects every knob the engine consumes. Zero values are filled
// from Default before use, so partial YAML files are fine.
type Tuning struct {
	Engine      Engine      `yaml:"engine"`
	Agents      Agents      `yaml:"agents"`
	Factions    Factions    `yaml:"factions"`
	Economy     Economy     `yaml:"economy"`
	Environment Environment `yaml:"environment"`
	Focus       Focus       `yaml:"focus"`
	Director    Director    `yaml:"director"`
}

type Engine struct {
	MaxTicks        int     `yaml:"max_ticks"`         // Per-call guard on requested tick counts.
	VolatilityScale float64 `yaml:"volatility_scale"`  // Level-of-detail noise multiplier.
	ModifierDrift   float64 `yaml:"modifier_drift"`    // Mean-reversion rate toward 0.5.
	EnvCoupling     float64 `yaml:"env_coupling"`      // Environment pull toward district averages.
	MaxEventsPerTick int    `yaml:"max_events_per_tick"`
	Profile         bool    `yaml:"profile"`           // Record per-subsystem wall time.
}

type Agents struct {
	MaxActionsPerTick int `yaml:"max_actions_per_tick"`
}

type Factions struct {
	CooldownTicks int `yaml:"cooldown_ticks"` // Ticks a faction rests after acting.
}

type Economy struct {
	ProductionScale   float64            `yaml:"production_scale"`
	ProductionJitter  float64            `yaml:"production_jitter"`
	DemandWeights     map[string]float64 `yaml:"demand_weights"` // Per-resource base demand per capita.
	ShortageThreshold float64            `yaml:"shortage_threshold"`
	ShortageTicks     int                `yaml:"shortage_ticks"` // Consecutive ticks below threshold before surfacing.
	PriceStep         float64            `yaml:"price_step"`
	PriceCeiling      float64            `yaml:"price_ceiling"`
	PriceFloor        float64            `yaml:"price_floor"`
	PriceDecay        float64            `yaml:"price_decay"`
}

type Environment struct {
	ScarcityPerTick   float64 `yaml:"scarcity_per_tick"` // Pressure per shortage-tick of duration.
	ScarcityCap       float64 `yaml:"scarcity_cap"`
	UnrestCoupling    float64 `yaml:"unrest_coupling"`
	PollutionCoupling float64 `yaml:"pollution_coupling"`
	DiffusionRate     float64 `yaml:"diffusion_rate"` // Pollution pull toward the city mean.
	BiodiversityDecay float64 `yaml:"biodiversity_decay"`
	InvestRelief      float64 `yaml:"invest_relief"`  // Pollution drop from INVEST_DISTRICT.
	SabotageSpike     float64 `yaml:"sabotage_spike"` // Pollution jump from SABOTAGE_RIVAL.
}

type Focus struct {
	RingSize      int     `yaml:"ring_size"`
	BudgetRatio   float64 `yaml:"budget_ratio"` // Share of the event budget reserved for the ring.
	GlobalFloor   int     `yaml:"global_floor"` // Minimum slots reserved outside the ring.
	DigestSize    int     `yaml:"digest_size"`
	HistoryLength int     `yaml:"history_length"`
}

type Director struct {
	HotspotLimit    int     `yaml:"hotspot_limit"`
	ScoreThreshold  float64 `yaml:"score_threshold"`
	HopCost         float64 `yaml:"hop_cost"`
	DistanceCost    float64 `yaml:"distance_cost"`
	DefaultDistance float64 `yaml:"default_distance"` // Used when no coordinates exist on an unreachable route.
	FeedLength      int     `yaml:"feed_length"`
}

// Default returns the baseline tuning the engine ships with.
func Default() Tuning {
	return Tuning{
		Engine: Engine{
			MaxTicks:         1000,
			VolatilityScale:  0.01,
			ModifierDrift:    0.02,
			EnvCoupling:      0.05,
			MaxEventsPerTick: 48,
			Profile:          true,
		},
		Agents:   Agents{MaxActionsPerTick: 8},
		Factions: Factions{CooldownTicks: 3},
		Economy: Economy{
			ProductionScale:  1.0,
			ProductionJitter: 0.05,
			DemandWeights: map[string]float64{
				"food":      0.012,
				"water":     0.010,
				"energy":    0.008,
				"materials": 0.005,
				"luxuries":  0.002,
			},
			ShortageThreshold: 0.2,
			ShortageTicks:     3,
			PriceStep:         0.25,
			PriceCeiling:      5.0,
			PriceFloor:        1.0,
			PriceDecay:        0.1,
		},
		Environment: Environment{
			ScarcityPerTick:   0.05,
			ScarcityCap:       0.5,
			UnrestCoupling:    0.04,
			PollutionCoupling: 0.02,
			DiffusionRate:     0.1,
			BiodiversityDecay: 0.01,
			InvestRelief:      0.05,
			SabotageSpike:     0.08,
		},
		Focus: Focus{
			RingSize:      3,
			BudgetRatio:   0.6,
			GlobalFloor:   2,
			DigestSize:    12,
			HistoryLength: 50,
		},
		Director: Director{
			HotspotLimit:    3,
			ScoreThreshold:  1.0,
			HopCost:         1.0,
			DistanceCost:    0.1,
			DefaultDistance: 10.0,
			FeedLength:      50,
		},
	}
}

// Load reads a YAML tuning file layered over the defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects tunings the engine cannot run with.
func (t Tuning) Validate() error {
	if t.Engine.MaxTicks < 1 {
		return fmt.Errorf("engine.max_ticks must be >= 1, got %d", t.Engine.MaxTicks)
	}
	if t.Economy.ShortageTicks < 1 {
		return fmt.Errorf("economy.shortage_ticks must be >= 1, got %d", t.Economy.ShortageTicks)
	}
	if t.Economy.ShortageThreshold <= 0 || t.Economy.ShortageThreshold >= 1 {
		return fmt.Errorf("economy.shortage_threshold must be in (0,1), got %.2f", t.Economy.ShortageThreshold)
	}
	if t.Focus.BudgetRatio < 0 || t.Focus.BudgetRatio > 1 {
		return fmt.Errorf("focus.budget_ratio must be in [0,1], got %.2f", t.Focus.BudgetRatio)
	}
	if t.Focus.RingSize < 0 {
		return fmt.Errorf("focus.ring_size must be >= 0, got %d", t.Focus.RingSize)
	}
	if t.Director.HotspotLimit < 1 {
		return fmt.Errorf("director.hotspot_limit must be >= 1, got %d", t.Director.HotspotLimit)
	}
	return nil
}
