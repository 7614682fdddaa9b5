// Package economy rebalances district resource stocks each tick, tracks
// persistent shortages with a hysteresis window, and derives market prices.
package economy

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/emberline/crucible/internal/config"
	"github.com/emberline/crucible/internal/world"
)

// Shortage is a surfaced supply failure: a district's stock ratio stayed
// at or below the threshold for the configured number of consecutive ticks.
type Shortage struct {
	DistrictID string         `json:"district_id"`
	Resource   world.Resource `json:"resource"`
	Ratio      float64        `json:"ratio"`
	Duration   int            `json:"duration"` // Consecutive ticks at or below threshold.
}

// Report is the economy subsystem's per-tick output.
type Report struct {
	Prices    map[world.Resource]float64 `json:"prices"`
	Shortages []Shortage                 `json:"shortages"`
}

type stockKey struct {
	district string
	resource world.Resource
}

// System owns the hysteresis counters and price state across ticks.
type System struct {
	cfg      config.Economy
	belowFor map[stockKey]int
	prices   map[world.Resource]float64
}

// NewSystem creates the economy subsystem with prices at the floor.
func NewSystem(cfg config.Economy) *System {
	prices := make(map[world.Resource]float64)
	for _, r := range world.Resources() {
		prices[r] = cfg.PriceFloor
	}
	return &System{
		cfg:      cfg,
		belowFor: make(map[stockKey]int),
		prices:   prices,
	}
}

// Tick runs production and consumption for every district, updates the
// shortage hysteresis counters, and steps prices.
func (s *System) Tick(st *world.State, rng *rand.Rand) (Report, []world.Event, error) {
	var shortages []Shortage
	var events []world.Event

	for _, d := range st.Districts {
		for _, res := range world.Resources() {
			stock := d.Stock(res)
			if stock == nil {
				continue
			}

			// Production: regen scaled, with a small uniform jitter.
			jitter := 1 + s.cfg.ProductionJitter*(rng.Float64()*2-1)
			stock.Current += stock.Regen * s.cfg.ProductionScale * jitter

			// Consumption: demand grows with population and prosperity,
			// and unrest wastes supply.
			weight := s.cfg.DemandWeights[string(res)]
			demand := weight * float64(d.Population) *
				(0.5 + d.Modifiers.Prosperity*0.5 + d.Modifiers.Unrest*0.3)
			stock.Current -= demand

			if stock.Current < 0 {
				stock.Current = 0
			}
			if stock.Current > stock.Capacity {
				stock.Current = stock.Capacity
			}

			// Hysteresis: only a sustained dip surfaces as a shortage.
			key := stockKey{district: d.ID, resource: res}
			ratio := stock.Ratio()
			if ratio <= s.cfg.ShortageThreshold {
				s.belowFor[key]++
			} else {
				delete(s.belowFor, key)
			}

			if s.belowFor[key] >= s.cfg.ShortageTicks {
				shortages = append(shortages, Shortage{
					DistrictID: d.ID,
					Resource:   res,
					Ratio:      ratio,
					Duration:   s.belowFor[key],
				})
				events = append(events, world.Event{
					Message:    fmt.Sprintf("Persistent %s shortage grips %s (stocks at %.0f%%)", res, d.Name, ratio*100),
					DistrictID: d.ID,
					Scope:      world.ScopeDistrict,
				})
			}
		}
	}

	sort.Slice(shortages, func(i, j int) bool {
		if shortages[i].DistrictID != shortages[j].DistrictID {
			return shortages[i].DistrictID < shortages[j].DistrictID
		}
		return shortages[i].Resource < shortages[j].Resource
	})

	s.stepPrices(shortages)

	report := Report{
		Prices:    make(map[world.Resource]float64, len(s.prices)),
		Shortages: shortages,
	}
	for r, p := range s.prices {
		report.Prices[r] = p
	}
	return report, events, nil
}

// stepPrices raises the price of any resource in shortage by a fixed step
// up to the ceiling, and decays recovered resources toward the floor.
func (s *System) stepPrices(shortages []Shortage) {
	inShortage := make(map[world.Resource]bool)
	for _, sh := range shortages {
		inShortage[sh.Resource] = true
	}

	for _, r := range world.Resources() {
		p := s.prices[r]
		if inShortage[r] {
			p += s.cfg.PriceStep
			if p > s.cfg.PriceCeiling {
				p = s.cfg.PriceCeiling
			}
		} else {
			p -= (p - s.cfg.PriceFloor) * s.cfg.PriceDecay
			if p < s.cfg.PriceFloor {
				p = s.cfg.PriceFloor
			}
		}
		s.prices[r] = p
	}
}

// MaxShortageDuration returns the longest surfaced shortage duration in a
// report. The environment subsystem converts this into scarcity pressure.
func MaxShortageDuration(r Report) int {
	max := 0
	for _, sh := range r.Shortages {
		if sh.Duration > max {
			max = sh.Duration
		}
	}
	return max
}
