package planner

import (
	"sort"

	"github.com/heatctl/heatctl/core/logger"
	"github.com/heatctl/heatctl/core/model"
)

// Allocator assigns one mode per forecast hour. It is a pure function of its
// inputs and performs no external mutation.
type Allocator struct {
	cfg Config
	log logger.Logger
}

// NewAllocator creates an Allocator with the given strategy parameters.
func NewAllocator(cfg Config, log logger.Logger) *Allocator {
	return &Allocator{cfg: cfg, log: log}
}

// AssignModes visits the forecast hours in descending price order (stable:
// equal prices keep their original order) and claims the first matching mode
// whose hour budget is not exhausted. Budgets reset on every call.
func (a *Allocator) AssignModes(f model.Forecast, outdoorTemp float64) []model.Mode {
	hours := f.Hours()
	modes := make([]model.Mode, hours)

	order := make([]int, hours)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return f.Price[order[i]] > f.Price[order[j]]
	})

	remainingEVUBlock := a.cfg.MaxEVUBlockHours
	remainingHotWaterBlock := a.cfg.MaxHotWaterBlockHours
	remainingReducedHeat := a.cfg.MaxReducedHeatHours
	remainingIncreasedHeat := a.cfg.MaxIncreasedHeatHours
	remainingHotWaterBoost := a.cfg.MaxHotWaterBoostHours

	for _, h := range order {
		price := f.Price[h]
		net := f.NetConsumption[h]
		switch {
		case net < -a.cfg.MinSurplusForHotWaterBoost && remainingHotWaterBoost > 0:
			modes[h] = model.ModeHotWaterBoost
			remainingHotWaterBoost--
			a.log.Debugf("hot water boost at +%dh, surplus %.0f W", h, -net)
		case (net < -a.cfg.MinSurplusForIncreasedHeat || price <= a.cfg.MaxPriceForIncreasedHeat) &&
			remainingIncreasedHeat > 0:
			// The outdoor temperature guard is evaluated after the branch is
			// chosen: a warm day yields normal mode without spending budget.
			if outdoorTemp < a.cfg.MaxIncreasedHeatOutdoorTemperature {
				modes[h] = model.ModeIncreasedHeat
				remainingIncreasedHeat--
				a.log.Debugf("increased heat at +%dh, price %.3f, surplus %.0f W, outdoor %.1f",
					h, price, -net, outdoorTemp)
			} else {
				modes[h] = model.ModeNormal
				a.log.Debugf("normal heat at +%dh, outdoor temperature %.1f too high", h, outdoorTemp)
			}
		case price >= a.cfg.MinPriceForEVUBlock && remainingEVUBlock > 0:
			modes[h] = model.ModeEVUBlock
			remainingEVUBlock--
			a.log.Debugf("EVU block at +%dh, price %.3f", h, price)
		case price >= a.cfg.MinPriceForHotWaterBlock && remainingHotWaterBlock > 0:
			modes[h] = model.ModeHotWaterBlock
			remainingHotWaterBlock--
			a.log.Debugf("hot water block at +%dh, price %.3f", h, price)
		case price >= a.cfg.MinPriceForReducedHeat && remainingReducedHeat > 0:
			modes[h] = model.ModeReducedHeat
			remainingReducedHeat--
			a.log.Debugf("reduced heat at +%dh, price %.3f", h, price)
		default:
			modes[h] = model.ModeNormal
		}
	}
	return modes
}
