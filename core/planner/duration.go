package planner

import (
	"github.com/heatctl/heatctl/core/logger"
	"github.com/heatctl/heatctl/core/model"
)

// durationRule caps contiguous runs of Inspected at Max hours, downgrading
// overflow hours to Downgrade.
type durationRule struct {
	Inspected model.Mode
	Downgrade model.Mode
	Max       int
}

// EnforceDurations applies the duration caps to modes in place. The rule
// order matters: later rules see hours already downgraded by earlier ones,
// so an EVU block hour demoted to hot water block is still subject to the
// hot water block cap.
func EnforceDurations(modes []model.Mode, prices []float64, cfg Config, log logger.Logger) {
	rules := []durationRule{
		{model.ModeEVUBlock, model.ModeHotWaterBlock, cfg.MaxEVUBlockDuration},
		{model.ModeHotWaterBlock, model.ModeReducedHeat, cfg.MaxHotWaterBlockDuration},
		{model.ModeReducedHeat, model.ModeNormal, cfg.MaxReducedHeatDuration},
		{model.ModeIncreasedHeat, model.ModeNormal, cfg.MaxIncreasedHeatDuration},
	}
	for _, r := range rules {
		adjustModeDuration(modes, prices, r, log)
	}
}

// adjustModeDuration scans left to right tracking the current contiguous run
// of r.Inspected. When the run exceeds r.Max, exactly one hour is downgraded:
// the run's first hour if its price is at most the overflow hour's price,
// otherwise the overflow hour itself. Downgrading the first hour shortens the
// run from the front and counting continues, so every remaining window is
// still inspected; downgrading the current hour breaks the run.
func adjustModeDuration(modes []model.Mode, prices []float64, r durationRule, log logger.Logger) {
	duration := 0
	start := -1
	for h, m := range modes {
		if m != r.Inspected {
			duration = 0
			start = -1
			continue
		}
		if start == -1 {
			start = h
		}
		duration++
		if duration <= r.Max {
			continue
		}
		if prices[start] <= prices[h] {
			modes[start] = r.Downgrade
			log.Debugf("downgrade %s to %s at +%dh, duration limit %d", r.Inspected, r.Downgrade, start, r.Max)
			start++
			duration--
		} else {
			modes[h] = r.Downgrade
			log.Debugf("downgrade %s to %s at +%dh, duration limit %d", r.Inspected, r.Downgrade, h, r.Max)
			duration = 0
			start = -1
		}
	}
}
