package forecast

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ConsumptionConfig describes the static household load profile. AnnualKWh
// sets the total yearly consumption and HourlyWeights shapes it over the day;
// weights are relative and get normalized to their mean.
type ConsumptionConfig struct {
	AnnualKWh     float64     `json:"annual_kwh"`
	HourlyWeights [24]float64 `json:"hourly_weights"`
}

// SetDefaults applies a flat 4000 kWh/a profile when unset.
func (c *ConsumptionConfig) SetDefaults() {
	if c.AnnualKWh == 0 {
		c.AnnualKWh = 4000
	}
	flat := true
	for _, w := range c.HourlyWeights {
		if w != 0 {
			flat = false
			break
		}
	}
	if flat {
		for i := range c.HourlyWeights {
			c.HourlyWeights[i] = 1
		}
	}
}

// Profile is a LoadSource derived from a static daily consumption profile.
type Profile struct {
	baseW   float64
	factors [24]float64
}

const hoursPerYear = 8760

// NewProfile creates a Profile from the configuration.
func NewProfile(cfg ConsumptionConfig) *Profile {
	cfg.SetDefaults()
	mean := stat.Mean(cfg.HourlyWeights[:], nil)
	p := &Profile{baseW: cfg.AnnualKWh * 1000 / hoursPerYear}
	for i, w := range cfg.HourlyWeights {
		p.factors[i] = w / mean
	}
	return p
}

// Load implements LoadSource. The returned values are watts per hour of day,
// starting at the hour containing now.
func (p *Profile) Load(now time.Time, hours int) ([]float64, error) {
	if hours < 0 {
		return nil, fmt.Errorf("negative forecast length: %d", hours)
	}
	out := make([]float64, hours)
	start := now.Truncate(time.Hour)
	for i := range out {
		h := start.Add(time.Duration(i) * time.Hour).Hour()
		out[i] = p.baseW * p.factors[h]
	}
	return out, nil
}
