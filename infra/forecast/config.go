package forecast

import (
	"fmt"

	coreforecast "github.com/heatctl/heatctl/core/forecast"
)

// Config selects the tariff provider and parameterizes the load and
// production forecasts.
type Config struct {
	// Provider selects the price source: "awattar" or "tibber".
	Provider    string            `json:"provider"`
	Awattar     AwattarConfig     `json:"awattar"`
	Tibber      TibberConfig      `json:"tibber"`
	Consumption ConsumptionConfig `json:"consumption"`
	Solar       SolarConfig       `json:"solar"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "awattar"
	}
	c.Awattar.SetDefaults()
	c.Consumption.SetDefaults()
}

// New builds the combined forecast source from the configuration.
func New(cfg Config) (coreforecast.Source, error) {
	cfg.SetDefaults()

	var prices PriceSource
	switch cfg.Provider {
	case "awattar":
		p, err := NewAwattar(cfg.Awattar)
		if err != nil {
			return nil, err
		}
		prices = p
	case "tibber":
		p, err := NewTibber(cfg.Tibber)
		if err != nil {
			return nil, err
		}
		prices = p
	default:
		return nil, fmt.Errorf("unsupported tariff provider: %s", cfg.Provider)
	}

	load := NewProfile(cfg.Consumption)

	var production ProductionSource
	if cfg.Solar.KWp > 0 {
		production = NewForecastSolar(cfg.Solar)
	}
	return NewNetLoad(prices, load, production), nil
}
