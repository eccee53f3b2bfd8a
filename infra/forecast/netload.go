package forecast

import (
	"fmt"
	"time"

	"github.com/heatctl/heatctl/core/model"
	"github.com/heatctl/heatctl/infra/logger"
)

// PriceSource supplies hourly electricity prices starting at the current
// hour boundary, for as many hours as the provider publishes.
type PriceSource interface {
	Prices(now time.Time) ([]float64, error)
}

// LoadSource supplies the forecasted household consumption in watts for the
// requested number of hours.
type LoadSource interface {
	Load(now time.Time, hours int) ([]float64, error)
}

// ProductionSource supplies the forecasted PV production in watts. Hours the
// provider does not cover are zero.
type ProductionSource interface {
	Production(now time.Time, hours int) ([]float64, error)
}

// NetLoad combines a price source with consumption and production forecasts
// into the aligned arrays the planner consumes. The price horizon bounds the
// forecast length.
type NetLoad struct {
	prices     PriceSource
	load       LoadSource
	production ProductionSource
	log        logger.Logger
}

// NewNetLoad creates a NetLoad source. production may be nil.
func NewNetLoad(prices PriceSource, load LoadSource, production ProductionSource) *NetLoad {
	return &NetLoad{
		prices:     prices,
		load:       load,
		production: production,
		log:        logger.New("forecast"),
	}
}

// Hourly implements forecast.Source.
func (n *NetLoad) Hourly(now time.Time) (model.Forecast, error) {
	prices, err := n.prices.Prices(now)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("fetch prices: %w", err)
	}
	hours := len(prices)
	if hours == 0 {
		return model.Forecast{}, fmt.Errorf("tariff provider returned no future prices")
	}

	load, err := n.load.Load(now, hours)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("consumption forecast: %w", err)
	}

	net := make([]float64, hours)
	copy(net, load)
	if n.production != nil {
		prod, err := n.production.Production(now, hours)
		if err != nil {
			// A missing PV forecast degrades to zero production rather than
			// skipping the whole cycle.
			n.log.Warnf("production forecast failed, assuming none: %v", err)
		} else {
			for i := range net {
				net[i] -= prod[i]
			}
		}
	}

	return model.Forecast{
		Start:          now.Truncate(time.Hour),
		Price:          prices,
		NetConsumption: net,
	}, nil
}
