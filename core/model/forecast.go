package model

import "time"

// ForecastHour is one aligned sample of the price and net load forecast.
// A negative NetConsumption denotes surplus: forecasted production exceeds
// demand.
type ForecastHour struct {
	Index          int
	Price          float64
	NetConsumption float64
}

// Forecast carries hour-aligned price and net consumption arrays starting at
// Start, which must be a full hour boundary.
type Forecast struct {
	Start          time.Time
	Price          []float64
	NetConsumption []float64
}

// Hours returns the usable horizon, the shorter of the two arrays.
func (f Forecast) Hours() int {
	if len(f.Price) < len(f.NetConsumption) {
		return len(f.Price)
	}
	return len(f.NetConsumption)
}

// Hour returns the h-th sample of the forecast.
func (f Forecast) Hour(h int) ForecastHour {
	return ForecastHour{Index: h, Price: f.Price[h], NetConsumption: f.NetConsumption[h]}
}
