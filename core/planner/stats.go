package planner

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceSummary describes the price distribution of one forecast horizon. It
// is published to the telemetry sink on every replan to make the allocation
// explainable.
type PriceSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SummarizePrices computes the summary statistics of prices.
func SummarizePrices(prices []float64) PriceSummary {
	if len(prices) == 0 {
		return PriceSummary{}
	}
	mean, std := stat.MeanStdDev(prices, nil)
	if len(prices) == 1 {
		std = 0
	}
	return PriceSummary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(prices),
		Max:    floats.Max(prices),
	}
}
