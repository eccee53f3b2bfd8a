package planner

// Config holds the per-mode trigger thresholds, hour budgets and duration
// caps. Prices are in the tariff currency per kWh, surpluses in watts,
// temperatures in degrees Celsius.
type Config struct {
	// EVU block
	MinPriceForEVUBlock float64 `json:"min_price_for_evu_block"`
	MaxEVUBlockHours    int     `json:"max_evu_block_hours"`
	MaxEVUBlockDuration int     `json:"max_evu_block_duration"`
	// Hot water block
	MinPriceForHotWaterBlock float64 `json:"min_price_for_hot_water_block"`
	MaxHotWaterBlockHours    int     `json:"max_hot_water_block_hours"`
	MaxHotWaterBlockDuration int     `json:"max_hot_water_block_duration"`
	// Reduced heat
	MinPriceForReducedHeat float64 `json:"min_price_for_reduced_heat"`
	MaxReducedHeatHours    int     `json:"max_reduced_heat_hours"`
	MaxReducedHeatDuration int     `json:"max_reduced_heat_duration"`
	ReducedHeatTemperature float64 `json:"reduced_heat_temperature"`
	// Increased heat
	MaxPriceForIncreasedHeat           float64 `json:"max_price_for_increased_heat"`
	MinSurplusForIncreasedHeat         float64 `json:"min_energy_surplus_for_increased_heat"`
	MaxIncreasedHeatHours              int     `json:"max_increased_heat_hours"`
	MaxIncreasedHeatDuration           int     `json:"max_increased_heat_duration"`
	IncreasedHeatTemperature           float64 `json:"increased_heat_temperature"`
	MaxIncreasedHeatOutdoorTemperature float64 `json:"max_increased_heat_outdoor_temperature"`
	// Hot water boost
	MinSurplusForHotWaterBoost float64 `json:"min_energy_surplus_for_hot_water_boost"`
	MaxHotWaterBoostHours      int     `json:"max_hot_water_boost_hours"`
}

// DefaultConfig returns the stock strategy parameters.
func DefaultConfig() Config {
	return Config{
		MinPriceForEVUBlock: 0.6,
		MaxEVUBlockHours:    14,
		MaxEVUBlockDuration: 6,

		MinPriceForHotWaterBlock: 0.4,
		MaxHotWaterBlockHours:    10,
		MaxHotWaterBlockDuration: 4,

		MinPriceForReducedHeat: 0.3,
		MaxReducedHeatHours:    14,
		MaxReducedHeatDuration: 6,
		ReducedHeatTemperature: 20,

		MaxPriceForIncreasedHeat:           0.2,
		MinSurplusForIncreasedHeat:         1000,
		MaxIncreasedHeatHours:              14,
		MaxIncreasedHeatDuration:           6,
		IncreasedHeatTemperature:           22,
		MaxIncreasedHeatOutdoorTemperature: 15,

		MinSurplusForHotWaterBoost: 2500,
		MaxHotWaterBoostHours:      1,
	}
}

// SetDefaults fills zero-valued fields with the stock parameters. A zero
// threshold is indistinguishable from "unset", which matches the optional
// configuration surface: every parameter has a stated default.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.MinPriceForEVUBlock == 0 {
		c.MinPriceForEVUBlock = def.MinPriceForEVUBlock
	}
	if c.MaxEVUBlockHours == 0 {
		c.MaxEVUBlockHours = def.MaxEVUBlockHours
	}
	if c.MaxEVUBlockDuration == 0 {
		c.MaxEVUBlockDuration = def.MaxEVUBlockDuration
	}
	if c.MinPriceForHotWaterBlock == 0 {
		c.MinPriceForHotWaterBlock = def.MinPriceForHotWaterBlock
	}
	if c.MaxHotWaterBlockHours == 0 {
		c.MaxHotWaterBlockHours = def.MaxHotWaterBlockHours
	}
	if c.MaxHotWaterBlockDuration == 0 {
		c.MaxHotWaterBlockDuration = def.MaxHotWaterBlockDuration
	}
	if c.MinPriceForReducedHeat == 0 {
		c.MinPriceForReducedHeat = def.MinPriceForReducedHeat
	}
	if c.MaxReducedHeatHours == 0 {
		c.MaxReducedHeatHours = def.MaxReducedHeatHours
	}
	if c.MaxReducedHeatDuration == 0 {
		c.MaxReducedHeatDuration = def.MaxReducedHeatDuration
	}
	if c.ReducedHeatTemperature == 0 {
		c.ReducedHeatTemperature = def.ReducedHeatTemperature
	}
	if c.MaxPriceForIncreasedHeat == 0 {
		c.MaxPriceForIncreasedHeat = def.MaxPriceForIncreasedHeat
	}
	if c.MinSurplusForIncreasedHeat == 0 {
		c.MinSurplusForIncreasedHeat = def.MinSurplusForIncreasedHeat
	}
	if c.MaxIncreasedHeatHours == 0 {
		c.MaxIncreasedHeatHours = def.MaxIncreasedHeatHours
	}
	if c.MaxIncreasedHeatDuration == 0 {
		c.MaxIncreasedHeatDuration = def.MaxIncreasedHeatDuration
	}
	if c.IncreasedHeatTemperature == 0 {
		c.IncreasedHeatTemperature = def.IncreasedHeatTemperature
	}
	if c.MaxIncreasedHeatOutdoorTemperature == 0 {
		c.MaxIncreasedHeatOutdoorTemperature = def.MaxIncreasedHeatOutdoorTemperature
	}
	if c.MinSurplusForHotWaterBoost == 0 {
		c.MinSurplusForHotWaterBoost = def.MinSurplusForHotWaterBoost
	}
	if c.MaxHotWaterBoostHours == 0 {
		c.MaxHotWaterBoostHours = def.MaxHotWaterBoostHours
	}
}
