package model

import "fmt"

// Mode is the operating mode assigned to the heat pump for one hour.
type Mode int

const (
	// ModeNormal leaves the heat pump in its default behaviour.
	ModeNormal Mode = iota
	// ModeReducedHeat lowers the heating setpoint.
	ModeReducedHeat
	// ModeHotWaterBlock suppresses hot water production.
	ModeHotWaterBlock
	// ModeEVUBlock blocks the compressor entirely (utility block).
	ModeEVUBlock
	// ModeIncreasedHeat raises the heating setpoint to soak up cheap energy.
	ModeIncreasedHeat
	// ModeHotWaterBoost reheats the hot water tank from surplus production.
	ModeHotWaterBoost
)

var modeNames = map[Mode]string{
	ModeNormal:        "normal",
	ModeReducedHeat:   "reduced_heat",
	ModeHotWaterBlock: "hot_water_block",
	ModeEVUBlock:      "evu_block",
	ModeIncreasedHeat: "increased_heat",
	ModeHotWaterBoost: "hot_water_boost",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeNormal, &UnknownModeError{Value: s}
}

// UnknownModeError signals that a mode value outside the closed enum reached
// consolidation or reconciliation. It is a programming error, not a runtime
// input error.
type UnknownModeError struct {
	Value string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown heat pump mode: %s", e.Value)
}
