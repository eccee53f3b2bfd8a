package model

import "time"

// ScheduleFunction identifies the device-side calendar function used to
// materialize a mode.
type ScheduleFunction int

const (
	// FunctionEVUMode blocks the compressor (utility block calendar entry).
	FunctionEVUMode ScheduleFunction = iota + 1
	// FunctionHotWaterBlock suppresses hot water production.
	FunctionHotWaterBlock
	// FunctionHeatingEffect overrides the heating setpoint; Value carries the
	// target temperature. Used for both reduced and increased heat.
	FunctionHeatingEffect
)

func (f ScheduleFunction) String() string {
	switch f {
	case FunctionEVUMode:
		return "evu_mode"
	case FunctionHotWaterBlock:
		return "hot_water_block"
	case FunctionHeatingEffect:
		return "heating_effect"
	}
	return "unknown"
}

// ScheduleRef is the opaque identifier of a device-side schedule entry.
type ScheduleRef string

// Schedule is a calendar entry as stored on the device side.
type Schedule struct {
	Ref      ScheduleRef      `json:"ref"`
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
	Function ScheduleFunction `json:"function"`
	// Value is the setpoint for FunctionHeatingEffect entries, zero otherwise.
	Value float64 `json:"value,omitempty"`
}

// ScheduleHandler represents a materialized, non-default device-side schedule
// entry tracked by the scheduler. At most one handler exists per start time.
type ScheduleHandler struct {
	Start time.Time
	End   time.Time
	Ref   ScheduleRef
}
