package metrics

import (
	"time"

	"github.com/heatctl/heatctl/core/model"
)

// PlanEvent describes the outcome of one admitted planning pass.
type PlanEvent struct {
	Time      time.Time
	Horizon   time.Time
	ModeHours map[model.Mode]int
	SlotCount int
	// OutdoorTemperature is the sensor reading used for allocation, +Inf
	// when the read failed.
	OutdoorTemperature float64
}

// ReconcileEvent counts the device-side mutations of one planning pass.
type ReconcileEvent struct {
	Time      time.Time
	Created   int
	Deleted   int
	Conflicts int
	Failures  int
}

// PlanRecorder records planning passes.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// ReconcileRecorder records reconciliation outcomes.
type ReconcileRecorder interface {
	RecordReconcile(ev ReconcileEvent) error
}

// CycleRecorder records every loop invocation, admitted or skipped.
type CycleRecorder interface {
	RecordCycle(planned bool) error
}

// Sink aggregates the recorder interfaces implemented by all full sinks.
type Sink interface {
	PlanRecorder
	ReconcileRecorder
	CycleRecorder
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error           { return nil }
func (NopSink) RecordReconcile(ReconcileEvent) error { return nil }
func (NopSink) RecordCycle(bool) error               { return nil }
