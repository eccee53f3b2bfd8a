package device

import "github.com/heatctl/heatctl/core/model"

// Silent is a stub controller that does nothing and produces no log noise.
// It reports itself as disconnected, so planning cycles no-op.
type Silent struct{}

func (Silent) Connected() bool { return false }

func (Silent) ListSchedules() ([]model.Schedule, error) { return nil, nil }

func (Silent) CreateSchedule(model.Schedule) (model.ScheduleRef, error) { return "", nil }

func (Silent) DeleteSchedule(model.ScheduleRef) error { return nil }

func (Silent) OutdoorTemperature() (float64, error) { return 0, nil }
