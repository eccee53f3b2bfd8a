package device

import (
	"errors"

	"github.com/heatctl/heatctl/core/model"
)

// ErrNoDeviceFound is returned when device enumeration yields an empty set at
// connect time. Planning cycles silently no-op until a later connection
// attempt succeeds.
var ErrNoDeviceFound = errors.New("no heat pump found in account")

// ErrMissingCredentials is returned at construction when required credentials
// are absent. No planning is possible.
var ErrMissingCredentials = errors.New("device credentials missing")

// Controller is the capability interface for a heat pump brand. One
// implementing variant exists per vendor cloud.
type Controller interface {
	// Connected reports whether a device is currently bound. All other
	// methods fail or no-op when false.
	Connected() bool
	// ListSchedules returns the current device-side calendar entries.
	ListSchedules() ([]model.Schedule, error)
	// CreateSchedule installs a calendar entry and returns its reference.
	CreateSchedule(s model.Schedule) (model.ScheduleRef, error)
	// DeleteSchedule removes the entry identified by ref.
	DeleteSchedule(ref model.ScheduleRef) error
	// OutdoorTemperature reads the current outdoor temperature sensor.
	OutdoorTemperature() (float64, error)
}
