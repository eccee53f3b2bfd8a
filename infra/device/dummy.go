package device

import (
	"strconv"

	"github.com/heatctl/heatctl/core/model"
	"github.com/heatctl/heatctl/infra/logger"
)

// Dummy is an in-memory controller used for testing and dry runs. It accepts
// every operation and logs what a real device would do.
type Dummy struct {
	log       logger.Logger
	nextID    int
	schedules map[model.ScheduleRef]model.Schedule
	// Outdoor is the temperature reported by OutdoorTemperature.
	Outdoor float64
}

// NewDummy creates a Dummy controller reporting 5 degrees outdoors.
func NewDummy() *Dummy {
	return &Dummy{
		log:       logger.New("dummy_heatpump"),
		nextID:    1,
		schedules: make(map[model.ScheduleRef]model.Schedule),
		Outdoor:   5,
	}
}

func (d *Dummy) Connected() bool { return true }

func (d *Dummy) ListSchedules() ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(d.schedules))
	for _, s := range d.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (d *Dummy) CreateSchedule(s model.Schedule) (model.ScheduleRef, error) {
	ref := model.ScheduleRef(strconv.Itoa(d.nextID))
	d.nextID++
	s.Ref = ref
	d.schedules[ref] = s
	d.log.Infof("created schedule %s: %s from %s to %s", ref, s.Function, s.Start, s.End)
	return ref, nil
}

func (d *Dummy) DeleteSchedule(ref model.ScheduleRef) error {
	delete(d.schedules, ref)
	d.log.Infof("deleted schedule %s", ref)
	return nil
}

func (d *Dummy) OutdoorTemperature() (float64, error) {
	return d.Outdoor, nil
}
