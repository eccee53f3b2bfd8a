package scheduler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/heatctl/heatctl/core/device"
	"github.com/heatctl/heatctl/core/logger"
	"github.com/heatctl/heatctl/core/metrics"
	"github.com/heatctl/heatctl/core/model"
	"github.com/heatctl/heatctl/core/planner"
	"github.com/heatctl/heatctl/core/telemetry"
)

// topicBase is the telemetry prefix for the single managed heat pump.
const topicBase = "heatpumps/0/"

// Scheduler owns the planning state for one heat pump. It is not safe for
// concurrent use; the caller must serialize planning passes.
type Scheduler struct {
	dev   device.Controller
	cfg   planner.Config
	alloc *planner.Allocator
	log   logger.Logger
	sink  telemetry.Sink
	rec   metrics.Sink
	now   func() time.Time

	plannedUntil time.Time
	handlers     map[time.Time]*model.ScheduleHandler
	slots        map[time.Time]*model.StrategySlot
}

// New creates a Scheduler. sink, rec and log may be nil, in which case no-op
// implementations are used.
func New(dev device.Controller, cfg planner.Config, sink telemetry.Sink, rec metrics.Sink, log logger.Logger) *Scheduler {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if rec == nil {
		rec = metrics.NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Scheduler{
		dev:      dev,
		cfg:      cfg,
		alloc:    planner.NewAllocator(cfg, log),
		log:      log,
		sink:     sink,
		rec:      rec,
		now:      time.Now,
		handlers: make(map[time.Time]*model.ScheduleHandler),
		slots:    make(map[time.Time]*model.StrategySlot),
	}
}

// PlannedUntil returns the current planning watermark, zero before the first
// admitted pass.
func (s *Scheduler) PlannedUntil() time.Time { return s.plannedUntil }

// Slots returns the tracked strategy slots ordered by start time.
func (s *Scheduler) Slots() []model.StrategySlot {
	out := make([]model.StrategySlot, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, *sl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Plan executes one planning pass over the given forecast. The pass is a
// no-op unless the forecast horizon exceeds the last planned watermark.
// Expired slots and handlers are purged regardless. Transport failures are
// absorbed; only a mode value outside the closed enum is fatal.
func (s *Scheduler) Plan(f model.Forecast) error {
	now := s.now()
	hourStart := now.Truncate(time.Hour)

	s.purgeExpired(now)

	if !s.dev.Connected() {
		s.log.Errorf("no heat pump connected, skipping planning cycle")
		s.recordCycle(false)
		return nil
	}

	hours := f.Hours()
	if hours == 0 {
		s.log.Warnf("empty forecast, skipping planning cycle")
		s.recordCycle(false)
		return nil
	}
	horizon := hourStart.Add(time.Duration(hours) * time.Hour)
	if !horizon.After(s.plannedUntil) {
		s.log.Debugf("no replanning necessary, already planned until %s", s.plannedUntil)
		s.recordCycle(false)
		return nil
	}
	s.log.Debugf("planning until %s", horizon)

	outdoor, err := s.dev.OutdoorTemperature()
	if err != nil {
		// Without a reading the increased heat branch yields normal mode and
		// keeps its budget.
		s.log.Warnf("outdoor temperature read failed, increased heat disabled this pass: %v", err)
		outdoor = math.Inf(1)
	}

	modes := s.alloc.AssignModes(f, outdoor)
	planner.EnforceDurations(modes, f.Price, s.cfg, s.log)
	slots, err := planner.Consolidate(modes, f, hourStart)
	if err != nil {
		return fmt.Errorf("consolidate plan: %w", err)
	}

	ev, err := s.reconcile(hourStart, horizon, slots)
	if err != nil {
		return err
	}

	s.purgeExpired(now)
	s.plannedUntil = horizon

	s.publishState(f)
	s.recordCycle(true)
	if err := s.rec.RecordPlan(metrics.PlanEvent{
		Time:               now,
		Horizon:            horizon,
		ModeHours:          countModeHours(modes),
		SlotCount:          len(slots),
		OutdoorTemperature: outdoor,
	}); err != nil {
		s.log.Warnf("record plan event: %v", err)
	}
	if err := s.rec.RecordReconcile(ev); err != nil {
		s.log.Warnf("record reconcile event: %v", err)
	}
	return nil
}

// reconcile rebuilds the tracked slots and handlers for [hourStart, horizon]
// and mirrors them onto the device. Device ground truth is re-queried so the
// scheduler self-heals from out-of-band calendar changes.
func (s *Scheduler) reconcile(hourStart, horizon time.Time, slots []model.StrategySlot) (metrics.ReconcileEvent, error) {
	now := s.now()
	ev := metrics.ReconcileEvent{Time: now}

	// Full replan: tracked handlers inside the window are rebuilt from
	// scratch. Handlers outside [hourStart, horizon] stay untouched.
	s.slots = make(map[time.Time]*model.StrategySlot)
	for start, h := range s.handlers {
		if start.Before(hourStart) || start.After(horizon) {
			continue
		}
		if err := s.dev.DeleteSchedule(h.Ref); err != nil {
			s.log.Errorf("delete schedule %s (start %s): %v", h.Ref, start, err)
			ev.Failures++
			continue
		}
		delete(s.handlers, start)
		s.log.Debugf("replan: deleted handler %s starting %s", h.Ref, start)
		ev.Deleted++
	}

	existing, err := s.dev.ListSchedules()
	if err != nil {
		s.log.Errorf("list device schedules: %v", err)
	}
	for _, sch := range existing {
		switch {
		case !sch.Start.Before(hourStart) && !sch.Start.After(horizon):
			if err := s.dev.DeleteSchedule(sch.Ref); err != nil {
				s.log.Errorf("delete conflicting schedule %s: %v", sch.Ref, err)
				ev.Failures++
				continue
			}
			s.log.Debugf("replan: deleted conflicting schedule %s", sch.Ref)
			ev.Deleted++
		case sch.End.Before(now):
			if err := s.dev.DeleteSchedule(sch.Ref); err != nil {
				s.log.Errorf("delete expired schedule %s: %v", sch.Ref, err)
				ev.Failures++
				continue
			}
			s.log.Debugf("replan: deleted expired schedule %s", sch.Ref)
			ev.Deleted++
		default:
			s.log.Debugf("replan: keeping schedule %s", sch.Ref)
		}
	}

	for i := range slots {
		slot := &slots[i]
		s.slots[slot.Start] = slot

		switch slot.Mode {
		case model.ModeNormal:
			// Device default, no entry needed.
			continue
		case model.ModeHotWaterBoost:
			// No supported device-side representation; tracked for
			// observability only.
			s.log.Debugf("hot water boost %s has no device schedule", slot)
			continue
		}

		if existingH, ok := s.handlers[slot.Start]; ok {
			s.log.Infof("handler already exists for start time %s: %s", slot.Start, existingH.Ref)
			slot.Handler = existingH
			ev.Conflicts++
			continue
		}

		sch, err := s.scheduleFor(*slot)
		if err != nil {
			return ev, err
		}
		ref, err := s.dev.CreateSchedule(sch)
		if err != nil {
			s.log.Errorf("create schedule for %s: %v", slot, err)
			ev.Failures++
			continue
		}
		h := &model.ScheduleHandler{Start: slot.Start, End: slot.End, Ref: ref}
		s.handlers[slot.Start] = h
		slot.Handler = h
		ev.Created++
		s.log.Infof("installed %s schedule %s from %s to %s",
			slot.Mode, ref, slot.Start.Format("15:04"), slot.End.Format("15:04"))
	}
	return ev, nil
}

// scheduleFor maps a non-default slot onto a device calendar entry.
func (s *Scheduler) scheduleFor(slot model.StrategySlot) (model.Schedule, error) {
	sch := model.Schedule{Start: slot.Start, End: slot.End}
	switch slot.Mode {
	case model.ModeEVUBlock:
		sch.Function = model.FunctionEVUMode
	case model.ModeHotWaterBlock:
		sch.Function = model.FunctionHotWaterBlock
	case model.ModeReducedHeat:
		sch.Function = model.FunctionHeatingEffect
		sch.Value = s.cfg.ReducedHeatTemperature
	case model.ModeIncreasedHeat:
		sch.Function = model.FunctionHeatingEffect
		sch.Value = s.cfg.IncreasedHeatTemperature
	default:
		return model.Schedule{}, &model.UnknownModeError{Value: slot.Mode.String()}
	}
	return sch, nil
}

// purgeExpired drops tracked slots and handlers whose end time has passed.
// Runs on every invocation, admitted or not.
func (s *Scheduler) purgeExpired(now time.Time) {
	for start, slot := range s.slots {
		if slot.End.Before(now) {
			delete(s.slots, start)
			s.log.Debugf("removed expired strategy slot starting %s", start)
		}
	}
	for start, h := range s.handlers {
		if h.End.Before(now) {
			delete(s.handlers, start)
			s.log.Debugf("removed expired handler starting %s", start)
		}
	}
}

// Shutdown removes every schedule the scheduler installed on the device.
func (s *Scheduler) Shutdown() {
	for start, h := range s.handlers {
		if err := s.dev.DeleteSchedule(h.Ref); err != nil {
			s.log.Errorf("shutdown: delete schedule for handler at %s: %v", start, err)
			continue
		}
		s.log.Infof("shutdown: deleted schedule for handler starting at %s", start)
	}
	s.handlers = make(map[time.Time]*model.ScheduleHandler)
}

// publishState mirrors handlers, slots and the price summary to the
// telemetry sink. Best effort: failures are logged and never abort the pass.
func (s *Scheduler) publishState(f model.Forecast) {
	pub := func(topic string, value any) {
		if err := s.sink.Publish(topic, value); err != nil {
			s.log.Warnf("telemetry publish %s: %v", topic, err)
		}
	}

	handlersPrefix := topicBase + "handlers/"
	if err := s.sink.DeleteSubtree(handlersPrefix); err != nil {
		s.log.Warnf("telemetry delete %s: %v", handlersPrefix, err)
	}
	for i, h := range s.sortedHandlers() {
		topic := fmt.Sprintf("%s%d", handlersPrefix, i)
		pub(topic, fmt.Sprintf("%s-%s-%s",
			h.Start.Format("2006-01-02_15:04"), h.End.Format("15:04"), h.Ref))
		pub(topic+"/start_time", h.Start.Format("2006-01-02 15:04"))
		pub(topic+"/end_time", h.End.Format("2006-01-02 15:04"))
		pub(topic+"/schedule_ref", string(h.Ref))
	}

	slotsPrefix := topicBase + "strategies/"
	if err := s.sink.DeleteSubtree(slotsPrefix); err != nil {
		s.log.Warnf("telemetry delete %s: %v", slotsPrefix, err)
	}
	for i, slot := range s.Slots() {
		topic := fmt.Sprintf("%s%d", slotsPrefix, i)
		pub(topic, slot.Start.Format("2006-01-02 15:04")+":"+slot.Mode.String())
		pub(topic+"/mode", slot.Mode.String())
		pub(topic+"/price", slot.Price)
		pub(topic+"/consumption", slot.Consumption)
		pub(topic+"/start_time", slot.Start.Format("2006-01-02 15:04"))
		pub(topic+"/end_time", slot.End.Format("2006-01-02 15:04"))
		if slot.Handler != nil {
			pub(topic+"/handler", string(slot.Handler.Ref))
		}
	}

	summary := planner.SummarizePrices(f.Price[:f.Hours()])
	pub(topicBase+"prices/mean", summary.Mean)
	pub(topicBase+"prices/std_dev", summary.StdDev)
	pub(topicBase+"prices/min", summary.Min)
	pub(topicBase+"prices/max", summary.Max)
}

// PublishConfig exports the strategy parameters to the telemetry sink as an
// explicit field list.
func (s *Scheduler) PublishConfig() {
	prefix := topicBase + "config/"
	values := []struct {
		key   string
		value any
	}{
		{"min_price_for_evu_block", s.cfg.MinPriceForEVUBlock},
		{"max_evu_block_hours", s.cfg.MaxEVUBlockHours},
		{"max_evu_block_duration", s.cfg.MaxEVUBlockDuration},
		{"min_price_for_hot_water_block", s.cfg.MinPriceForHotWaterBlock},
		{"max_hot_water_block_hours", s.cfg.MaxHotWaterBlockHours},
		{"max_hot_water_block_duration", s.cfg.MaxHotWaterBlockDuration},
		{"min_price_for_reduced_heat", s.cfg.MinPriceForReducedHeat},
		{"max_reduced_heat_hours", s.cfg.MaxReducedHeatHours},
		{"max_reduced_heat_duration", s.cfg.MaxReducedHeatDuration},
		{"reduced_heat_temperature", s.cfg.ReducedHeatTemperature},
		{"max_price_for_increased_heat", s.cfg.MaxPriceForIncreasedHeat},
		{"min_energy_surplus_for_increased_heat", s.cfg.MinSurplusForIncreasedHeat},
		{"max_increased_heat_hours", s.cfg.MaxIncreasedHeatHours},
		{"max_increased_heat_duration", s.cfg.MaxIncreasedHeatDuration},
		{"increased_heat_temperature", s.cfg.IncreasedHeatTemperature},
		{"max_increased_heat_outdoor_temperature", s.cfg.MaxIncreasedHeatOutdoorTemperature},
		{"min_energy_surplus_for_hot_water_boost", s.cfg.MinSurplusForHotWaterBoost},
		{"max_hot_water_boost_hours", s.cfg.MaxHotWaterBoostHours},
	}
	for _, v := range values {
		if err := s.sink.Publish(prefix+v.key, v.value); err != nil {
			s.log.Warnf("telemetry publish %s: %v", prefix+v.key, err)
		}
	}
}

func (s *Scheduler) sortedHandlers() []model.ScheduleHandler {
	out := make([]model.ScheduleHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (s *Scheduler) recordCycle(planned bool) {
	if err := s.rec.RecordCycle(planned); err != nil {
		s.log.Warnf("record cycle: %v", err)
	}
}

func countModeHours(modes []model.Mode) map[model.Mode]int {
	out := make(map[model.Mode]int)
	for _, m := range modes {
		out[m]++
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
