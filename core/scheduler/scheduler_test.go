package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/heatctl/heatctl/core/metrics"
	"github.com/heatctl/heatctl/core/model"
	"github.com/heatctl/heatctl/core/planner"
)

type fakeDevice struct {
	connected  bool
	outdoor    float64
	outdoorErr error

	nextID    int
	schedules map[model.ScheduleRef]model.Schedule
	created   int
	deleted   int
	failRefs  map[model.ScheduleRef]bool
	createErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		connected: true,
		outdoor:   5,
		schedules: make(map[model.ScheduleRef]model.Schedule),
		failRefs:  make(map[model.ScheduleRef]bool),
	}
}

func (d *fakeDevice) Connected() bool { return d.connected }

func (d *fakeDevice) ListSchedules() ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(d.schedules))
	for ref, sch := range d.schedules {
		sch.Ref = ref
		out = append(out, sch)
	}
	return out, nil
}

func (d *fakeDevice) CreateSchedule(sch model.Schedule) (model.ScheduleRef, error) {
	if d.createErr != nil {
		return "", d.createErr
	}
	d.nextID++
	ref := model.ScheduleRef(fmt.Sprintf("sch-%d", d.nextID))
	d.schedules[ref] = sch
	d.created++
	return ref, nil
}

func (d *fakeDevice) DeleteSchedule(ref model.ScheduleRef) error {
	if d.failRefs[ref] {
		return errors.New("device rejected delete")
	}
	delete(d.schedules, ref)
	d.deleted++
	return nil
}

func (d *fakeDevice) OutdoorTemperature() (float64, error) {
	if d.outdoorErr != nil {
		return 0, d.outdoorErr
	}
	return d.outdoor, nil
}

type recordingSink struct {
	cycles     []bool
	plans      []metrics.PlanEvent
	reconciles []metrics.ReconcileEvent
}

func (r *recordingSink) RecordPlan(ev metrics.PlanEvent) error { r.plans = append(r.plans, ev); return nil }
func (r *recordingSink) RecordReconcile(ev metrics.ReconcileEvent) error {
	r.reconciles = append(r.reconciles, ev)
	return nil
}
func (r *recordingSink) RecordCycle(planned bool) error { r.cycles = append(r.cycles, planned); return nil }

func testConfig() planner.Config {
	return planner.Config{
		MinPriceForEVUBlock:      0.6,
		MaxEVUBlockHours:         1,
		MaxEVUBlockDuration:      6,
		MinPriceForHotWaterBlock: 0.4,
		MaxHotWaterBlockHours:    10,
		MaxHotWaterBlockDuration: 4,
		MinPriceForReducedHeat:   0.3,
		MaxReducedHeatHours:      14,
		MaxReducedHeatDuration:   6,
		ReducedHeatTemperature:   20,
		IncreasedHeatTemperature: 22,
	}
}

var testNow = time.Date(2026, 1, 10, 6, 30, 0, 0, time.UTC)

func testForecast(hours int) model.Forecast {
	prices := []float64{0.1, 0.7, 0.65, 0.2, 0.15, 0.25}
	net := []float64{500, 500, 500, 500, 500, 500}
	return model.Forecast{
		Start:          testNow.Truncate(time.Hour),
		Price:          prices[:hours],
		NetConsumption: net[:hours],
	}
}

func newTestScheduler(dev *fakeDevice, rec metrics.Sink) *Scheduler {
	s := New(dev, testConfig(), nil, rec, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func TestPlanInstallsSchedules(t *testing.T) {
	dev := newFakeDevice()
	rec := &recordingSink{}
	s := newTestScheduler(dev, rec)

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}

	hourStart := testNow.Truncate(time.Hour)
	if !s.PlannedUntil().Equal(hourStart.Add(4 * time.Hour)) {
		t.Fatalf("watermark %s, want %s", s.PlannedUntil(), hourStart.Add(4*time.Hour))
	}
	// One EVU block hour and one hot water block hour need device entries.
	if dev.created != 2 {
		t.Fatalf("created %d schedules, want 2", dev.created)
	}
	slots := s.Slots()
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	if !slots[0].Start.Equal(hourStart) || !slots[3].End.Equal(hourStart.Add(4*time.Hour)) {
		t.Fatalf("slots do not tile the window: %v", slots)
	}
	if slots[1].Mode != model.ModeEVUBlock || slots[1].Handler == nil {
		t.Fatalf("evu slot not installed: %+v", slots[1])
	}
	if slots[0].Mode != model.ModeNormal || slots[0].Handler != nil {
		t.Fatalf("normal slot must not carry a handler: %+v", slots[0])
	}

	sch := dev.schedules[slots[1].Handler.Ref]
	if sch.Function != model.FunctionEVUMode {
		t.Fatalf("evu schedule function %v", sch.Function)
	}
	if len(rec.plans) != 1 || rec.plans[0].SlotCount != 4 {
		t.Fatalf("plan event not recorded: %+v", rec.plans)
	}
	if len(rec.cycles) != 1 || !rec.cycles[0] {
		t.Fatalf("cycle not recorded as planned: %v", rec.cycles)
	}
}

func TestPlanIsIdempotentWithinHorizon(t *testing.T) {
	dev := newFakeDevice()
	rec := &recordingSink{}
	s := newTestScheduler(dev, rec)

	f := testForecast(4)
	if err := s.Plan(f); err != nil {
		t.Fatalf("first plan: %v", err)
	}
	created, deleted := dev.created, dev.deleted

	if err := s.Plan(f); err != nil {
		t.Fatalf("second plan: %v", err)
	}
	if dev.created != created || dev.deleted != deleted {
		t.Fatalf("replan within horizon mutated the device: created %d->%d deleted %d->%d",
			created, dev.created, deleted, dev.deleted)
	}
	if len(rec.cycles) != 2 || rec.cycles[1] {
		t.Fatalf("second cycle must be recorded as skipped: %v", rec.cycles)
	}
}

func TestPlanReplansOnLongerHorizon(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("first plan: %v", err)
	}
	if err := s.Plan(testForecast(6)); err != nil {
		t.Fatalf("second plan: %v", err)
	}

	hourStart := testNow.Truncate(time.Hour)
	if !s.PlannedUntil().Equal(hourStart.Add(6 * time.Hour)) {
		t.Fatalf("watermark %s after extended forecast", s.PlannedUntil())
	}
	// The replan rebuilds the window from scratch without duplicates.
	if len(dev.schedules) != 2 {
		t.Fatalf("device holds %d schedules, want 2: %v", len(dev.schedules), dev.schedules)
	}
	slots := s.Slots()
	if !slots[len(slots)-1].End.Equal(hourStart.Add(6 * time.Hour)) {
		t.Fatalf("slots do not reach the new horizon: %v", slots)
	}
}

func TestPlanSkipsWhenDisconnected(t *testing.T) {
	dev := newFakeDevice()
	dev.connected = false
	rec := &recordingSink{}
	s := newTestScheduler(dev, rec)

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if dev.created != 0 {
		t.Fatalf("disconnected device must not be written to")
	}
	if !s.PlannedUntil().IsZero() {
		t.Fatalf("watermark must not advance: %s", s.PlannedUntil())
	}
	if len(rec.cycles) != 1 || rec.cycles[0] {
		t.Fatalf("cycle must be recorded as skipped: %v", rec.cycles)
	}
}

func TestPlanSkipsEmptyForecast(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	if err := s.Plan(model.Forecast{Start: testNow}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if dev.created != 0 || !s.PlannedUntil().IsZero() {
		t.Fatalf("empty forecast must not plan")
	}
}

func TestReconcileRemovesForeignSchedules(t *testing.T) {
	dev := newFakeDevice()
	hourStart := testNow.Truncate(time.Hour)
	// Untracked entry inside the window, one already expired, one beyond the
	// horizon.
	dev.schedules["foreign"] = model.Schedule{
		Start: hourStart.Add(time.Hour), End: hourStart.Add(2 * time.Hour), Function: model.FunctionEVUMode,
	}
	dev.schedules["expired"] = model.Schedule{
		Start: hourStart.Add(-5 * time.Hour), End: hourStart.Add(-2 * time.Hour), Function: model.FunctionEVUMode,
	}
	dev.schedules["future"] = model.Schedule{
		Start: hourStart.Add(48 * time.Hour), End: hourStart.Add(50 * time.Hour), Function: model.FunctionEVUMode,
	}

	s := newTestScheduler(dev, &recordingSink{})
	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}

	if _, ok := dev.schedules["foreign"]; ok {
		t.Fatal("conflicting schedule inside the window must be deleted")
	}
	if _, ok := dev.schedules["expired"]; ok {
		t.Fatal("expired schedule must be deleted")
	}
	if _, ok := dev.schedules["future"]; !ok {
		t.Fatal("schedule beyond the horizon must be kept")
	}
}

func TestReconcileExpiresSchedulesEndingMidHour(t *testing.T) {
	dev := newFakeDevice()
	hourStart := testNow.Truncate(time.Hour)
	// Both start before the window. One ended before now, one is still
	// running into the rest of the hour.
	dev.schedules["ended"] = model.Schedule{
		Start: hourStart.Add(-3 * time.Hour), End: hourStart.Add(15 * time.Minute), Function: model.FunctionEVUMode,
	}
	dev.schedules["running"] = model.Schedule{
		Start: hourStart.Add(-3 * time.Hour), End: hourStart.Add(45 * time.Minute), Function: model.FunctionEVUMode,
	}

	s := newTestScheduler(dev, &recordingSink{})
	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}

	if _, ok := dev.schedules["ended"]; ok {
		t.Fatal("schedule ended before now must be deleted")
	}
	if _, ok := dev.schedules["running"]; !ok {
		t.Fatal("schedule still running must be kept")
	}
}

func TestReconcileKeepsHandlersOutsideWindow(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	// A handler from an earlier pass that started before the current hour
	// and is still running.
	hourStart := testNow.Truncate(time.Hour)
	ref, err := dev.CreateSchedule(model.Schedule{
		Start: hourStart.Add(-2 * time.Hour), End: hourStart.Add(2 * time.Hour), Function: model.FunctionEVUMode,
	})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	s.handlers[hourStart.Add(-2*time.Hour)] = &model.ScheduleHandler{
		Start: hourStart.Add(-2 * time.Hour), End: hourStart.Add(2 * time.Hour), Ref: ref,
	}

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, ok := s.handlers[hourStart.Add(-2*time.Hour)]; !ok {
		t.Fatal("running handler that started before the window must stay tracked")
	}
	if _, ok := dev.schedules[ref]; !ok {
		t.Fatal("schedule started before the window must stay on the device")
	}
}

func TestReconcileConflictReusesHandler(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("first plan: %v", err)
	}
	// Make the installed handlers undeletable, then force a replan.
	for _, h := range s.handlers {
		dev.failRefs[h.Ref] = true
	}
	before := len(dev.schedules)

	if err := s.Plan(testForecast(6)); err != nil {
		t.Fatalf("second plan: %v", err)
	}
	if len(dev.schedules) != before {
		t.Fatalf("conflicting starts must not create duplicates: %d -> %d", before, len(dev.schedules))
	}
	for _, slot := range s.Slots() {
		if slot.Mode == model.ModeEVUBlock && slot.Handler == nil {
			t.Fatalf("surviving handler must be reattached: %+v", slot)
		}
	}
}

func TestHotWaterBoostSlotHasNoDeviceEntry(t *testing.T) {
	dev := newFakeDevice()
	rec := &recordingSink{}
	cfg := planner.DefaultConfig()
	s := New(dev, cfg, nil, rec, nil)
	s.now = func() time.Time { return testNow }

	// Hour 1 carries a 3 kW surplus, enough to trigger a boost.
	f := model.Forecast{
		Start:          testNow.Truncate(time.Hour),
		Price:          []float64{0.25, 0.25, 0.25},
		NetConsumption: []float64{500, -3000, 500},
	}
	if err := s.Plan(f); err != nil {
		t.Fatalf("plan: %v", err)
	}

	hourStart := testNow.Truncate(time.Hour)
	var boost *model.StrategySlot
	for _, slot := range s.Slots() {
		if slot.Mode == model.ModeHotWaterBoost {
			sl := slot
			boost = &sl
		}
	}
	if boost == nil {
		t.Fatalf("boost slot not tracked: %v", s.Slots())
	}
	if !boost.Start.Equal(hourStart.Add(time.Hour)) {
		t.Fatalf("boost slot starts %s", boost.Start)
	}
	if boost.Handler != nil {
		t.Fatalf("boost slot must not carry a handler: %+v", boost)
	}
	if dev.created != 0 || len(dev.schedules) != 0 {
		t.Fatalf("boost must not create device schedules: %v", dev.schedules)
	}
	if len(rec.reconciles) != 1 || rec.reconciles[0].Created != 0 {
		t.Fatalf("unexpected mutations recorded: %+v", rec.reconciles)
	}
}

func TestPlanOutdoorReadFailureDisablesIncreasedHeat(t *testing.T) {
	dev := newFakeDevice()
	dev.outdoorErr = errors.New("sensor offline")
	cfg := planner.DefaultConfig()
	s := New(dev, cfg, nil, nil, nil)
	s.now = func() time.Time { return testNow }

	f := model.Forecast{
		Start:          testNow.Truncate(time.Hour),
		Price:          []float64{0.05, 0.05},
		NetConsumption: []float64{500, 500},
	}
	if err := s.Plan(f); err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, slot := range s.Slots() {
		if slot.Mode == model.ModeIncreasedHeat {
			t.Fatalf("increased heat must be disabled without a temperature reading: %+v", slot)
		}
	}
	if s.PlannedUntil().IsZero() {
		t.Fatal("pass must still be admitted")
	}
}

func TestPurgeExpiredSlots(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}
	slots := len(s.Slots())
	if slots != 4 {
		t.Fatalf("got %d slots", slots)
	}

	// Two hours later the first two slots are over.
	later := testNow.Add(2 * time.Hour)
	s.now = func() time.Time { return later }
	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, slot := range s.Slots() {
		if slot.End.Before(later) {
			t.Fatalf("expired slot survived the purge: %+v", slot)
		}
	}
}

func TestShutdownDeletesHandlers(t *testing.T) {
	dev := newFakeDevice()
	s := newTestScheduler(dev, &recordingSink{})

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(dev.schedules) == 0 {
		t.Fatal("expected installed schedules")
	}

	s.Shutdown()
	if len(dev.schedules) != 0 {
		t.Fatalf("shutdown left %d schedules on the device", len(dev.schedules))
	}
	if len(s.handlers) != 0 {
		t.Fatalf("shutdown left %d tracked handlers", len(s.handlers))
	}
}

func TestCreateFailureIsAbsorbed(t *testing.T) {
	dev := newFakeDevice()
	dev.createErr = errors.New("device busy")
	rec := &recordingSink{}
	s := newTestScheduler(dev, rec)

	if err := s.Plan(testForecast(4)); err != nil {
		t.Fatalf("create failures must not abort the pass: %v", err)
	}
	if len(rec.reconciles) != 1 || rec.reconciles[0].Failures == 0 {
		t.Fatalf("failures not recorded: %+v", rec.reconciles)
	}
	hourStart := testNow.Truncate(time.Hour)
	if !s.PlannedUntil().Equal(hourStart.Add(4 * time.Hour)) {
		t.Fatalf("watermark must still advance, got %s", s.PlannedUntil())
	}
}
