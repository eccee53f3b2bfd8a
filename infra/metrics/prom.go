package metrics

import (
	"math"
	"strconv"

	coremetrics "github.com/heatctl/heatctl/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	cycles    *prometheus.CounterVec
	mutations *prometheus.CounterVec
	modeHours *prometheus.GaugeVec
	horizon   prometheus.Gauge
	outdoor   prometheus.Gauge
	slots     prometheus.Gauge
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_cycles_total",
		Help: "Total number of planning cycles",
	}, []string{"planned"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_schedule_mutations_total",
		Help: "Device schedule mutations performed during reconciliation",
	}, []string{"kind"})
	modeHours := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_mode_hours",
		Help: "Hours assigned to each operating mode in the last plan",
	}, []string{"mode"})
	horizon := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_horizon_timestamp_seconds",
		Help: "End of the last planned horizon as a unix timestamp",
	})
	outdoor := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_outdoor_temperature_celsius",
		Help: "Outdoor temperature used by the last planning pass",
	})
	slots := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_strategy_slots",
		Help: "Number of strategy slots produced by the last plan",
	})

	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(mutations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			mutations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(modeHours); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			modeHours = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(horizon); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			horizon = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(outdoor); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outdoor = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(slots); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			slots = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		cycles:    cycles,
		mutations: mutations,
		modeHours: modeHours,
		horizon:   horizon,
		outdoor:   outdoor,
		slots:     slots,
	}, nil
}

// RecordPlan publishes the per-mode hour totals and horizon of a plan.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	for mode, hours := range ev.ModeHours {
		s.modeHours.WithLabelValues(mode.String()).Set(float64(hours))
	}
	s.horizon.Set(float64(ev.Horizon.Unix()))
	s.slots.Set(float64(ev.SlotCount))
	if !math.IsNaN(ev.OutdoorTemperature) && !math.IsInf(ev.OutdoorTemperature, 0) {
		s.outdoor.Set(ev.OutdoorTemperature)
	}
	return nil
}

// RecordReconcile counts the schedule mutations of a reconciliation pass.
func (s *PromSink) RecordReconcile(ev coremetrics.ReconcileEvent) error {
	s.mutations.WithLabelValues("created").Add(float64(ev.Created))
	s.mutations.WithLabelValues("deleted").Add(float64(ev.Deleted))
	s.mutations.WithLabelValues("conflict").Add(float64(ev.Conflicts))
	s.mutations.WithLabelValues("failure").Add(float64(ev.Failures))
	return nil
}

// RecordCycle increments the cycle counter.
func (s *PromSink) RecordCycle(planned bool) error {
	s.cycles.WithLabelValues(strconv.FormatBool(planned)).Inc()
	return nil
}
