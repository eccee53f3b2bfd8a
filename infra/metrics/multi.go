package metrics

import coremetrics "github.com/heatctl/heatctl/core/metrics"

// MultiSink fanouts planning events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordPlan(ev coremetrics.PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReconcile forwards reconciliation outcomes.
func (m *MultiSink) RecordReconcile(ev coremetrics.ReconcileEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReconcile(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycle forwards loop invocations.
func (m *MultiSink) RecordCycle(planned bool) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycle(planned); err != nil {
			return err
		}
	}
	return nil
}
