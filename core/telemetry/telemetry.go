package telemetry

// Sink publishes planner state for observability. Implementations are
// best-effort: failures are logged by the caller and never abort a planning
// pass.
type Sink interface {
	// Publish writes value under topic, replacing any previous value.
	Publish(topic string, value any) error
	// DeleteSubtree removes every previously published topic below prefix.
	DeleteSubtree(prefix string) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Publish(string, any) error  { return nil }
func (NopSink) DeleteSubtree(string) error { return nil }
