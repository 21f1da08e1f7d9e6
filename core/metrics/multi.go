package metrics

// MultiSink fans events out to multiple sinks. Optional recorder interfaces
// are only forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEmission forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordEmission(ev EmissionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordEmission(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDrop forwards drop events.
func (m *MultiSink) RecordDrop(ev DropEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DropRecorder); ok {
			if err := rec.RecordDrop(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDeliveryError forwards delivery failures.
func (m *MultiSink) RecordDeliveryError(ev DeliveryErrorEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DeliveryErrorRecorder); ok {
			if err := rec.RecordDeliveryError(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPass forwards pass summaries.
func (m *MultiSink) RecordPass(ev PassSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PassRecorder); ok {
			if err := rec.RecordPass(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
