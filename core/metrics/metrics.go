package metrics

import "time"

// EmissionEvent describes a record handed to the transport.
type EmissionEvent struct {
	Dataset string
	Phase   string
	// Record is the timestamp carried by the payload, or the receipt time
	// for records sent without an explicit timestamp.
	Record   time.Time
	Explicit bool
	Latency  time.Duration
	Time     time.Time
}

// MetricsSink records emissions for observability purposes.
type MetricsSink interface {
	RecordEmission(ev EmissionEvent) error
}

// DropEvent is reported when a record is discarded before delivery.
type DropEvent struct {
	Dataset string
	Phase   string
	Reason  string
	Time    time.Time
}

// DropRecorder records dropped records.
type DropRecorder interface {
	RecordDrop(ev DropEvent) error
}

// DeliveryErrorEvent is reported when the transport fails to deliver a record.
type DeliveryErrorEvent struct {
	Dataset   string
	Phase     string
	Transport string
	Error     string
	Time      time.Time
}

// DeliveryErrorRecorder records failed deliveries.
type DeliveryErrorRecorder interface {
	RecordDeliveryError(ev DeliveryErrorEvent) error
}

// PassSummary captures the outcome of one replay pass.
type PassSummary struct {
	Dataset  string
	Phase    string
	Found    bool
	Emitted  int
	Dropped  int
	Failed   int
	Duration time.Duration
	Time     time.Time
}

// PassRecorder records finished passes.
type PassRecorder interface {
	RecordPass(ev PassSummary) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEmission(EmissionEvent) error           { return nil }
func (NopSink) RecordDrop(DropEvent) error                   { return nil }
func (NopSink) RecordDeliveryError(DeliveryErrorEvent) error { return nil }
func (NopSink) RecordPass(PassSummary) error                 { return nil }
