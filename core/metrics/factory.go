package metrics

import (
	"fmt"

	"github.com/kilianp07/dingo/core/factory"
)

// sinks holds the metrics sink types a dingo configuration may name under
// metrics.sinks. infra/metrics registers nop, prometheus and influx.
var sinks = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to NewMetricsSink.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered sink types, sorted.
func SinkTypes() []string { return sinks.Names() }

// NewMetricsSink builds the sinks of the metrics section. No entry yields a
// NopSink, one entry its sink, several a MultiSink fanning out in order.
// Errors name the offending entry.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	built := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			return nil, fmt.Errorf("metrics.sinks[%d]: %w", i, err)
		}
		built = append(built, s)
	}
	switch len(built) {
	case 0:
		return NopSink{}, nil
	case 1:
		return built[0], nil
	}
	return NewMultiSink(built...), nil
}
