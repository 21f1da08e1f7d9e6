package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dingo/core/metrics"
)

// PromSink records replay events in Prometheus metrics.
type PromSink struct {
	emitted  *prometheus.CounterVec
	dropped  prometheus.Counter
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	passes   *prometheus.CounterVec
	last     *prometheus.GaugeVec
}

// NewPromSink registers replay metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dingo_records_emitted_total",
			Help: "Records delivered to the collector",
		}, []string{"dataset", "phase"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dingo_records_dropped_total",
			Help: "Records dropped because a value was not numeric",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dingo_delivery_errors_total",
			Help: "Records the transport failed to deliver",
		}, []string{"transport"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dingo_delivery_latency_seconds",
			Help:    "Time spent delivering one record",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dingo_replay_passes_total",
			Help: "Finished replay passes",
		}, []string{"phase", "found"}),
		last: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dingo_last_emitted_timestamp_seconds",
			Help: "Timestamp carried by the last emitted record",
		}, []string{"dataset"}),
	}
	var err error
	if s.emitted, err = register(reg, s.emitted); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, s.dropped); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.passes, err = register(reg, s.passes); err != nil {
		return nil, err
	}
	if s.last, err = register(reg, s.last); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEmission counts the record and tracks its timestamp.
func (s *PromSink) RecordEmission(ev coremetrics.EmissionEvent) error {
	s.emitted.WithLabelValues(ev.Dataset, ev.Phase).Inc()
	s.latency.WithLabelValues(ev.Phase).Observe(ev.Latency.Seconds())
	if !ev.Record.IsZero() {
		s.last.WithLabelValues(ev.Dataset).Set(float64(ev.Record.Unix()))
	}
	return nil
}

// RecordDrop counts a dropped record.
func (s *PromSink) RecordDrop(coremetrics.DropEvent) error {
	s.dropped.Inc()
	return nil
}

// RecordDeliveryError counts a failed delivery.
func (s *PromSink) RecordDeliveryError(ev coremetrics.DeliveryErrorEvent) error {
	s.failures.WithLabelValues(ev.Transport).Inc()
	return nil
}

// RecordPass counts a finished pass.
func (s *PromSink) RecordPass(ev coremetrics.PassSummary) error {
	s.passes.WithLabelValues(ev.Phase, strconv.FormatBool(ev.Found)).Inc()
	return nil
}
