package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kilianp07/dingo/core/clock"
	"github.com/kilianp07/dingo/core/logger"
	"github.com/kilianp07/dingo/core/metrics"
	"github.com/kilianp07/dingo/core/model"
)

// ErrMalformedRecord is reported when a record has a field that is not numeric.
var ErrMalformedRecord = errors.New("malformed record")

// Sink is the capability the replayers emit through. Implementations must not
// fail past this boundary.
type Sink interface {
	// SendAt emits fields with an explicit naive wall-clock timestamp.
	SendAt(ctx context.Context, fields []model.Field, ts time.Time)
	// SendNow emits fields and lets the collector assign the receipt time.
	SendNow(ctx context.Context, fields []model.Field)
}

// Stats counts what a client did with the records it was given.
type Stats struct {
	Sent    int
	Dropped int
	Failed  int
}

// Sub returns the difference s - o.
func (s Stats) Sub(o Stats) Stats {
	return Stats{Sent: s.Sent - o.Sent, Dropped: s.Dropped - o.Dropped, Failed: s.Failed - o.Failed}
}

type counters struct {
	sent, dropped, failed atomic.Int64
}

// Client implements Sink over a Transport.
type Client struct {
	transport Transport
	name      string
	dataset   string
	phase     string
	log       logger.Logger
	metrics   metrics.MetricsSink
	clock     clock.Clock
	stats     *counters
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for drop and delivery warnings.
func WithLogger(l logger.Logger) Option { return func(c *Client) { c.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.MetricsSink) Option { return func(c *Client) { c.metrics = m } }

// WithClock sets the clock used for receipt times and latency.
func WithClock(cl clock.Clock) Option { return func(c *Client) { c.clock = cl } }

// WithDataset sets the dataset name attached to metrics.
func WithDataset(name string) Option { return func(c *Client) { c.dataset = name } }

// NewClient returns a Client delivering through t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		name:      TransportName(t),
		log:       nopLogger{},
		metrics:   metrics.NopSink{},
		clock:     clock.Real{},
		stats:     &counters{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ForPhase returns a view of c that labels its metrics with phase. Views
// share the transport and the counters.
func (c *Client) ForPhase(phase string) *Client {
	cp := *c
	cp.phase = phase
	return &cp
}

// SendAt implements Sink.
func (c *Client) SendAt(ctx context.Context, fields []model.Field, ts time.Time) {
	ms := model.Local(ts).UnixMilli()
	c.send(ctx, fields, &ms, ts)
}

// SendNow implements Sink.
func (c *Client) SendNow(ctx context.Context, fields []model.Field) {
	c.send(ctx, fields, nil, time.Time{})
}

func (c *Client) send(ctx context.Context, fields []model.Field, ms *int64, ts time.Time) {
	values, err := model.Values(fields)
	if err != nil {
		c.stats.dropped.Add(1)
		c.log.Warnf("dropping record: %v", fmt.Errorf("%w: %v", ErrMalformedRecord, err))
		_ = c.recordDrop(err.Error())
		return
	}
	p := Payload{Event: values, Timestamp: ms}
	if lc, ok := c.log.(logger.LevelChecker); !ok || lc.DebugEnabled() {
		c.log.Debugw("sending payload", map[string]any{"transport": c.name, "event": p.Event, "timestamp": p.Timestamp})
	}

	start := c.clock.Now()
	if err := c.transport.Deliver(ctx, p); err != nil {
		c.stats.failed.Add(1)
		c.log.Errorf("delivery via %s failed: %v", c.name, err)
		if r, ok := c.metrics.(metrics.DeliveryErrorRecorder); ok {
			_ = r.RecordDeliveryError(metrics.DeliveryErrorEvent{
				Dataset: c.dataset, Phase: c.phase, Transport: c.name, Error: err.Error(), Time: start,
			})
		}
		return
	}
	end := c.clock.Now()
	c.stats.sent.Add(1)
	rec := ts
	if ms == nil {
		rec = model.Naive(start)
	}
	_ = c.metrics.RecordEmission(metrics.EmissionEvent{
		Dataset: c.dataset, Phase: c.phase, Record: rec, Explicit: ms != nil, Latency: end.Sub(start), Time: end,
	})
}

func (c *Client) recordDrop(reason string) error {
	r, ok := c.metrics.(metrics.DropRecorder)
	if !ok {
		return nil
	}
	return r.RecordDrop(metrics.DropEvent{Dataset: c.dataset, Phase: c.phase, Reason: reason, Time: c.clock.Now()})
}

// Stats returns the counters accumulated by c and all its phase views.
func (c *Client) Stats() Stats {
	return Stats{
		Sent:    int(c.stats.sent.Load()),
		Dropped: int(c.stats.dropped.Load()),
		Failed:  int(c.stats.failed.Load()),
	}
}

// Close closes the transport.
func (c *Client) Close() error { return c.transport.Close() }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
func (nopLogger) DebugEnabled() bool            { return false }
