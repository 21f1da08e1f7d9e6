// Package app wires a configured dataset to its transport, metrics and
// journal, and runs the replay graph selected by the dataset mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dingo/config"
	"github.com/kilianp07/dingo/core/clock"
	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/events"
	"github.com/kilianp07/dingo/core/ingest"
	"github.com/kilianp07/dingo/core/journal"
	coremetrics "github.com/kilianp07/dingo/core/metrics"
	"github.com/kilianp07/dingo/core/monitoring"
	"github.com/kilianp07/dingo/core/replay"
	"github.com/kilianp07/dingo/infra/logger"
	"github.com/kilianp07/dingo/infra/metrics"
	"github.com/kilianp07/dingo/infra/transport"
	"github.com/kilianp07/dingo/internal/eventbus"
)

// eventBuffer is the queue length of the metrics and journal subscribers.
const eventBuffer = 64

// DeliveryMode tells whether records reach the configured transport or are
// discarded after going through the whole replay.
type DeliveryMode int

const (
	// DeliverLive sends through the configured transport.
	DeliverLive DeliveryMode = iota
	// DeliverEmulated replaces the transport with a discarding one.
	DeliverEmulated
)

func (d DeliveryMode) String() string {
	if d == DeliverEmulated {
		return "emulated"
	}
	return "live"
}

// DeliveryFor returns the delivery mode implied by a replay mode.
func DeliveryFor(m config.Mode) DeliveryMode {
	if m == config.ModeEmulate {
		return DeliverEmulated
	}
	return DeliverLive
}

type options struct {
	clock     clock.Clock
	transport ingest.Transport
	log       logger.Logger
	bus       eventbus.EventBus
	sink      coremetrics.MetricsSink
	store     journal.Store
	rand      *rand.Rand
	delivery  *DeliveryMode
}

// Option overrides a collaborator of the service.
type Option func(*options)

// WithClock sets the clock used for pacing and timestamps.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithTransport bypasses the transport registry.
func WithTransport(t ingest.Transport) Option { return func(o *options) { o.transport = t } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// WithBus sets the event bus. The service closes it on Close.
func WithBus(b eventbus.EventBus) Option { return func(o *options) { o.bus = b } }

// WithMetrics bypasses the metrics sink registry.
func WithMetrics(s coremetrics.MetricsSink) Option { return func(o *options) { o.sink = s } }

// WithJournal sets the pass journal.
func WithJournal(s journal.Store) Option { return func(o *options) { o.store = s } }

// WithRand sets the random source of random-start realtime passes.
func WithRand(r *rand.Rand) Option { return func(o *options) { o.rand = r } }

// WithDelivery overrides the delivery mode implied by the dataset mode.
func WithDelivery(d DeliveryMode) Option { return func(o *options) { o.delivery = &d } }

// Service replays one dataset.
type Service struct {
	name     string
	ds       config.DatasetConfig
	mode     config.Mode
	delivery DeliveryMode

	src       dataset.Source
	client    *ingest.Client
	transport string
	clock     clock.Clock
	log       logger.Logger
	bus       eventbus.EventBus
	sink      coremetrics.MetricsSink
	store     journal.Store
	rand      *rand.Rand

	promEnabled bool
	promPort    string

	cancel      context.CancelFunc
	journalDone <-chan struct{}
}

// New validates ds and builds the service. Configuration problems such as a
// missing input file, a missing time column or an unknown transport are
// returned here, before anything is sent.
func New(cfg *config.Config, name string, ds config.DatasetConfig, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	ds.SetDefaults()
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	mode := ds.Mode
	delivery := DeliveryFor(mode)
	if o.delivery != nil {
		delivery = *o.delivery
	}

	src, err := dataset.NewFile(ds.InputFile, dataset.Options{
		Delimiter:  ds.Delimiter,
		TimeColumn: ds.DateColumn,
		TimeFormat: ds.DateFormat,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		name:        name,
		ds:          ds,
		mode:        mode,
		delivery:    delivery,
		src:         src,
		clock:       o.clock,
		log:         o.log,
		bus:         o.bus,
		sink:        o.sink,
		store:       o.store,
		rand:        o.rand,
		promEnabled: cfg.Metrics.PrometheusEnabled() && o.sink == nil,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if s.bus == nil {
		s.bus = eventbus.NewWithBuffer(eventBuffer)
	}

	tr := o.transport
	switch {
	case tr != nil:
	case delivery == DeliverEmulated:
		tr = transport.NewNop()
	default:
		tr, err = transport.New(transport.WithDefaults(cfg.Transport, ds.URL, ds.APIKey))
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
	}
	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			_ = tr.Close()
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.store == nil {
		if s.store, err = journal.Open(cfg.Journal); err != nil {
			_ = tr.Close()
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	s.transport = ingest.TransportName(tr)
	s.client = ingest.NewClient(tr,
		ingest.WithLogger(logger.New("ingest")),
		ingest.WithMetrics(s.sink),
		ingest.WithClock(s.clock),
		ingest.WithDataset(name),
	)

	// Collectors outlive Run so that Close can flush the last pass.
	bg, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	metrics.StartEventCollector(bg, s.bus, s.sink)
	s.journalDone = journal.StartRecorder(bg, s.bus, s.store, logger.New("journal"))
	return s, nil
}

// Mode returns the replay mode of the service.
func (s *Service) Mode() config.Mode { return s.mode }

// Delivery returns the delivery mode of the service.
func (s *Service) Delivery() DeliveryMode { return s.delivery }

// Stats returns the delivery counters accumulated so far.
func (s *Service) Stats() ingest.Stats { return s.client.Stats() }

// Run executes the dataset mode. Batch returns when the replay is done; the
// other modes run until ctx is cancelled, which is not an error.
func (s *Service) Run(ctx context.Context) error {
	s.log.Infof("processing %s (%s) in %s mode, %s delivery via %s",
		s.name, s.ds.InputFile, s.mode, s.delivery, s.transport)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	var err error
	switch s.mode {
	case config.ModeBatch:
		_, err = s.batch(ctx, replay.Offset{}, time.Time{})
	case config.ModeRealtime:
		err = s.realtimeLoop(ctx)
	case config.ModeBoth, config.ModeEmulate:
		err = s.both(ctx)
	default:
		err = fmt.Errorf("%w %q", config.ErrUnknownMode, s.mode)
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		s.log.Infof("replay of %s stopped: %v", s.name, ctx.Err())
		return nil
	}
	if errors.Is(err, replay.ErrMisalignedOffset) {
		monitoring.CaptureException(err, map[string]string{"dataset": s.name, "mode": string(s.mode)})
	}
	return err
}

func (s *Service) both(ctx context.Context) error {
	plan, err := s.plan(ctx)
	if errors.Is(err, replay.ErrNoAlignment) {
		s.log.Warnf("%v: falling back to realtime replay", err)
		return s.realtimeLoop(ctx)
	}
	if err != nil {
		return err
	}
	s.log.Infof("adding %d days to every record", plan.OffsetDays)
	if _, err := s.batch(ctx, plan.Offset(), plan.Start); err != nil {
		return err
	}
	start := plan.Start
	if _, err := s.realtime(ctx, &start); err != nil {
		return err
	}
	return s.realtimeLoop(ctx)
}

// realtimeLoop runs realtime passes forever. A pass that finds no start
// record is retried from the first record of the dataset.
func (s *Service) realtimeLoop(ctx context.Context) error {
	for {
		res, err := s.realtime(ctx, nil)
		if err != nil {
			return err
		}
		if !res.Found {
			s.log.Warnf("no adequate start record found for realtime replay")
			if !res.First.IsZero() {
				s.log.Warnf("forcing realtime replay to start at %s", res.First.Format(time.DateTime))
				first := res.First
				if _, err := s.realtime(ctx, &first); err != nil {
					return err
				}
			}
		}
		s.log.Infof("restarting realtime replay in %s", s.ds.Cooldown())
		if err := s.clock.Sleep(ctx, s.ds.Cooldown()); err != nil {
			return err
		}
	}
}

func (s *Service) plan(ctx context.Context) (replay.Plan, error) {
	s.publishPhase(events.PhaseAlign)
	plan, err := replay.NewPlanner(s.src, replay.WithClock(s.clock), replay.WithLogger(logger.New("planner"))).Plan(ctx)
	if err != nil {
		return plan, err
	}
	s.bus.Publish(events.AlignEvent{
		Dataset:    s.name,
		Start:      plan.Start,
		OffsetDays: plan.OffsetDays,
		Scanned:    plan.Scanned,
		Candidates: plan.Candidates,
		Time:       s.clock.Now(),
	})
	return plan, nil
}

// batch runs one batch pass. A non-zero until hands off to a realtime pass
// starting at that record.
func (s *Service) batch(ctx context.Context, off replay.Offset, until time.Time) (replay.BatchResult, error) {
	s.publishPhase(events.PhaseBatch)
	cfg := replay.BatchConfig{
		Delay:         s.ds.SleepDuration(),
		PauseEvery:    s.ds.PauseEvery,
		PauseDuration: time.Duration(s.ds.PauseSeconds) * time.Second,
		MaxEntries:    s.ds.MaxEntries,
		Until:         until,
	}
	sink := s.client.ForPhase(string(events.PhaseBatch))
	b := replay.NewBatch(s.src, sink, cfg, replay.WithClock(s.clock), replay.WithLogger(logger.New("batch")))

	before, started := s.client.Stats(), s.clock.Now()
	res, err := b.Run(ctx, off)
	ev := s.pass(events.PhaseBatch, started, before, err)
	ev.Found = true
	ev.Emitted = res.Emitted
	ev.Dropped += res.Skipped
	ev.First, ev.Last = res.First, res.Last
	ev.Reason = string(res.Reason)
	s.bus.Publish(ev)
	return res, err
}

func (s *Service) realtime(ctx context.Context, start *time.Time) (replay.RealtimeResult, error) {
	s.publishPhase(events.PhaseRealtime)
	opts := []replay.Option{replay.WithClock(s.clock), replay.WithLogger(logger.New("realtime"))}
	if s.rand != nil {
		opts = append(opts, replay.WithRand(s.rand))
	}
	sink := s.client.ForPhase(string(events.PhaseRealtime))
	r := replay.NewRealtime(s.src, sink, replay.RealtimeConfig{RandomStart: s.ds.RandomStart}, opts...)

	before, started := s.client.Stats(), s.clock.Now()
	res, err := r.Run(ctx, start)
	ev := s.pass(events.PhaseRealtime, started, before, err)
	ev.Found = res.Found
	ev.Emitted = res.Emitted
	ev.Dropped += res.Skipped
	ev.Discarded = res.Discarded
	ev.First, ev.Last = res.First, res.Last
	if start != nil {
		ev.Reason = "explicit_start"
	}
	s.bus.Publish(ev)
	return res, err
}

func (s *Service) pass(phase events.Phase, started time.Time, before ingest.Stats, err error) events.PassEvent {
	delta := s.client.Stats().Sub(before)
	return events.PassEvent{
		ID:       uuid.NewString(),
		Dataset:  s.name,
		Mode:     string(s.mode),
		Phase:    phase,
		Dropped:  delta.Dropped,
		Failed:   delta.Failed,
		Started:  started,
		Finished: s.clock.Now(),
		Err:      err,
	}
}

func (s *Service) publishPhase(p events.Phase) {
	s.bus.Publish(events.PhaseEvent{Dataset: s.name, Mode: string(s.mode), Phase: p, Time: s.clock.Now()})
}

// Close stops the collectors once the pending events are handled, then
// releases the journal, the metrics sink and the transport.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.journalDone:
	case <-time.After(5 * time.Second):
		s.log.Warnf("journal recorder did not stop in time")
	}
	s.cancel()

	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("journal: %w", err))
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if err := s.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("transport: %w", err))
	}
	return errors.Join(errs...)
}
