package replay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/ingest"
)

const (
	DefaultPauseEvery    = 1000
	DefaultPauseDuration = 300 * time.Second
)

// StopReason tells why a batch run returned.
type StopReason string

const (
	StopEOF      StopReason = "eof"
	StopCaughtUp StopReason = "caught_up"
	StopCap      StopReason = "max_entries"
	StopHandoff  StopReason = "handoff"
)

// BatchConfig controls batch pacing.
type BatchConfig struct {
	// Delay is waited after every emitted record.
	Delay time.Duration
	// PauseEvery triggers a PauseDuration wait after that many emissions.
	// Zero selects DefaultPauseEvery, a negative value disables pauses.
	PauseEvery    int
	PauseDuration time.Duration
	// MaxEntries caps the number of emitted records when positive.
	MaxEntries int
	// Until, when set, stops the run before the first record whose original
	// timestamp is not before it. A realtime run starting at Until then
	// picks up exactly where the batch left off.
	Until time.Time
}

func (c *BatchConfig) setDefaults() {
	if c.PauseEvery == 0 {
		c.PauseEvery = DefaultPauseEvery
	}
	if c.PauseDuration == 0 {
		c.PauseDuration = DefaultPauseDuration
	}
}

// BatchResult summarizes a batch run. Emitted counts records handed to the
// sink; Skipped counts rows the reader could not parse.
type BatchResult struct {
	Offset  Offset
	Emitted int
	Skipped int
	First   time.Time
	Last    time.Time
	Reason  StopReason
}

// Batch replays a dataset shifted by a day offset, as fast as its pacing allows.
type Batch struct {
	src  dataset.Source
	sink ingest.Sink
	cfg  BatchConfig
	rt   runtime
}

// NewBatch returns a batch replayer.
func NewBatch(src dataset.Source, sink ingest.Sink, cfg BatchConfig, opts ...Option) *Batch {
	cfg.setDefaults()
	return &Batch{src: src, sink: sink, cfg: cfg, rt: newRuntime(opts)}
}

// Run emits every record whose shifted timestamp lies strictly before now, in
// file order, stopping early at cfg.Until. A record whose shift changes its
// weekday or hour aborts the run with ErrMisalignedOffset.
func (b *Batch) Run(ctx context.Context, off Offset) (BatchResult, error) {
	res := BatchResult{Offset: off}
	cur, err := b.src.Open()
	if err != nil {
		return res, err
	}
	defer func() { _ = cur.Close() }()

	b.rt.log.Infof("batch replay started with offset %s", off)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := cur.Next()
		if errors.Is(err, io.EOF) {
			res.Reason = StopEOF
			break
		}
		if skippable(err) {
			b.rt.log.Warnf("skipping row: %v", err)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}

		if !b.cfg.Until.IsZero() && !rec.Timestamp.Before(b.cfg.Until) {
			res.Reason = StopHandoff
			break
		}
		shifted := off.Apply(rec.Timestamp)
		if !shifted.Before(b.rt.now()) {
			res.Reason = StopCaughtUp
			break
		}
		if err := off.Check(rec.Timestamp, shifted); err != nil {
			return res, err
		}

		b.sink.SendAt(ctx, rec.Fields, shifted)
		if res.Emitted == 0 {
			res.First = shifted
		}
		res.Emitted++
		res.Last = shifted

		if b.cfg.MaxEntries > 0 && res.Emitted >= b.cfg.MaxEntries {
			res.Reason = StopCap
			break
		}
		if b.cfg.Delay > 0 {
			if err := b.rt.clock.Sleep(ctx, b.cfg.Delay); err != nil {
				return res, err
			}
		}
		if b.cfg.PauseEvery > 0 && res.Emitted%b.cfg.PauseEvery == 0 {
			b.rt.log.Infof("batch: %d records sent, last %s, pausing %s", res.Emitted, res.Last.Format(time.DateTime), b.cfg.PauseDuration)
			if err := b.rt.clock.Sleep(ctx, b.cfg.PauseDuration); err != nil {
				return res, err
			}
		}
	}

	if res.Emitted > 0 {
		b.rt.log.Infof("batch replay done (%s): %d records, last ingested %s", res.Reason, res.Emitted, res.Last.Format(time.DateTime))
	} else {
		b.rt.log.Infof("batch replay done (%s): nothing to send", res.Reason)
	}
	return res, nil
}
