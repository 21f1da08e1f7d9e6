package replay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/ingest"
	"github.com/kilianp07/dingo/core/model"
)

// DefaultProgressEvery is the number of rows between two progress lines.
const DefaultProgressEvery = 500

// RealtimeConfig controls how a realtime run picks its start.
type RealtimeConfig struct {
	// RandomStart admits the start record with a probability growing
	// linearly over the file instead of matching weekday and hour.
	RandomStart   bool
	ProgressEvery int
}

// RealtimeResult summarizes a realtime run. When Found is false, First is
// the first record of the dataset and callers may retry with it as an
// explicit start.
type RealtimeResult struct {
	Found     bool
	First     time.Time
	Last      time.Time
	Emitted   int
	Discarded int
	Skipped   int
}

// Realtime replays a dataset live, spaced by the original record deltas.
type Realtime struct {
	src  dataset.Source
	sink ingest.Sink
	cfg  RealtimeConfig
	rt   runtime
}

// NewRealtime returns a realtime replayer.
func NewRealtime(src dataset.Source, sink ingest.Sink, cfg RealtimeConfig, opts ...Option) *Realtime {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	return &Realtime{src: src, sink: sink, cfg: cfg, rt: newRuntime(opts)}
}

// Run scans for the start record and emits it and every later record.
// With a start, live emission begins at the first record whose timestamp
// equals it. Without one, the start is discovered from the current weekday
// and hour, or randomly when configured.
func (r *Realtime) Run(ctx context.Context, start *time.Time) (RealtimeResult, error) {
	var res RealtimeResult
	total := 0
	if start == nil && r.cfg.RandomStart {
		n, err := dataset.Count(r.src)
		if err != nil {
			return res, err
		}
		total = n
	}

	cur, err := r.src.Open()
	if err != nil {
		return res, err
	}
	defer func() { _ = cur.Close() }()

	var (
		live      bool
		seen      int
		processed int
		prev      time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		processed++
		if processed%r.cfg.ProgressEvery == 0 {
			r.rt.log.Infof("realtime: %d rows processed, %d discarded, %d sent", processed, res.Discarded, res.Emitted)
		}
		if skippable(err) {
			r.rt.log.Warnf("skipping row: %v", err)
			res.Skipped++
			if !live {
				seen++
			}
			continue
		}
		if err != nil {
			return res, err
		}
		if res.First.IsZero() {
			res.First = rec.Timestamp
		}

		if !live {
			if !r.admit(rec, start, seen, total) {
				seen++
				res.Discarded++
				continue
			}
			live = true
			res.Found = true
			res.First = rec.Timestamp
			r.rt.log.Infof("realtime replay starting at %s", rec.Timestamp.Format(time.DateTime))
		} else {
			wait := rec.Timestamp.Sub(prev).Truncate(time.Second)
			if wait < 0 {
				wait = 0
			}
			if err := r.rt.clock.Sleep(ctx, wait); err != nil {
				return res, err
			}
		}
		r.sink.SendNow(ctx, rec.Fields)
		res.Emitted++
		res.Last = rec.Timestamp
		prev = rec.Timestamp
	}
	return res, nil
}

func (r *Realtime) admit(rec model.Record, start *time.Time, seen, total int) bool {
	if start != nil {
		return rec.Timestamp.Equal(*start)
	}
	if r.cfg.RandomStart {
		if total <= 0 {
			return true
		}
		return r.rt.rand.Float64() < float64(seen+1)/float64(total)
	}
	now := r.rt.now()
	return rec.Timestamp.Weekday() == now.Weekday() && rec.Timestamp.Hour() == now.Hour()
}
