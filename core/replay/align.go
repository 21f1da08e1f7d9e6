package replay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kilianp07/dingo/core/dataset"
)

const day = 24 * time.Hour

// maxLookback bounds the distance of an acceptable alignment point.
const maxLookback = 1000 * day

// ErrNoAlignment is returned when no record matches the current weekday,
// hour and minute in the past.
var ErrNoAlignment = errors.New("no alignment point in dataset")

// Plan is the handoff between a batch and a realtime run.
type Plan struct {
	// Start is the record the realtime run starts from.
	Start time.Time
	// Delta is the distance between now and Start.
	Delta      time.Duration
	OffsetDays int
	Scanned    int
	Candidates int
}

// Offset returns the batch offset for the plan.
func (p Plan) Offset() Offset { return Offset{Days: p.OffsetDays} }

// Planner finds the alignment point of a dataset.
type Planner struct {
	src dataset.Source
	rt  runtime
}

// NewPlanner returns a planner reading src.
func NewPlanner(src dataset.Source, opts ...Option) *Planner {
	return &Planner{src: src, rt: newRuntime(opts)}
}

// Plan scans the dataset once. A record is a candidate when it lies before
// now on the same weekday with an hour and minute not after the current ones.
// The scan keeps the closest candidate and stops at the first candidate that
// is not closer than the best so far.
func (p *Planner) Plan(ctx context.Context) (Plan, error) {
	var plan Plan
	cur, err := p.src.Open()
	if err != nil {
		return plan, err
	}
	defer func() { _ = cur.Close() }()

	now := p.rt.now()
	best := maxLookback
	found := false
	for {
		if err := ctx.Err(); err != nil {
			return plan, err
		}
		rec, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if skippable(err) {
			continue
		}
		if err != nil {
			return plan, err
		}
		plan.Scanned++
		ts := rec.Timestamp
		if ts.Weekday() != now.Weekday() || ts.Hour() > now.Hour() || ts.Minute() > now.Minute() || !ts.Before(now) {
			continue
		}
		plan.Candidates++
		d := now.Sub(ts)
		if d >= best {
			break
		}
		best = d
		plan.Start = ts
		found = true
	}
	if !found {
		return plan, ErrNoAlignment
	}
	plan.Delta = best
	plan.OffsetDays = offsetDays(best)
	p.rt.log.Infof("alignment point %s, %d days back (%d candidates in %d rows)",
		plan.Start.Format(time.DateTime), plan.OffsetDays, plan.Candidates, plan.Scanned)
	return plan, nil
}

// offsetDays floors d to whole days. A candidate sharing the current minute
// but with later seconds sits just under a whole number of weeks; the result
// is then rounded up to the next week so the offset keeps the weekday.
func offsetDays(d time.Duration) int {
	days := int(d / day)
	if r := days % 7; r != 0 {
		days += 7 - r
	}
	return days
}
