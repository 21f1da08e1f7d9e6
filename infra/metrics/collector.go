package metrics

import (
	"context"

	"github.com/kilianp07/dingo/core/events"
	coremetrics "github.com/kilianp07/dingo/core/metrics"
	"github.com/kilianp07/dingo/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records pass summaries.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.PassRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if e, ok := ev.(events.PassEvent); ok {
					_ = rec.RecordPass(coremetrics.PassSummary{
						Dataset:  e.Dataset,
						Phase:    string(e.Phase),
						Found:    e.Found,
						Emitted:  e.Emitted,
						Dropped:  e.Dropped,
						Failed:   e.Failed,
						Duration: e.Duration(),
						Time:     e.Finished,
					})
				}
			}
		}
	}()
}
