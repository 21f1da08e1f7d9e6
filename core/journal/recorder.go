package journal

import (
	"context"

	"github.com/kilianp07/dingo/core/events"
	"github.com/kilianp07/dingo/core/logger"
	"github.com/kilianp07/dingo/internal/eventbus"
)

// StartRecorder appends every PassEvent published on bus to store. The
// returned channel is closed once the recorder stopped, which happens when
// ctx is done or the bus is closed. Events still queued when the bus closes
// are written first.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(events.PassEvent)
				if !ok {
					continue
				}
				if err := store.Append(context.Background(), FromEvent(e)); err != nil && log != nil {
					log.Errorf("journal append failed: %v", err)
				}
			}
		}
	}()
	return done
}
