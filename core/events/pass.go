package events

import "time"

// Phase names the replay strategy that produced an event.
type Phase string

const (
	PhaseBatch    Phase = "batch"
	PhaseRealtime Phase = "realtime"
	PhaseAlign    Phase = "align"
)

// PassEvent is published when a batch or realtime pass returns.
type PassEvent struct {
	ID        string
	Dataset   string
	Mode      string
	Phase     Phase
	Found     bool
	Emitted   int
	Dropped   int
	Failed    int
	Discarded int
	First     time.Time
	Last      time.Time
	Started   time.Time
	Finished  time.Time
	Reason    string
	Err       error
}

// Duration returns how long the pass ran.
func (e PassEvent) Duration() time.Duration { return e.Finished.Sub(e.Started) }
