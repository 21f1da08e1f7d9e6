package events

import "time"

// PhaseEvent is emitted when the orchestrator starts a phase.
type PhaseEvent struct {
	Dataset string
	Mode    string
	Phase   Phase
	Time    time.Time
}

// AlignEvent reports the handoff point chosen for a combined run.
type AlignEvent struct {
	Dataset    string
	Start      time.Time
	OffsetDays int
	Scanned    int
	Candidates int
	Time       time.Time
}
