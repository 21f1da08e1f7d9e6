// Package events defines the replay events published on the event bus.
//
// Available event types:
//   - PhaseEvent: the orchestrator entered a new phase
//   - AlignEvent: the alignment planner picked a handoff point
//   - PassEvent: a replay pass finished
package events
