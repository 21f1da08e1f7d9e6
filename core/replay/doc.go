// Package replay decides when each dataset record is emitted.
//
// Batch shifts every record by a whole number of days and emits it with an
// explicit timestamp until the shifted time catches up with now. Realtime
// picks a starting record and then emits the following ones spaced by their
// original deltas. Planner finds the record that bridges the two, so that a
// batch run ends where a realtime run starts.
//
// Dataset timestamps are naive wall-clock values; every comparison with the
// current time goes through model.Naive. Each run opens its own cursor on the
// source and keeps no state between runs.
package replay
