package metrics

// Package metrics defines the interfaces used to observe a replay. Sinks
// record emissions, and optionally drops, delivery failures and pass
// summaries, and can be combined with NewMultiSink. NewMetricsSink returns a
// MultiSink automatically when multiple sinks are configured.
