package ingest

import (
	"context"
	"time"
)

// Payload is the body delivered for one record. It encodes as
// {"event":{...},"timestamp":ms}; the timestamp is omitted for records sent
// without an explicit time.
type Payload struct {
	Event     map[string]float64 `json:"event"`
	Timestamp *int64             `json:"timestamp,omitempty"`
}

// Time returns the explicit timestamp of the payload, if any.
func (p Payload) Time() (time.Time, bool) {
	if p.Timestamp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*p.Timestamp), true
}

// Transport delivers payloads to a collector.
type Transport interface {
	Deliver(ctx context.Context, p Payload) error
	Close() error
}

// Named is implemented by transports that report a name for logs and metrics.
type Named interface {
	Name() string
}

// TransportName returns the name of t, or "unknown".
func TransportName(t Transport) string {
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
