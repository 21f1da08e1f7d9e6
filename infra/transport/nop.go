package transport

import (
	"context"
	"sync/atomic"

	"github.com/kilianp07/dingo/core/ingest"
	"github.com/kilianp07/dingo/infra/logger"
)

// Nop discards every payload. It backs emulation runs.
type Nop struct {
	count atomic.Int64
	log   logger.Logger
}

// NewNop returns a discarding transport.
func NewNop() *Nop { return &Nop{log: logger.New("nop_transport")} }

// Name implements ingest.Named.
func (n *Nop) Name() string { return "nop" }

// Deliver counts p and drops it.
func (n *Nop) Deliver(_ context.Context, p ingest.Payload) error {
	n.count.Add(1)
	n.log.Debugf("emulated delivery of %d values", len(p.Event))
	return nil
}

// Count returns the number of discarded payloads.
func (n *Nop) Count() int64 { return n.count.Load() }

// Close is a no-op.
func (n *Nop) Close() error { return nil }
