package replay

import (
	"errors"
	"math/rand"
	"time"

	"github.com/kilianp07/dingo/core/clock"
	"github.com/kilianp07/dingo/core/dataset"
	"github.com/kilianp07/dingo/core/logger"
	"github.com/kilianp07/dingo/core/model"
)

type runtime struct {
	clock clock.Clock
	log   logger.Logger
	rand  *rand.Rand
}

// Option configures the collaborators of a replayer.
type Option func(*runtime)

// WithClock sets the clock used for now and for every wait.
func WithClock(c clock.Clock) Option { return func(r *runtime) { r.clock = c } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(r *runtime) { r.log = l } }

// WithRand sets the random source used by randomized admission.
func WithRand(rnd *rand.Rand) Option { return func(r *runtime) { r.rand = rnd } }

func newRuntime(opts []Option) runtime {
	rt := runtime{clock: clock.Real{}, log: nopLogger{}}
	for _, o := range opts {
		o(&rt)
	}
	if rt.rand == nil {
		rt.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rt
}

func (rt runtime) now() time.Time { return model.Naive(rt.clock.Now()) }

// skippable reports whether err only concerns the current row.
func skippable(err error) bool { return errors.Is(err, dataset.ErrMalformedRow) }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
