package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig controls redelivery of a single payload. Zero retries means
// one attempt.
type RetryConfig struct {
	MaxRetries int `json:"max_retries"`
	BackoffMS  int `json:"backoff_ms"`
}

// maxBackoff caps the wait between two attempts.
const maxBackoff = 30 * time.Second

func (c RetryConfig) backoff() time.Duration {
	if c.BackoffMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// wait returns the backoff doubled attempt times, capped at maxBackoff.
func (c RetryConfig) wait(attempt int) time.Duration {
	d := c.backoff()
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// retry runs fn until it succeeds, fails permanently or runs out of
// attempts. The wait doubles after each failure and observes ctx.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if isPermanent(err) || attempt == cfg.MaxRetries {
			break
		}
		timer := time.NewTimer(cfg.wait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
