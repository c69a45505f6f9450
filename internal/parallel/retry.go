package parallel

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/narratext/narratext/constants"
)

// HTTPStatusError is implemented by transport errors that carry an HTTP
// status code, so retry classification does not depend on any client package.
type HTTPStatusError interface {
	error
	HTTPStatus() int
}

// RetryConfig tunes Retry. Zero values use the defaults.
type RetryConfig struct {
	// Retries is the number of additional attempts after the first.
	Retries int
	// BaseDelay scales linearly with the attempt number.
	BaseDelay time.Duration
	// Jitter is the random backoff ceiling. Zero means the default;
	// negative disables jitter (tests).
	Jitter time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = constants.DefaultBaseDelay
	}
	if c.Jitter == 0 {
		c.Jitter = constants.RetryJitterCeiling
	}
	return c
}

// Transient reports whether an error is worth retrying: rate limiting (429),
// server-side failures (>=500), and anything that is not an HTTP error at
// all (network resets, decode failures upstream of classification).
// Cancellation and other HTTP statuses are permanent.
func Transient(err error) bool {
	if IsCancellation(err) {
		return false
	}
	var se HTTPStatusError
	if errors.As(err, &se) {
		status := se.HTTPStatus()
		return status == 429 || status >= 500
	}
	return true
}

// IsCancellation reports whether err is context cancellation or expiry.
// Cancellation always propagates regardless of retry state.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Retry runs op, retrying transient failures with linear backoff plus
// jitter. Permanent errors and cancellation re-raise immediately; exhausted
// retries re-raise the last error.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !Transient(err) || attempt == cfg.Retries {
			break
		}
		delay := cfg.BaseDelay * time.Duration(attempt+1)
		if cfg.Jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(cfg.Jitter)))
		}
		if err := Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// Sleep waits for d or until ctx fires, whichever comes first. A fired
// context turns the wait into an immediate cancellation failure.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
