// Package retry bounds outbound gateway calls: a fixed budget of attempts
// with jittered exponential backoff between them.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config configures retry behavior.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultConfig allows a single retry with a short jittered backoff, keeping
// worst-case latency for one call close to two attempts plus one delay.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 1,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
	}
}

// Do executes fn until it succeeds, the attempt budget is spent, or the
// context is cancelled. Backoff delays are jittered by up to 50% to avoid
// synchronized retries.
func Do(ctx context.Context, config *Config, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(config.BaseDelay) *
				pow(config.Multiplier, float64(attempt-1)))
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return fmt.Errorf("retry aborted: %w", lastErr)
			}
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
