package checkout

import (
	"context"
	"time"
)

// computeBackoff doubles initial per attempt and caps the result at max.
func computeBackoff(initial, max time.Duration, attempt int) time.Duration {
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}
	if max <= 0 {
		max = 5 * time.Second
	}
	if attempt > 30 {
		return max
	}

	backoff := initial * (1 << uint(attempt))
	if backoff > max || backoff <= 0 {
		return max
	}
	return backoff
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
