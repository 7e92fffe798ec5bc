package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/ticklist/internal/state"
)

const maxBackoff = 5 * time.Minute

// StartPoller launches a background goroutine that reloads the store from
// its backend every interval, backing off while loads keep failing. Local
// edits survive each reload. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := store.Load(ctx); err != nil {
				failures++
				if logger != nil {
					logger.Printf("background reload failed (%d in a row): %v", failures, err)
				}
			} else {
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	wait := interval
	for range failures {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
