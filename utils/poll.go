package utils

import (
	"context"
	"time"
)

// Poll calls check up to attempts times, waiting interval between calls,
// until it reports done. It returns false when every attempt came back not
// done. An error from check stops polling immediately.
//
// Usage:
//
//	ok, err := utils.Poll(ctx, 2, 15*time.Second, func() (bool, error) {
//	    n, err := countListings(ctx)
//	    return n > 0, err
//	})
func Poll(ctx context.Context, attempts int, interval time.Duration, check func() (bool, error)) (bool, error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}

		if attempt < attempts {
			Debug("Check %d/%d not satisfied, waiting %v", attempt, attempts, interval)
			if err := Sleep(ctx, interval); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}
