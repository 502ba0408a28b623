package udpsock

import (
	"context"
	"time"
)

// SleepFor blocks the calling goroutine for ms milliseconds.
// It is meant for pacing a Receive polling loop.
func SleepFor(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
