// Restartable countdown used for the door dwell.
package timer

import (
	"context"
	"time"

	"liftsim/src/logger"
)

type Action int

const (
	Start Action = iota
	Stop
)

// Run drives a restartable timer until ctx is cancelled. Start arms it
// for the full dwell (rearming if already armed), Stop disarms it, and
// every expiry is reported on timeout. The caller owns the underlying
// timer and should hand it over stopped.
func Run(ctx context.Context, dwell time.Duration, t *time.Timer, timeout chan<- bool, action <-chan Action) {
	for {
		select {
		case a := <-action:
			switch a {
			case Start:
				reset(t, dwell)
			case Stop:
				t.Stop()
			}
		case <-t.C:
			timeout <- true
			logger.GetLogger().Debug().Msg("door timer expired")
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

// Stops the timer and rearms it, draining a pending expiry first.
func reset(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
