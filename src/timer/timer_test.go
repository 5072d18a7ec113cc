package timer

import (
	"context"
	"testing"
	"time"
)

func startTimer(t *testing.T, dwell time.Duration) (chan bool, chan Action) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tm := time.NewTimer(time.Hour)
	tm.Stop()
	timeout := make(chan bool, 1)
	action := make(chan Action)
	go Run(ctx, dwell, tm, timeout, action)
	return timeout, action
}

func TestTimerExpiresAfterDwell(t *testing.T) {
	timeout, action := startTimer(t, 20*time.Millisecond)
	action <- Start
	select {
	case <-timeout:
	case <-time.After(time.Second):
		t.Fatal("timer never expired")
	}
}

func TestTimerStopCancelsExpiry(t *testing.T) {
	timeout, action := startTimer(t, 20*time.Millisecond)
	action <- Start
	action <- Stop
	select {
	case <-timeout:
		t.Fatal("timer expired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerRestartRearmsFullDwell(t *testing.T) {
	timeout, action := startTimer(t, 60*time.Millisecond)
	action <- Start
	time.Sleep(40 * time.Millisecond)
	action <- Start

	select {
	case <-timeout:
		t.Fatal("timer expired before the rearmed dwell elapsed")
	case <-time.After(40 * time.Millisecond):
	}
	select {
	case <-timeout:
	case <-time.After(time.Second):
		t.Fatal("rearmed timer never expired")
	}
}
