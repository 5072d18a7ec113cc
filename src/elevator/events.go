package elevator

import (
	"context"
	"sync"

	"liftsim/src/types"
)

// eventLog is the append-only record of everything the car did. Appends
// come from the control loop only; snapshots and subscriptions are safe
// from any goroutine.
type eventLog struct {
	mu     sync.Mutex
	events []types.Event
	notify chan struct{}
}

func newEventLog() *eventLog {
	return &eventLog{notify: make(chan struct{})}
}

func (l *eventLog) append(ev types.Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	close(l.notify)
	l.notify = make(chan struct{})
	l.mu.Unlock()
}

// from returns a copy of the events at index i and beyond. When nothing
// has landed past i yet it instead returns a channel that closes on the
// next append.
func (l *eventLog) from(i int) ([]types.Event, <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < len(l.events) {
		return append([]types.Event(nil), l.events[i:]...), nil
	}
	return nil, l.notify
}

// Events returns a copy of the full event log so far.
func (e *Elevator) Events() []types.Event {
	evs, _ := e.log.from(0)
	return evs
}

// Subscribe streams the event log from the beginning: the recorded
// history replays first, live events follow. Every subscription starts
// over at the first event regardless of when it is taken out. The channel
// closes after the terminal halt event or when ctx is cancelled.
func (e *Elevator) Subscribe(ctx context.Context) <-chan types.Event {
	out := make(chan types.Event, 16)
	go func() {
		defer close(out)
		i := 0
		for {
			evs, notify := e.log.from(i)
			for _, ev := range evs {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				i++
				if ev.Kind == types.EventHalted {
					return
				}
			}
			if notify == nil {
				continue
			}
			select {
			case <-notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
