package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"liftsim/src/elevator"
	"liftsim/src/logger"
	"liftsim/src/types"
)

// The built-in demo: a down call while idle, two up calls submitted as the
// car passes floor 3, and cab targets pressed as the doors open. Serves
// floors 5, 8, 15, 11, 9, 0 and 2 with two direction reversals.
const walkthroughScript = "down9,up5@a3,up2@a3,cab8@o5,down15@o8,cab11@o15,cab0@o9"

const scenarioDeadline = 2 * time.Minute

// step is one scripted submission. Steps without a trigger fire before the
// car starts working; the rest fire on the first matching event.
type step struct {
	kind  types.RequestKind
	dir   types.Direction
	floor int

	trigger *types.Event
}

// parseScenario reads a comma-separated script. Each token is up<floor>,
// down<floor> or cab<floor>, optionally suffixed with @a<floor> (fire on
// arrival) or @o<floor> (fire when the doors open).
func parseScenario(script string) ([]step, error) {
	var steps []step
	for _, token := range strings.Split(script, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		head, trig, hasTrigger := strings.Cut(token, "@")

		var st step
		switch {
		case strings.HasPrefix(head, "up"):
			st.kind, st.dir, head = types.HallCall, types.DirUp, head[len("up"):]
		case strings.HasPrefix(head, "down"):
			st.kind, st.dir, head = types.HallCall, types.DirDown, head[len("down"):]
		case strings.HasPrefix(head, "cab"):
			st.kind, head = types.CabCall, head[len("cab"):]
		default:
			return nil, fmt.Errorf("scenario token %q: expected up, down or cab", token)
		}
		floor, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("scenario token %q: bad floor: %w", token, err)
		}
		st.floor = floor

		if hasTrigger {
			if len(trig) < 2 {
				return nil, fmt.Errorf("scenario token %q: bad trigger", token)
			}
			at, err := strconv.Atoi(trig[1:])
			if err != nil {
				return nil, fmt.Errorf("scenario token %q: bad trigger floor: %w", token, err)
			}
			switch trig[0] {
			case 'a':
				st.trigger = &types.Event{Kind: types.EventArrived, Floor: at}
			case 'o':
				st.trigger = &types.Event{Kind: types.EventDoorsOpened, Floor: at}
			default:
				return nil, fmt.Errorf("scenario token %q: trigger must be a<floor> or o<floor>", token)
			}
		}
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty scenario")
	}
	return steps, nil
}

// runScenario drives a parsed script against the car, waits for it to fall
// idle and prints the full event log.
func runScenario(ctx context.Context, eng *elevator.Elevator, script string) error {
	if script == "walkthrough" {
		script = walkthroughScript
	}
	steps, err := parseScenario(script)
	if err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := eng.Subscribe(subCtx)
	reactorDone := make(chan struct{})
	go func() {
		defer close(reactorDone)
		fired := make([]bool, len(steps))
		for ev := range events {
			for i := range steps {
				st := steps[i]
				if fired[i] || st.trigger == nil {
					continue
				}
				if ev.Kind == st.trigger.Kind && ev.Floor == st.trigger.Floor {
					fired[i] = true
					submitStep(eng, st)
				}
			}
		}
	}()

	for _, st := range steps {
		if st.trigger == nil {
			submitStep(eng, st)
		}
	}

	if err := waitIdle(ctx, eng); err != nil {
		return err
	}
	cancel()
	<-reactorDone

	for _, ev := range eng.Events() {
		fmt.Println(ev)
	}
	return nil
}

func submitStep(eng *elevator.Elevator, st step) {
	var err error
	if st.kind == types.CabCall {
		_, err = eng.SubmitCabCall(st.floor)
	} else {
		_, err = eng.SubmitHallCall(st.floor, st.dir)
	}
	if err != nil {
		logger.GetLogger().Warn().Err(err).Int("floor", st.floor).Msg("scenario submission rejected")
	}
}

func waitIdle(ctx context.Context, eng *elevator.Elevator) error {
	deadline := time.After(scenarioDeadline)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("scenario did not finish within %v", scenarioDeadline)
		case <-tick.C:
			if evs := eng.Events(); len(evs) > 0 && evs[len(evs)-1].Kind == types.EventHalted {
				return fmt.Errorf("car halted: %s", evs[len(evs)-1].Err)
			}
			st := eng.State()
			if st.Behaviour == types.Idle && st.Pending == 0 {
				return nil
			}
		}
	}
}
