// Single-car control. One goroutine owns the hardware and walks the car
// between idle, moving and door-open, one floor per step with a fresh
// policy decision between steps. Submissions land in the shared request
// set from any goroutine and nudge the loop awake; every externally
// visible transition is appended to the event log.
package elevator

import (
	"context"
	"errors"
	"sync"
	"time"

	"liftsim/src/config"
	"liftsim/src/logger"
	"liftsim/src/requests"
	"liftsim/src/sched"
	"liftsim/src/timer"
	"liftsim/src/types"
)

// Hardware is the car the control loop drives. Calls block until the
// physical action completes. Any error is fatal: the physical state is
// unknown afterwards, so the loop halts instead of retrying.
type Hardware interface {
	MoveOneFloor(dir types.Direction) (int, error)
	OpenDoors() error
	CloseDoors() error
	ReportFloor() (int, error)
}

// State is a point-in-time view of the car.
type State struct {
	Floor     int
	Direction types.Direction
	Behaviour types.Behaviour
	Pending   int
}

type Elevator struct {
	cfg    config.Config
	hw     Hardware
	policy *sched.Policy
	set    *requests.Set
	log    *eventLog
	wake   chan struct{}

	mu        sync.Mutex
	floor     int
	dir       types.Direction
	behaviour types.Behaviour
	running   bool
}

// New validates cfg and assembles a stopped car. Run starts it.
func New(cfg config.Config, hw Hardware) (*Elevator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := sched.New(cfg.Scheduling.Algorithm, cfg.Scheduling.Weights,
		cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor)
	if err != nil {
		return nil, err
	}
	return &Elevator{
		cfg:    cfg,
		hw:     hw,
		policy: policy,
		set:    requests.NewSet(cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor),
		log:    newEventLog(),
		wake:   make(chan struct{}, 1),
		floor:  cfg.Elevator.MinFloor,
	}, nil
}

// Run drives the car until ctx is cancelled or the hardware fails. A
// hardware failure appends the terminal halt event and returns a
// HardwareError; cancellation returns ctx.Err with no halt event.
func (e *Elevator) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("control loop already running")
	}
	e.running = true
	e.mu.Unlock()

	floor, err := e.hw.ReportFloor()
	if err != nil {
		return e.halt(e.State().Floor, "report", err)
	}
	e.setFloor(floor)

	dwellTimer := time.NewTimer(time.Hour)
	dwellTimer.Stop()
	timeout := make(chan bool, 1)
	action := make(chan timer.Action)
	go timer.Run(ctx, e.cfg.Dwell(), dwellTimer, timeout, action)

	logger.GetLogger().Info().
		Int("floor", floor).
		Str("algorithm", string(e.policy.Algorithm())).
		Msg("control loop started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch d := e.policy.Decide(floor, e.direction(), e.set); d {
		case types.DecideIdle:
			e.shift(floor, types.DirIdle)
			e.setBehaviour(types.Idle)
			select {
			case <-e.wake:
			case <-ctx.Done():
				return ctx.Err()
			}

		case types.DecideStay:
			if err := e.serve(ctx, floor, timeout, action); err != nil {
				return err
			}

		case types.DecideUp, types.DecideDown:
			dir := d.Direction()
			e.shift(floor, dir)
			e.setBehaviour(types.Moving)
			next, err := e.hw.MoveOneFloor(dir)
			if err != nil {
				return e.halt(floor, "move", err)
			}
			floor = next
			e.setFloor(floor)
			e.log.append(types.Arrived(floor))
			if sched.ShouldStop(floor, dir, e.set) {
				logger.GetLogger().Debug().Int("floor", floor).Msg("stopping at floor")
				if err := e.serve(ctx, floor, timeout, action); err != nil {
					return err
				}
			} else {
				logger.GetLogger().Debug().
					Int("floor", floor).
					Stringer("direction", dir).
					Msg("continuing past floor")
			}
		}
	}
}

// serve opens the doors at floor, clears what the stop services, holds
// them for the dwell and closes. Requests arriving at this floor during
// the dwell are folded into the same stop with a fresh dwell.
func (e *Elevator) serve(ctx context.Context, floor int, timeout <-chan bool, action chan<- timer.Action) error {
	e.setBehaviour(types.DoorOpen)
	if err := e.hw.OpenDoors(); err != nil {
		return e.halt(floor, "doors", err)
	}
	e.log.append(types.DoorsOpened(floor))
	e.logServed(floor, e.set.ServeFloor(floor, e.direction()))

	// The timer goroutine exits with ctx, so every send races shutdown.
	select {
	case action <- timer.Start:
	case <-ctx.Done():
		return ctx.Err()
	}
	for {
		select {
		case <-timeout:
			if err := e.hw.CloseDoors(); err != nil {
				return e.halt(floor, "doors", err)
			}
			e.log.append(types.DoorsClosed(floor))
			e.setBehaviour(types.Idle)
			return nil
		case <-e.wake:
			if more := e.set.ServeFloor(floor, e.direction()); len(more) > 0 {
				e.logServed(floor, more)
				// Discard an expiry that raced the restart.
				select {
				case <-timeout:
				default:
				}
				select {
				case action <- timer.Start:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SubmitHallCall registers an external call at floor in the given travel
// direction and returns its request ID.
func (e *Elevator) SubmitHallCall(floor int, dir types.Direction) (string, error) {
	req, err := e.set.AddHall(floor, dir)
	if err != nil {
		return "", err
	}
	logger.GetLogger().Debug().
		Int("floor", floor).
		Stringer("direction", dir).
		Str("id", req.ID).
		Msg("hall call submitted")
	e.nudge()
	return req.ID, nil
}

// SubmitCabCall registers an internal target floor and returns its
// request ID. A target the stopped car is already at completes
// immediately: the returned ID was never pending and withdrawing it
// reports false.
func (e *Elevator) SubmitCabCall(floor int) (string, error) {
	e.mu.Lock()
	alreadyThere := e.running && e.floor == floor && e.behaviour != types.Moving
	e.mu.Unlock()
	if alreadyThere {
		return e.set.MintID(), nil
	}

	req, err := e.set.AddCab(floor)
	if err != nil {
		return "", err
	}
	logger.GetLogger().Debug().
		Int("floor", floor).
		Str("id", req.ID).
		Msg("cab call submitted")
	e.nudge()
	return req.ID, nil
}

// Withdraw cancels a pending request. Unknown, already-served and
// already-withdrawn IDs report false and change nothing.
func (e *Elevator) Withdraw(id string) bool {
	if !e.set.Withdraw(id) {
		return false
	}
	logger.GetLogger().Debug().Str("id", id).Msg("request withdrawn")
	e.nudge()
	return true
}

func (e *Elevator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Floor:     e.floor,
		Direction: e.dir,
		Behaviour: e.behaviour,
		Pending:   e.set.Len(),
	}
}

// Pending returns a detached copy of the request backlog.
func (e *Elevator) Pending() requests.Snapshot {
	return e.set.Snapshot()
}

// nudge wakes the control loop without blocking; one pending wakeup is
// enough.
func (e *Elevator) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// shift records a direction change at floor, if it is one.
func (e *Elevator) shift(floor int, to types.Direction) {
	e.mu.Lock()
	from := e.dir
	e.dir = to
	e.mu.Unlock()
	if from == to {
		return
	}
	e.log.append(types.DirectionChanged(floor, from, to))
	logger.GetLogger().Debug().
		Int("floor", floor).
		Stringer("from", from).
		Stringer("to", to).
		Msg("direction changed")
}

func (e *Elevator) halt(floor int, op string, cause error) error {
	err := &types.HardwareError{Op: op, Err: cause}
	e.setBehaviour(types.Idle)
	e.log.append(types.Halted(floor, err))
	logger.GetLogger().Error().
		Err(err).
		Int("floor", floor).
		Msg("hardware fault, control loop halted")
	return err
}

func (e *Elevator) logServed(floor int, served []types.Request) {
	for _, r := range served {
		logger.GetLogger().Info().
			Int("floor", floor).
			Str("id", r.ID).
			Stringer("kind", r.Kind).
			Msg("request served")
	}
}

func (e *Elevator) direction() types.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dir
}

func (e *Elevator) setFloor(floor int) {
	e.mu.Lock()
	e.floor = floor
	e.mu.Unlock()
}

func (e *Elevator) setBehaviour(b types.Behaviour) {
	e.mu.Lock()
	e.behaviour = b
	e.mu.Unlock()
}
