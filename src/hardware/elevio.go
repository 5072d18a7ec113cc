package hardware

import (
	"fmt"
	"time"

	"github.com/angrycompany16/driver-go/elevio"

	"liftsim/src/logger"
	"liftsim/src/types"
)

const sensorPollRate = 25 * time.Millisecond

// ButtonPress is a translated panel event from the physical car.
type ButtonPress struct {
	Floor     int
	Kind      types.RequestKind
	Direction types.Direction
}

// LampSyncer is implemented by backends with request lamps to keep lit.
type LampSyncer interface {
	SyncLamps(up, down, cabs []int)
}

// Elevio drives one car through the TTK4145 elevator server. The logical
// floor range maps onto the server's zero-based floors, so minFloor rides
// at physical floor zero. Motor and door operations belong to the control
// loop alone; SyncLamps and Buttons may be used from other goroutines, the
// driver locks the socket.
type Elevio struct {
	minFloor      int
	maxFloor      int
	travelTimeout time.Duration
	floor         int
	floorSensor   chan int
	buttons       chan ButtonPress
}

// NewElevio connects to the elevator server at addr and drives the car to
// the nearest floor below if it starts between floors. The driver panics
// on a dead connection; that is translated into an error here.
func NewElevio(addr string, minFloor, maxFloor int, travelTimeout time.Duration) (e *Elevio, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("elevator server %s: %v", addr, r)
		}
	}()

	numFloors := maxFloor - minFloor + 1
	elevio.Init(addr, numFloors)

	e = &Elevio{
		minFloor:      minFloor,
		maxFloor:      maxFloor,
		travelTimeout: travelTimeout,
		floorSensor:   make(chan int, 4),
		buttons:       make(chan ButtonPress, 16),
	}
	go elevio.PollFloorSensor(e.floorSensor)
	go e.pollButtons()

	physical := elevio.GetFloor()
	if physical == -1 {
		elevio.SetMotorDirection(elevio.MD_Down)
		select {
		case physical = <-e.floorSensor:
		case <-time.After(e.travelTimeout):
			elevio.SetMotorDirection(elevio.MD_Stop)
			return nil, fmt.Errorf("no floor sensor reading within %v", e.travelTimeout)
		}
		elevio.SetMotorDirection(elevio.MD_Stop)
	}
	e.floor = physical + minFloor
	elevio.SetFloorIndicator(physical)
	elevio.SetDoorOpenLamp(false)
	logger.GetLogger().Info().Int("floor", e.floor).Str("addr", addr).Msg("elevator server connected")
	return e, nil
}

// Buttons exposes translated panel presses from the physical car.
func (e *Elevio) Buttons() <-chan ButtonPress { return e.buttons }

func (e *Elevio) pollButtons() {
	events := make(chan elevio.ButtonEvent)
	go elevio.PollButtons(events)
	for ev := range events {
		press := ButtonPress{Floor: ev.Floor + e.minFloor}
		switch ev.Button {
		case elevio.BT_HallUp:
			press.Kind, press.Direction = types.HallCall, types.DirUp
		case elevio.BT_HallDown:
			press.Kind, press.Direction = types.HallCall, types.DirDown
		default:
			press.Kind = types.CabCall
		}
		select {
		case e.buttons <- press:
		default:
			logger.GetLogger().Warn().Int("floor", press.Floor).Msg("dropping button press, queue full")
		}
	}
}

// MoveOneFloor runs the motor until the next floor sensor fires, with a
// watchdog for stalled travel.
func (e *Elevio) MoveOneFloor(dir types.Direction) (int, error) {
	var motor elevio.MotorDirection
	switch dir {
	case types.DirUp:
		motor = elevio.MD_Up
	case types.DirDown:
		motor = elevio.MD_Down
	default:
		return e.floor, fmt.Errorf("no travel direction")
	}
	target := e.floor + int(dir)
	if target < e.minFloor || target > e.maxFloor {
		return e.floor, fmt.Errorf("floor %d is outside the track", target)
	}

	elevio.SetMotorDirection(motor)
	deadline := time.After(e.travelTimeout)
	for {
		select {
		case physical := <-e.floorSensor:
			arrived := physical + e.minFloor
			if arrived == e.floor {
				continue
			}
			elevio.SetMotorDirection(elevio.MD_Stop)
			elevio.SetFloorIndicator(physical)
			e.floor = arrived
			if arrived != target {
				return e.floor, fmt.Errorf("arrived at floor %d, expected %d", arrived, target)
			}
			return e.floor, nil
		case <-deadline:
			elevio.SetMotorDirection(elevio.MD_Stop)
			return e.floor, fmt.Errorf("no floor sensor reading within %v", e.travelTimeout)
		}
	}
}

func (e *Elevio) OpenDoors() error {
	elevio.SetDoorOpenLamp(true)
	return nil
}

// CloseDoors waits out the obstruction switch before darkening the lamp.
func (e *Elevio) CloseDoors() error {
	for elevio.GetObstruction() {
		time.Sleep(sensorPollRate)
	}
	elevio.SetDoorOpenLamp(false)
	return nil
}

func (e *Elevio) ReportFloor() (int, error) {
	physical := elevio.GetFloor()
	if physical == -1 {
		return e.floor, nil
	}
	e.floor = physical + e.minFloor
	return e.floor, nil
}

// SyncLamps lights the hall and cab button lamps for exactly the pending
// floors.
func (e *Elevio) SyncLamps(up, down, cabs []int) {
	lit := func(floors []int, physical int) bool {
		for _, f := range floors {
			if f-e.minFloor == physical {
				return true
			}
		}
		return false
	}
	numFloors := e.maxFloor - e.minFloor + 1
	for physical := 0; physical < numFloors; physical++ {
		elevio.SetButtonLamp(elevio.BT_HallUp, physical, lit(up, physical))
		elevio.SetButtonLamp(elevio.BT_HallDown, physical, lit(down, physical))
		elevio.SetButtonLamp(elevio.BT_Cab, physical, lit(cabs, physical))
	}
}
