package types

import "fmt"

type EventKind int

const (
	EventArrived EventKind = iota
	EventDoorsOpened
	EventDoorsClosed
	EventDirectionChanged
	EventHalted
)

func (k EventKind) String() string {
	switch k {
	case EventArrived:
		return "arrived"
	case EventDoorsOpened:
		return "doorsOpened"
	case EventDoorsClosed:
		return "doorsClosed"
	case EventDirectionChanged:
		return "directionChanged"
	case EventHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Event is one record in the elevator's append-only event log. From/To are
// set for direction changes only, Err for the terminal halt only.
type Event struct {
	Kind  EventKind
	Floor int
	From  Direction
	To    Direction
	Err   string
}

func Arrived(floor int) Event {
	return Event{Kind: EventArrived, Floor: floor}
}

func DoorsOpened(floor int) Event {
	return Event{Kind: EventDoorsOpened, Floor: floor}
}

func DoorsClosed(floor int) Event {
	return Event{Kind: EventDoorsClosed, Floor: floor}
}

func DirectionChanged(floor int, from, to Direction) Event {
	return Event{Kind: EventDirectionChanged, Floor: floor, From: from, To: to}
}

func Halted(floor int, err error) Event {
	e := Event{Kind: EventHalted, Floor: floor}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

// Reversal reports whether the event records a change between the two
// movement directions, as opposed to entering or leaving idle.
func (e Event) Reversal() bool {
	return e.Kind == EventDirectionChanged &&
		e.From != DirIdle && e.To != DirIdle && e.From != e.To
}

func (e Event) String() string {
	switch e.Kind {
	case EventDirectionChanged:
		return fmt.Sprintf("%s(%d %s->%s)", e.Kind, e.Floor, e.From, e.To)
	case EventHalted:
		return fmt.Sprintf("%s(%d %s)", e.Kind, e.Floor, e.Err)
	default:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Floor)
	}
}
