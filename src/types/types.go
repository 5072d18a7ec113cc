// Contains the shared domain types for the elevator core: directions,
// behaviours, scheduling decisions and pending requests.
package types

type Direction int8

const (
	DirDown Direction = -1
	DirIdle Direction = 0
	DirUp   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "idle"
	}
}

// Opposite returns the reversed travel direction. Idle has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	default:
		return DirIdle
	}
}

type Behaviour int

const (
	Idle Behaviour = iota
	Moving
	DoorOpen
)

func (b Behaviour) String() string {
	switch b {
	case Moving:
		return "moving"
	case DoorOpen:
		return "doorOpen"
	default:
		return "idle"
	}
}

// Decision is the outcome of one direction policy evaluation. DecideStay
// means the car should serve its current floor without moving.
type Decision int

const (
	DecideIdle Decision = iota
	DecideUp
	DecideDown
	DecideStay
)

func (d Decision) String() string {
	switch d {
	case DecideUp:
		return "up"
	case DecideDown:
		return "down"
	case DecideStay:
		return "stay"
	default:
		return "idle"
	}
}

// Direction maps a movement decision to its travel direction.
func (d Decision) Direction() Direction {
	switch d {
	case DecideUp:
		return DirUp
	case DecideDown:
		return DirDown
	default:
		return DirIdle
	}
}

// Algorithm names a scheduling discipline. The set is closed; anything
// else is rejected at startup.
type Algorithm string

const (
	LOOK Algorithm = "look"
	SCAN Algorithm = "scan"
	SSTF Algorithm = "sstf"
)

type RequestKind int

const (
	HallCall RequestKind = iota
	CabCall
)

func (k RequestKind) String() string {
	if k == CabCall {
		return "cab"
	}
	return "hall"
}

// Request is one immutable pending service demand. Hall calls carry the
// requested travel direction; cab calls carry only the target floor.
type Request struct {
	ID        string
	Kind      RequestKind
	Floor     int
	Direction Direction
}
