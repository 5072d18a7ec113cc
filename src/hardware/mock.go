// In-memory and lab-elevator car hardware. Both back the same four
// operations the engine drives: step one floor, open doors, close doors,
// report the current floor.
package hardware

import (
	"fmt"
	"sync"
	"time"

	"liftsim/src/types"
)

// Mock simulates a car in memory. Moves and door swings take real wall
// time so callers exercise genuine asynchrony; zero delays make it
// instant for tests. Injected faults surface as errors from the
// corresponding operation.
type Mock struct {
	mu        sync.Mutex
	floor     int
	minFloor  int
	maxFloor  int
	travel    time.Duration
	doorDelay time.Duration
	doorsOpen bool
	moves     int

	failMoveTo map[int]error
	failDoors  error
	failReport error
}

func NewMock(minFloor, maxFloor, startFloor int, travel, doorDelay time.Duration) *Mock {
	return &Mock{
		floor:      startFloor,
		minFloor:   minFloor,
		maxFloor:   maxFloor,
		travel:     travel,
		doorDelay:  doorDelay,
		failMoveTo: make(map[int]error),
	}
}

// MoveOneFloor travels a single floor in dir, blocking for the travel
// time. Stepping past either end of the track or with the doors open is
// refused.
func (m *Mock) MoveOneFloor(dir types.Direction) (int, error) {
	m.mu.Lock()
	if dir != types.DirUp && dir != types.DirDown {
		m.mu.Unlock()
		return m.floor, fmt.Errorf("no travel direction")
	}
	if m.doorsOpen {
		m.mu.Unlock()
		return m.floor, fmt.Errorf("moving with doors open")
	}
	target := m.floor + int(dir)
	if target < m.minFloor || target > m.maxFloor {
		m.mu.Unlock()
		return m.floor, fmt.Errorf("floor %d is outside the track", target)
	}
	if err := m.failMoveTo[target]; err != nil {
		m.mu.Unlock()
		return m.floor, err
	}
	travel := m.travel
	m.mu.Unlock()

	time.Sleep(travel)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.floor = target
	m.moves++
	return m.floor, nil
}

func (m *Mock) OpenDoors() error {
	m.mu.Lock()
	if m.failDoors != nil {
		err := m.failDoors
		m.mu.Unlock()
		return err
	}
	delay := m.doorDelay
	m.mu.Unlock()

	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.doorsOpen = true
	return nil
}

func (m *Mock) CloseDoors() error {
	m.mu.Lock()
	if m.failDoors != nil {
		err := m.failDoors
		m.mu.Unlock()
		return err
	}
	delay := m.doorDelay
	m.mu.Unlock()

	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.doorsOpen = false
	return nil
}

func (m *Mock) ReportFloor() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReport != nil {
		return m.floor, m.failReport
	}
	return m.floor, nil
}

// FailMoveTo makes any move that would land on floor fail with err,
// leaving the car where it was.
func (m *Mock) FailMoveTo(floor int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMoveTo[floor] = err
}

// FailDoors makes every door operation fail with err.
func (m *Mock) FailDoors(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDoors = err
}

// FailReport makes every floor report fail with err.
func (m *Mock) FailReport(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReport = err
}

func (m *Mock) Floor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.floor
}

func (m *Mock) DoorsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doorsOpen
}

// Moves counts completed single-floor steps.
func (m *Mock) Moves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moves
}
