package hardware

import (
	"errors"
	"testing"

	"liftsim/src/types"
)

func TestMockMovesOneFloorAtATime(t *testing.T) {
	m := NewMock(0, 5, 2, 0, 0)

	floor, err := m.MoveOneFloor(types.DirUp)
	if err != nil || floor != 3 {
		t.Fatalf("MoveOneFloor(up) = %d, %v, want 3, nil", floor, err)
	}
	floor, err = m.MoveOneFloor(types.DirDown)
	if err != nil || floor != 2 {
		t.Fatalf("MoveOneFloor(down) = %d, %v, want 2, nil", floor, err)
	}
	if m.Moves() != 2 {
		t.Errorf("Moves() = %d, want 2", m.Moves())
	}
}

func TestMockRefusesToLeaveTrack(t *testing.T) {
	m := NewMock(0, 3, 3, 0, 0)
	if _, err := m.MoveOneFloor(types.DirUp); err == nil {
		t.Fatal("MoveOneFloor(up) at the top floor succeeded")
	}
	if m.Floor() != 3 {
		t.Errorf("Floor() = %d after refused move, want 3", m.Floor())
	}

	m = NewMock(0, 3, 0, 0, 0)
	if _, err := m.MoveOneFloor(types.DirDown); err == nil {
		t.Fatal("MoveOneFloor(down) at the bottom floor succeeded")
	}
	if _, err := m.MoveOneFloor(types.DirIdle); err == nil {
		t.Fatal("MoveOneFloor(idle) succeeded")
	}
}

func TestMockRefusesToMoveWithDoorsOpen(t *testing.T) {
	m := NewMock(0, 5, 2, 0, 0)
	if err := m.OpenDoors(); err != nil {
		t.Fatalf("OpenDoors: %v", err)
	}
	if !m.DoorsOpen() {
		t.Fatal("DoorsOpen() = false after OpenDoors")
	}
	if _, err := m.MoveOneFloor(types.DirUp); err == nil {
		t.Fatal("MoveOneFloor succeeded with doors open")
	}
	if err := m.CloseDoors(); err != nil {
		t.Fatalf("CloseDoors: %v", err)
	}
	if _, err := m.MoveOneFloor(types.DirUp); err != nil {
		t.Fatalf("MoveOneFloor after CloseDoors: %v", err)
	}
}

func TestMockInjectedFaults(t *testing.T) {
	sentinel := errors.New("stalled motor")

	m := NewMock(0, 5, 2, 0, 0)
	m.FailMoveTo(3, sentinel)
	if _, err := m.MoveOneFloor(types.DirUp); !errors.Is(err, sentinel) {
		t.Fatalf("MoveOneFloor into failed floor: err = %v, want injected fault", err)
	}
	if m.Floor() != 2 {
		t.Errorf("Floor() = %d after failed move, want 2", m.Floor())
	}
	if _, err := m.MoveOneFloor(types.DirDown); err != nil {
		t.Errorf("MoveOneFloor away from failed floor: %v", err)
	}

	m = NewMock(0, 5, 2, 0, 0)
	m.FailDoors(sentinel)
	if err := m.OpenDoors(); !errors.Is(err, sentinel) {
		t.Errorf("OpenDoors: err = %v, want injected fault", err)
	}

	m = NewMock(0, 5, 2, 0, 0)
	m.FailReport(sentinel)
	if _, err := m.ReportFloor(); !errors.Is(err, sentinel) {
		t.Errorf("ReportFloor: err = %v, want injected fault", err)
	}
}
