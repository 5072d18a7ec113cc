// Pending request bookkeeping for a single car. The Set is the one piece
// of state shared between submitters and the control loop, so every
// operation takes the same mutex; queries never mutate.
package requests

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xyproto/randomstring"

	"liftsim/src/types"
)

const idLength = 10

// Set holds pending hall calls and cab targets, at most one per
// floor/kind/direction slot, indexed by request ID for withdrawal.
type Set struct {
	mu       sync.Mutex
	minFloor int
	maxFloor int
	up       map[int]types.Request
	down     map[int]types.Request
	cabs     map[int]types.Request
	byID     map[string]types.Request
}

func NewSet(minFloor, maxFloor int) *Set {
	return &Set{
		minFloor: minFloor,
		maxFloor: maxFloor,
		up:       make(map[int]types.Request),
		down:     make(map[int]types.Request),
		cabs:     make(map[int]types.Request),
		byID:     make(map[string]types.Request),
	}
}

// AddHall registers an external call at floor in the given travel
// direction. Calls that could never be served (up from the top floor, down
// from the bottom) are rejected as out of range.
func (s *Set) AddHall(floor int, dir types.Direction) (types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if floor < s.minFloor || floor > s.maxFloor {
		return types.Request{}, fmt.Errorf("%w: hall call at %d outside [%d, %d]",
			types.ErrOutOfRange, floor, s.minFloor, s.maxFloor)
	}
	switch dir {
	case types.DirUp:
		if floor == s.maxFloor {
			return types.Request{}, fmt.Errorf("%w: no up travel from the top floor %d",
				types.ErrOutOfRange, floor)
		}
		if _, ok := s.up[floor]; ok {
			return types.Request{}, fmt.Errorf("%w: up call at %d already pending",
				types.ErrDuplicateRequest, floor)
		}
	case types.DirDown:
		if floor == s.minFloor {
			return types.Request{}, fmt.Errorf("%w: no down travel from the bottom floor %d",
				types.ErrOutOfRange, floor)
		}
		if _, ok := s.down[floor]; ok {
			return types.Request{}, fmt.Errorf("%w: down call at %d already pending",
				types.ErrDuplicateRequest, floor)
		}
	default:
		return types.Request{}, fmt.Errorf("%w: hall call at %d needs an up or down direction",
			types.ErrOutOfRange, floor)
	}

	r := types.Request{ID: s.newID(), Kind: types.HallCall, Floor: floor, Direction: dir}
	if dir == types.DirUp {
		s.up[floor] = r
	} else {
		s.down[floor] = r
	}
	s.byID[r.ID] = r
	return r, nil
}

// AddCab registers an internal target floor.
func (s *Set) AddCab(floor int) (types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if floor < s.minFloor || floor > s.maxFloor {
		return types.Request{}, fmt.Errorf("%w: cab target %d outside [%d, %d]",
			types.ErrOutOfRange, floor, s.minFloor, s.maxFloor)
	}
	if _, ok := s.cabs[floor]; ok {
		return types.Request{}, fmt.Errorf("%w: cab target %d already pending",
			types.ErrDuplicateRequest, floor)
	}

	r := types.Request{ID: s.newID(), Kind: types.CabCall, Floor: floor, Direction: types.DirIdle}
	s.cabs[floor] = r
	s.byID[r.ID] = r
	return r, nil
}

// Withdraw removes the request with the given ID. Unknown IDs, including
// already-served or already-withdrawn ones, report false and change
// nothing.
func (s *Set) Withdraw(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	s.removeLocked(r)
	return true
}

// MintID issues a fresh request ID without registering anything, for
// acknowledging requests that complete immediately.
func (s *Set) MintID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newID()
}

// Restore re-registers a previously issued request under its original ID,
// for rebuilding working copies of the set.
func (s *Set) Restore(r types.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return fmt.Errorf("%w: id %s already pending", types.ErrDuplicateRequest, r.ID)
	}
	var slot map[int]types.Request
	switch {
	case r.Kind == types.CabCall:
		slot = s.cabs
	case r.Direction == types.DirUp:
		slot = s.up
	case r.Direction == types.DirDown:
		slot = s.down
	default:
		return fmt.Errorf("%w: hall call at %d needs an up or down direction",
			types.ErrOutOfRange, r.Floor)
	}
	if _, ok := slot[r.Floor]; ok {
		return fmt.Errorf("%w: %s slot at %d already pending",
			types.ErrDuplicateRequest, r.Kind, r.Floor)
	}
	slot[r.Floor] = r
	s.byID[r.ID] = r
	return nil
}

func (s *Set) newID() string {
	for {
		id := randomstring.EnglishFrequencyString(idLength)
		if _, taken := s.byID[id]; !taken {
			return id
		}
	}
}

func (s *Set) removeLocked(r types.Request) {
	delete(s.byID, r.ID)
	switch {
	case r.Kind == types.CabCall:
		delete(s.cabs, r.Floor)
	case r.Direction == types.DirUp:
		delete(s.up, r.Floor)
	default:
		delete(s.down, r.Floor)
	}
}

// ServeFloor clears everything a stop at floor while travelling dir
// services: the cab target, the matching hall call, every call when
// stopped without a direction, and the opposite hall call when the stop is
// the turnaround point of the sweep. Returns the removed requests.
func (s *Set) ServeFloor(floor int, dir types.Direction) []types.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var served []types.Request
	take := func(r types.Request, ok bool) {
		if ok {
			s.removeLocked(r)
			served = append(served, r)
		}
	}

	r, ok := s.cabs[floor]
	take(r, ok)

	switch dir {
	case types.DirUp:
		r, ok = s.up[floor]
		take(r, ok)
		cabs, ups, _ := s.countsAboveLocked(floor)
		if cabs == 0 && ups == 0 {
			r, ok = s.down[floor]
			take(r, ok)
		}
	case types.DirDown:
		r, ok = s.down[floor]
		take(r, ok)
		cabs, _, downs := s.countsBelowLocked(floor)
		if cabs == 0 && downs == 0 {
			r, ok = s.up[floor]
			take(r, ok)
		}
	default:
		r, ok = s.up[floor]
		take(r, ok)
		r, ok = s.down[floor]
		take(r, ok)
	}
	return served
}

func (s *Set) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID) == 0
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Set) HallAt(floor int, dir types.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir == types.DirUp {
		_, ok := s.up[floor]
		return ok
	}
	_, ok := s.down[floor]
	return ok
}

func (s *Set) CabAt(floor int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cabs[floor]
	return ok
}

func (s *Set) AnyAt(floor int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anyAtLocked(floor)
}

func (s *Set) anyAtLocked(floor int) bool {
	if _, ok := s.cabs[floor]; ok {
		return true
	}
	if _, ok := s.up[floor]; ok {
		return true
	}
	_, ok := s.down[floor]
	return ok
}

// Ahead reports whether any servable work lies strictly beyond floor in
// dir: a cab target, or a hall call requesting that same direction.
func (s *Set) Ahead(floor int, dir types.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch dir {
	case types.DirUp:
		cabs, ups, _ := s.countsAboveLocked(floor)
		return cabs > 0 || ups > 0
	case types.DirDown:
		cabs, _, downs := s.countsBelowLocked(floor)
		return cabs > 0 || downs > 0
	default:
		return false
	}
}

// Behind is Ahead with the car turned around.
func (s *Set) Behind(floor int, dir types.Direction) bool {
	return s.Ahead(floor, dir.Opposite())
}

// PassThrough reports whether a hall call requesting the opposite
// direction lies strictly beyond floor in dir. Such calls keep the sweep
// going even when nothing servable remains ahead: the car passes them on
// the way to its turnaround point.
func (s *Set) PassThrough(floor int, dir types.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch dir {
	case types.DirUp:
		_, _, downs := s.countsAboveLocked(floor)
		return downs > 0
	case types.DirDown:
		_, ups, _ := s.countsBelowLocked(floor)
		return ups > 0
	default:
		return false
	}
}

// CountsAbove returns how many cab targets, up calls and down calls are
// pending strictly above floor.
func (s *Set) CountsAbove(floor int) (cabs, ups, downs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsAboveLocked(floor)
}

// CountsBelow is the mirror of CountsAbove.
func (s *Set) CountsBelow(floor int) (cabs, ups, downs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsBelowLocked(floor)
}

func (s *Set) countsAboveLocked(floor int) (cabs, ups, downs int) {
	for f := range s.cabs {
		if f > floor {
			cabs++
		}
	}
	for f := range s.up {
		if f > floor {
			ups++
		}
	}
	for f := range s.down {
		if f > floor {
			downs++
		}
	}
	return cabs, ups, downs
}

func (s *Set) countsBelowLocked(floor int) (cabs, ups, downs int) {
	for f := range s.cabs {
		if f < floor {
			cabs++
		}
	}
	for f := range s.up {
		if f < floor {
			ups++
		}
	}
	for f := range s.down {
		if f < floor {
			downs++
		}
	}
	return cabs, ups, downs
}

// NearestAbove returns the closest floor strictly above floor holding any
// pending request.
func (s *Set) NearestAbove(floor int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nearestLocked(floor, types.DirUp)
}

// NearestBelow returns the closest floor strictly below floor holding any
// pending request.
func (s *Set) NearestBelow(floor int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nearestLocked(floor, types.DirDown)
}

func (s *Set) nearestLocked(floor int, dir types.Direction) (int, bool) {
	best, found := 0, false
	consider := func(f int) {
		if dir == types.DirUp && f <= floor {
			return
		}
		if dir == types.DirDown && f >= floor {
			return
		}
		if !found {
			best, found = f, true
			return
		}
		if dir == types.DirUp && f < best {
			best = f
		}
		if dir == types.DirDown && f > best {
			best = f
		}
	}
	for f := range s.cabs {
		consider(f)
	}
	for f := range s.up {
		consider(f)
	}
	for f := range s.down {
		consider(f)
	}
	return best, found
}

// Pending returns every pending request ordered by floor, hall calls
// before cab targets on the same floor. Used for lamp sync and status
// output, not by the scheduler itself.
func (s *Set) Pending() []types.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Request, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == types.HallCall
		}
		return out[i].Direction > out[j].Direction
	})
	return out
}

// Snapshot is a plain copy of the pending floors with no locking or
// identity attached, safe to hand to the forecaster.
type Snapshot struct {
	Up   []int
	Down []int
	Cabs []int
}

func (s *Set) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Up:   make([]int, 0, len(s.up)),
		Down: make([]int, 0, len(s.down)),
		Cabs: make([]int, 0, len(s.cabs)),
	}
	for f := range s.up {
		snap.Up = append(snap.Up, f)
	}
	for f := range s.down {
		snap.Down = append(snap.Down, f)
	}
	for f := range s.cabs {
		snap.Cabs = append(snap.Cabs, f)
	}
	sort.Ints(snap.Up)
	sort.Ints(snap.Down)
	sort.Ints(snap.Cabs)
	return snap
}
