package sched

import (
	"liftsim/src/requests"
	"liftsim/src/types"
)

// ShouldStop reports whether a car travelling dir should open its doors at
// floor. Stops happen for a cab target here, a hall call pointing the way
// the car is already going, or an opposite hall call at the turnaround
// point of the sweep. Opposite calls mid-sweep are passed by; the return
// leg picks them up.
func ShouldStop(floor int, dir types.Direction, set *requests.Set) bool {
	if set.CabAt(floor) {
		return true
	}
	switch dir {
	case types.DirUp:
		if set.HallAt(floor, types.DirUp) {
			return true
		}
		if set.HallAt(floor, types.DirDown) {
			cabs, ups, downs := set.CountsAbove(floor)
			return cabs == 0 && ups == 0 && downs == 0
		}
	case types.DirDown:
		if set.HallAt(floor, types.DirDown) {
			return true
		}
		if set.HallAt(floor, types.DirUp) {
			cabs, _, downs := set.CountsBelow(floor)
			return cabs == 0 && downs == 0
		}
	default:
		return set.AnyAt(floor)
	}
	return false
}
