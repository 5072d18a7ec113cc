// Direction scheduling for a single car: the LOOK/SCAN/SSTF policies and
// the stop decision. Policies read the request set but never mutate it.
package sched

import (
	"fmt"

	"liftsim/src/config"
	"liftsim/src/logger"
	"liftsim/src/requests"
	"liftsim/src/types"
)

// Policy is bound to one algorithm and one floor range at startup. The
// algorithm set is closed; anything else fails construction.
type Policy struct {
	algo     types.Algorithm
	weights  config.Weights
	minFloor int
	maxFloor int
}

func New(algo types.Algorithm, w config.Weights, minFloor, maxFloor int) (*Policy, error) {
	switch algo {
	case types.LOOK, types.SCAN, types.SSTF:
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", types.ErrInvalidConfiguration, algo)
	}
	return &Policy{algo: algo, weights: w, minFloor: minFloor, maxFloor: maxFloor}, nil
}

func (p *Policy) Algorithm() types.Algorithm { return p.algo }

// Decide picks the car's next move from floor, given the direction of the
// current sweep (DirIdle when at rest). Whenever a stop at the current
// floor would be taken on arrival, Decide returns DecideStay instead of
// driving away from it; the two answers never disagree. Never returns a
// move past the floor range: up is only chosen with work or track above,
// and vice versa.
func (p *Policy) Decide(floor int, last types.Direction, set *requests.Set) types.Decision {
	if set.Empty() {
		return types.DecideIdle
	}

	var d types.Decision
	switch {
	case ShouldStop(floor, last, set):
		d = types.DecideStay
	case p.algo == types.SSTF:
		d = p.decideNearest(floor, set)
	default:
		d = p.decideSweep(floor, last, set)
	}
	logger.GetLogger().Debug().
		Int("floor", floor).
		Stringer("last", last).
		Stringer("decision", d).
		Msg("policy decision")
	return d
}

// decideSweep is the direction-priority discipline shared by LOOK and
// SCAN. An active sweep continues while anything lies beyond the car,
// including opposite-direction calls it merely passes through, and SCAN
// also runs the sweep out to the track end. Only once nothing continues
// the sweep do cab targets steer, ahead of any hall call.
func (p *Policy) decideSweep(floor int, last types.Direction, set *requests.Set) types.Decision {
	anythingAbove := set.Ahead(floor, types.DirUp) || set.PassThrough(floor, types.DirUp)
	anythingBelow := set.Ahead(floor, types.DirDown) || set.PassThrough(floor, types.DirDown)

	switch last {
	case types.DirUp:
		if anythingAbove {
			return types.DecideUp
		}
		if p.algo == types.SCAN && floor < p.maxFloor-p.weights.ProximityThreshold {
			return types.DecideUp
		}
	case types.DirDown:
		if anythingBelow {
			return types.DecideDown
		}
		if p.algo == types.SCAN && floor > p.minFloor+p.weights.ProximityThreshold {
			return types.DecideDown
		}
	}

	cabsAbove, _, _ := set.CountsAbove(floor)
	cabsBelow, _, _ := set.CountsBelow(floor)
	switch {
	case cabsAbove > 0 && cabsBelow > 0:
		return p.betterSide(floor, set)
	case cabsAbove > 0:
		return types.DecideUp
	case cabsBelow > 0:
		return types.DecideDown
	}

	switch {
	case anythingAbove && anythingBelow:
		return p.betterSide(floor, set)
	case anythingAbove:
		return types.DecideUp
	case anythingBelow:
		return types.DecideDown
	}
	return types.DecideIdle
}

// decideNearest is pure shortest-seek-time-first: always head for the
// closest pending floor, ignoring the current sweep. Ties go up. Can
// starve far requests under sustained close traffic; that trade-off is
// accepted, not mitigated.
func (p *Policy) decideNearest(floor int, set *requests.Set) types.Decision {
	above, okAbove := set.NearestAbove(floor)
	below, okBelow := set.NearestBelow(floor)
	switch {
	case okAbove && okBelow:
		if floor-below < above-floor {
			return types.DecideDown
		}
		return types.DecideUp
	case okAbove:
		return types.DecideUp
	case okBelow:
		return types.DecideDown
	default:
		// Non-empty set with nothing above or below: the work is here.
		return types.DecideStay
	}
}

// betterSide breaks a both-sides standoff with the weighted direction
// scores. Exact score ties go up.
func (p *Policy) betterSide(floor int, set *requests.Set) types.Decision {
	if p.scoreUp(floor, set) >= p.scoreDown(floor, set) {
		return types.DecideUp
	}
	return types.DecideDown
}
