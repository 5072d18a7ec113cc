package sched

import (
	"liftsim/src/requests"
)

// Weighted side scores used when work is pending on both sides of the car.
// Cab targets outweigh hall calls, the count is scaled by how much track
// the car has behind it in that direction, and the nearest pending floor
// adds a proximity bonus that shrinks with distance.

func (p *Policy) scoreUp(floor int, set *requests.Set) float64 {
	cabs, ups, downs := set.CountsAbove(floor)
	if cabs+ups+downs == 0 {
		return 0
	}
	w := p.weights
	score := float64(w.Target*cabs + w.Request*(ups+downs))
	score *= float64(max(w.MinDistanceFactor, floor-p.minFloor))
	if nearest, ok := set.NearestAbove(floor); ok {
		score += float64(w.Request) / float64(max(w.MinDistanceFactor, nearest-floor))
	}
	return score
}

func (p *Policy) scoreDown(floor int, set *requests.Set) float64 {
	cabs, ups, downs := set.CountsBelow(floor)
	if cabs+ups+downs == 0 {
		return 0
	}
	w := p.weights
	score := float64(w.Target*cabs + w.Request*(ups+downs))
	score *= float64(max(w.MinDistanceFactor, p.maxFloor-floor))
	if nearest, ok := set.NearestBelow(floor); ok {
		score += float64(w.Request) / float64(max(w.MinDistanceFactor, floor-nearest))
	}
	return score
}
