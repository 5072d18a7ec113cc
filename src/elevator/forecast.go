package elevator

import (
	"time"

	"github.com/tiendc/go-deepcopy"

	"liftsim/src/requests"
	"liftsim/src/sched"
	"liftsim/src/types"
)

// ProjectedStop is one door opening in the car's simulated future.
type ProjectedStop struct {
	Floor  int
	ETA    time.Duration
	Served []string
}

// Forecast replays the direction policy over a copy of the live state and
// returns the stops the car is headed for, in visit order, with projected
// arrival delays. Advisory only: submissions landing after the copy is
// taken change the real route.
func (e *Elevator) Forecast() []ProjectedStop {
	type simCar struct {
		Floor   int
		Dir     types.Direction
		Pending []types.Request
	}
	st := e.State()
	base := simCar{Floor: st.Floor, Dir: st.Direction, Pending: e.set.Pending()}
	sim := new(simCar)
	if err := deepcopy.Copy(sim, &base); err != nil {
		panic(err)
	}

	simSet := requests.NewSet(e.cfg.Elevator.MinFloor, e.cfg.Elevator.MaxFloor)
	for _, r := range sim.Pending {
		if err := simSet.Restore(r); err != nil {
			panic(err)
		}
	}

	travel, dwell := e.cfg.Travel(), e.cfg.Dwell()
	floor, dir := sim.Floor, sim.Dir
	var eta time.Duration
	var stops []ProjectedStop

	record := func(served []types.Request) {
		ids := make([]string, len(served))
		for i, r := range served {
			ids[i] = r.ID
		}
		stops = append(stops, ProjectedStop{Floor: floor, ETA: eta, Served: ids})
		eta += dwell
	}

	// Every stop retires at least one request and no leg outruns the
	// track, which bounds the route length.
	span := e.cfg.Elevator.MaxFloor - e.cfg.Elevator.MinFloor + 1
	limit := (simSet.Len() + 2) * (span + 1)
	for i := 0; i < limit && !simSet.Empty(); i++ {
		switch d := e.policy.Decide(floor, dir, simSet); d {
		case types.DecideStay:
			served := simSet.ServeFloor(floor, dir)
			if len(served) == 0 {
				return stops
			}
			record(served)
		case types.DecideUp, types.DecideDown:
			dir = d.Direction()
			floor += int(dir)
			eta += travel
			if sched.ShouldStop(floor, dir, simSet) {
				record(simSet.ServeFloor(floor, dir))
			}
		default:
			return stops
		}
	}
	return stops
}

// ForecastStops returns just the floors of the projected stops, in visit
// order.
func (e *Elevator) ForecastStops() []int {
	stops := e.Forecast()
	floors := make([]int, len(stops))
	for i, s := range stops {
		floors[i] = s.Floor
	}
	return floors
}

// EstimateWait reports the projected delay until the stop that services
// the given request. False when the ID is not on the forecast route.
func (e *Elevator) EstimateWait(id string) (time.Duration, bool) {
	for _, stop := range e.Forecast() {
		for _, served := range stop.Served {
			if served == id {
				return stop.ETA, true
			}
		}
	}
	return 0, false
}
