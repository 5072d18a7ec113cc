package elevator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"liftsim/src/config"
	"liftsim/src/hardware"
	"liftsim/src/logger"
	"liftsim/src/types"
)

func TestMain(m *testing.M) {
	logger.GetLoggerConfigured(zerolog.Disabled)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Timing.DwellMs = 30
	cfg.Timing.TravelMs = 15
	return cfg
}

func testMock(cfg config.Config, startFloor int) *hardware.Mock {
	return hardware.NewMock(cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor, startFloor,
		cfg.Travel(), 0)
}

// startCar runs the control loop in the background and tears it down with
// the test.
func startCar(t *testing.T, cfg config.Config, hw Hardware) (*Elevator, <-chan error) {
	t.Helper()
	e, err := New(cfg, hw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- e.Run(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Error("control loop never returned after cancel")
		}
	})
	return e, done
}

func waitIdle(t *testing.T, e *Elevator) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := e.State()
		if st.Behaviour == types.Idle && st.Pending == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("car never went idle: %+v", e.State())
}

func submitHall(t *testing.T, e *Elevator, floor int, dir types.Direction) string {
	t.Helper()
	id, err := e.SubmitHallCall(floor, dir)
	if err != nil {
		t.Errorf("SubmitHallCall(%d, %v): %v", floor, dir, err)
	}
	return id
}

func submitCab(t *testing.T, e *Elevator, floor int) string {
	t.Helper()
	id, err := e.SubmitCabCall(floor)
	if err != nil {
		t.Errorf("SubmitCabCall(%d): %v", floor, err)
	}
	return id
}

// trigger fires run once, the first time the matching event appears.
type trigger struct {
	kind  types.EventKind
	floor int
	run   func()
}

func react(t *testing.T, e *Elevator, triggers []trigger) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	sub := e.Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fired := make([]bool, len(triggers))
		for ev := range sub {
			for i, tr := range triggers {
				if !fired[i] && ev.Kind == tr.kind && ev.Floor == tr.floor {
					fired[i] = true
					tr.run()
				}
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func doorStops(events []types.Event) []int {
	var floors []int
	for _, ev := range events {
		if ev.Kind == types.EventDoorsOpened {
			floors = append(floors, ev.Floor)
		}
	}
	return floors
}

func reversals(events []types.Event) int {
	n := 0
	for _, ev := range events {
		if ev.Reversal() {
			n++
		}
	}
	return n
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// The reference walkthrough: a down call far above pulls the car up, new
// calls land while it is moving, the mismatched down call at 9 is passed
// on the way up and served on the way down, and the up call behind the
// car waits for the final reversal.
func TestRunReferenceWalkthrough(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	react(t, e, []trigger{
		{types.EventArrived, 3, func() {
			submitHall(t, e, 5, types.DirUp)
			submitHall(t, e, 2, types.DirUp)
		}},
		{types.EventDoorsOpened, 5, func() { submitCab(t, e, 8) }},
		{types.EventDoorsOpened, 8, func() { submitHall(t, e, 15, types.DirDown) }},
		{types.EventDoorsOpened, 15, func() { submitCab(t, e, 11) }},
		{types.EventDoorsOpened, 9, func() { submitCab(t, e, 0) }},
	})

	submitHall(t, e, 9, types.DirDown)
	waitIdle(t, e)

	evs := e.Events()
	want := []int{5, 8, 15, 11, 9, 0, 2}
	if got := doorStops(evs); !sameInts(got, want) {
		t.Errorf("stop sequence = %v, want %v", got, want)
	}
	if got := reversals(evs); got != 2 {
		t.Errorf("reversals = %d, want 2", got)
	}
}

// An up call from a floor the car has already passed waits until the
// upward work is done.
func TestRunPassedFloorWaitsForReturnLeg(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	react(t, e, []trigger{
		{types.EventArrived, 3, func() { submitHall(t, e, 2, types.DirUp) }},
		{types.EventDoorsOpened, 7, func() { submitCab(t, e, 10) }},
		{types.EventDoorsOpened, 2, func() { submitCab(t, e, 5) }},
	})

	submitHall(t, e, 7, types.DirUp)
	waitIdle(t, e)

	evs := e.Events()
	want := []int{7, 10, 2, 5}
	if got := doorStops(evs); !sameInts(got, want) {
		t.Errorf("stop sequence = %v, want %v", got, want)
	}
	if got := reversals(evs); got != 2 {
		t.Errorf("reversals = %d, want 2", got)
	}
}

// A down call at 18 is passed while a cab target at 20 is still above,
// then served first on the way back down.
func TestRunHighCallBlocksTurnaround(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	react(t, e, []trigger{
		{types.EventArrived, 3, func() { submitHall(t, e, 2, types.DirUp) }},
		{types.EventDoorsOpened, 7, func() {
			submitCab(t, e, 15)
			submitHall(t, e, 18, types.DirDown)
		}},
		{types.EventDoorsOpened, 15, func() { submitCab(t, e, 20) }},
		{types.EventDoorsOpened, 18, func() { submitCab(t, e, 0) }},
		{types.EventDoorsOpened, 2, func() { submitCab(t, e, 10) }},
	})

	submitHall(t, e, 7, types.DirUp)
	waitIdle(t, e)

	evs := e.Events()
	want := []int{7, 15, 20, 18, 0, 2, 10}
	if got := doorStops(evs); !sameInts(got, want) {
		t.Errorf("stop sequence = %v, want %v", got, want)
	}
	if got := reversals(evs); got != 2 {
		t.Errorf("reversals = %d, want 2", got)
	}
}

func TestRunStaysInsideTrack(t *testing.T) {
	cfg := testConfig()
	cfg.Elevator.MaxFloor = 4
	cfg.Scheduling.Algorithm = types.SCAN
	e, _ := startCar(t, cfg, testMock(cfg, 2))

	submitCab(t, e, 4)
	submitCab(t, e, 0)
	submitHall(t, e, 0, types.DirUp)
	submitHall(t, e, 4, types.DirDown)
	waitIdle(t, e)

	for _, ev := range e.Events() {
		if ev.Kind == types.EventHalted {
			t.Fatalf("car halted: %v", ev)
		}
		if ev.Kind == types.EventArrived && (ev.Floor < 0 || ev.Floor > 4) {
			t.Fatalf("arrived outside the track: %v", ev)
		}
	}
}

func TestRunHardwareFaultIsTerminal(t *testing.T) {
	cfg := testConfig()
	mock := testMock(cfg, 0)
	stall := errors.New("stalled motor")
	mock.FailMoveTo(2, stall)

	e, done := startCar(t, cfg, mock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := e.Subscribe(ctx)

	submitCab(t, e, 3)

	var runErr error
	select {
	case runErr = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run never returned after the fault")
	}

	var hwErr *types.HardwareError
	if !errors.As(runErr, &hwErr) {
		t.Fatalf("Run returned %v, want a HardwareError", runErr)
	}
	if !errors.Is(runErr, stall) {
		t.Errorf("Run error %v does not wrap the injected fault", runErr)
	}

	var last types.Event
	for ev := range sub {
		last = ev
	}
	if last.Kind != types.EventHalted {
		t.Errorf("stream ended with %v, want the terminal halt event", last)
	}
	if last.Floor != 1 {
		t.Errorf("halt event floor = %d, want 1", last.Floor)
	}
}

func TestWithdrawnRequestIsNeverServed(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	id := submitCab(t, e, 5)
	if !e.Withdraw(id) {
		t.Fatal("Withdraw of a pending request = false")
	}
	if e.Withdraw(id) {
		t.Error("second Withdraw of the same request = true")
	}
	if e.Withdraw("never-issued") {
		t.Error("Withdraw of an unknown id = true")
	}

	waitIdle(t, e)
	if stops := doorStops(e.Events()); len(stops) != 0 {
		t.Errorf("car stopped at %v for a withdrawn request", stops)
	}
}

func TestRunSubmissionRejections(t *testing.T) {
	cfg := testConfig()
	e, err := New(cfg, testMock(cfg, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.SubmitHallCall(21, types.DirUp); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("hall call above the track: %v, want ErrOutOfRange", err)
	}
	if _, err := e.SubmitHallCall(20, types.DirUp); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("up call from the top floor: %v, want ErrOutOfRange", err)
	}
	if _, err := e.SubmitCabCall(-1); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("cab target below the track: %v, want ErrOutOfRange", err)
	}

	if _, err := e.SubmitHallCall(5, types.DirUp); err != nil {
		t.Fatalf("first hall call: %v", err)
	}
	if _, err := e.SubmitHallCall(5, types.DirUp); !errors.Is(err, types.ErrDuplicateRequest) {
		t.Errorf("repeated hall call: %v, want ErrDuplicateRequest", err)
	}
	if _, err := e.SubmitCabCall(8); err != nil {
		t.Fatalf("first cab call: %v", err)
	}
	if _, err := e.SubmitCabCall(8); !errors.Is(err, types.ErrDuplicateRequest) {
		t.Errorf("repeated cab call: %v, want ErrDuplicateRequest", err)
	}
}

func TestSubmitCabCallAtCurrentFloorCompletesImmediately(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	// Park the car at 1 first so the loop is provably past startup.
	submitCab(t, e, 1)
	waitIdle(t, e)
	before := len(e.Events())

	id, err := e.SubmitCabCall(1)
	if err != nil {
		t.Fatalf("SubmitCabCall at the current floor: %v", err)
	}
	if id == "" {
		t.Fatal("SubmitCabCall at the current floor returned an empty id")
	}
	if got := e.State().Pending; got != 0 {
		t.Errorf("Pending = %d after an immediately completed call, want 0", got)
	}
	if e.Withdraw(id) {
		t.Error("Withdraw of an already completed request = true")
	}

	time.Sleep(3 * cfg.Dwell())
	if got := len(e.Events()); got != before {
		t.Errorf("%d new events recorded for an immediately completed call", got-before)
	}
}

// Calls landing at the served floor while the doors are open fold into
// the same stop instead of scheduling another one.
func TestRunDwellAbsorbsSameFloorArrivals(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 2))

	react(t, e, []trigger{
		{types.EventDoorsOpened, 2, func() { submitHall(t, e, 2, types.DirDown) }},
	})

	submitHall(t, e, 2, types.DirUp)
	waitIdle(t, e)

	evs := e.Events()
	if got := doorStops(evs); !sameInts(got, []int{2}) {
		t.Errorf("stop sequence = %v, want a single stop at 2", got)
	}
	for _, ev := range evs {
		if ev.Kind == types.EventArrived {
			t.Errorf("car moved to serve its own floor: %v", ev)
		}
	}
}

func TestRunServesEveryRequestExactlyOnce(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 10))

	ids := []string{
		submitHall(t, e, 3, types.DirUp),
		submitHall(t, e, 7, types.DirDown),
		submitHall(t, e, 0, types.DirUp),
		submitHall(t, e, 20, types.DirDown),
		submitCab(t, e, 5),
		submitCab(t, e, 15),
		submitCab(t, e, 1),
	}
	waitIdle(t, e)

	if got := e.State().Pending; got != 0 {
		t.Fatalf("Pending = %d after quiescence, want 0", got)
	}
	for _, id := range ids {
		if e.Withdraw(id) {
			t.Errorf("request %s still withdrawable after being served", id)
		}
	}
}

func TestForecastMatchesDrivenRoute(t *testing.T) {
	cfg := testConfig()
	e, err := New(cfg, testMock(cfg, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hallID, err := e.SubmitHallCall(5, types.DirUp)
	if err != nil {
		t.Fatalf("SubmitHallCall: %v", err)
	}
	cabID, err := e.SubmitCabCall(8)
	if err != nil {
		t.Fatalf("SubmitCabCall: %v", err)
	}

	if got := e.ForecastStops(); !sameInts(got, []int{5, 8}) {
		t.Fatalf("ForecastStops = %v, want [5 8]", got)
	}
	if eta, ok := e.EstimateWait(hallID); !ok || eta != 5*cfg.Travel() {
		t.Errorf("EstimateWait(hall) = %v, %v, want %v", eta, ok, 5*cfg.Travel())
	}
	if eta, ok := e.EstimateWait(cabID); !ok || eta != 8*cfg.Travel()+cfg.Dwell() {
		t.Errorf("EstimateWait(cab) = %v, %v, want %v", eta, ok, 8*cfg.Travel()+cfg.Dwell())
	}
	if _, ok := e.EstimateWait("never-issued"); ok {
		t.Error("EstimateWait of an unknown id = true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitIdle(t, e)
	if got := doorStops(e.Events()); !sameInts(got, []int{5, 8}) {
		t.Errorf("driven stops = %v, forecast promised [5 8]", got)
	}
}

func TestSubscribeReplaysCompletedRun(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	submitCab(t, e, 2)
	waitIdle(t, e)

	evs := e.Events()
	if len(evs) == 0 {
		t.Fatal("no events recorded")
	}

	for replay := 0; replay < 2; replay++ {
		ctx, cancel := context.WithCancel(context.Background())
		sub := e.Subscribe(ctx)
		for i, want := range evs {
			select {
			case got := <-sub:
				if got != want {
					t.Fatalf("replay %d event %d = %v, want %v", replay, i, got, want)
				}
			case <-time.After(time.Second):
				t.Fatalf("replay %d stalled at event %d", replay, i)
			}
		}
		cancel()
	}
}

func TestRunRefusesSecondStart(t *testing.T) {
	cfg := testConfig()
	e, _ := startCar(t, cfg, testMock(cfg, 0))

	// Park the car at 1 first so the loop is provably past startup.
	submitCab(t, e, 1)
	waitIdle(t, e)

	if err := e.Run(context.Background()); err == nil {
		t.Fatal("second Run returned nil")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduling.Algorithm = "elevator-pitch"
	if _, err := New(cfg, testMock(cfg, 0)); !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Fatalf("New with unknown algorithm: %v, want ErrInvalidConfiguration", err)
	}

	cfg = testConfig()
	cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor = 5, 5
	if _, err := New(cfg, testMock(cfg, 5)); !errors.Is(err, types.ErrInvalidConfiguration) {
		t.Fatalf("New with empty track: %v, want ErrInvalidConfiguration", err)
	}
}
