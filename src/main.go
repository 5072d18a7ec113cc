// liftsim runs a single simulated elevator car: a control loop scheduling
// hall calls and cab targets over a mock or physical backend, with panel
// input, scripted scenarios and an event log for observers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"liftsim/src/config"
	"liftsim/src/elevator"
	"liftsim/src/hardware"
	"liftsim/src/logger"
	"liftsim/src/types"
)

const defaultElevioAddr = "localhost:15657"

func main() {
	configPath := flag.String("config", "liftsim.yaml", "path to the YAML config file")
	algorithm := flag.String("algorithm", "", "override the scheduling algorithm (look, scan, sstf)")
	backend := flag.String("backend", "mock", "hardware backend: mock or elevio")
	floors := flag.String("floors", "", "override the floor range, as min:max")
	start := flag.Int("start", 0, "start floor for the mock backend")
	scenario := flag.String("scenario", "", "run a scripted scenario, print the event log and exit; 'walkthrough' runs the built-in demo")
	interactive := flag.Bool("interactive", false, "read panel input from the keyboard")
	flag.Parse()

	// Optional .env, loaded before the config so its variables override the
	// file.
	_ = godotenv.Load()
	log := logger.GetLoggerConfigured(logger.ParseLevel(os.Getenv("LIFTSIM_LOG_LEVEL")))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration rejected")
	}
	if *algorithm != "" {
		cfg.Scheduling.Algorithm = types.Algorithm(*algorithm)
	}
	if *floors != "" {
		min, max, err := parseRange(*floors)
		if err != nil {
			log.Fatal().Err(err).Str("floors", *floors).Msg("bad floor range")
		}
		cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor = min, max
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hw elevator.Hardware
	var buttons <-chan hardware.ButtonPress
	switch *backend {
	case "mock":
		hw = hardware.NewMock(cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor, *start,
			cfg.Travel(), 0)
	case "elevio":
		addr := os.Getenv("LIFTSIM_ELEVIO_ADDR")
		if addr == "" {
			addr = defaultElevioAddr
		}
		elevio, err := hardware.NewElevio(addr, cfg.Elevator.MinFloor, cfg.Elevator.MaxFloor,
			10*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("elevator server unreachable")
		}
		hw = elevio
		buttons = elevio.Buttons()
	default:
		log.Fatal().Str("backend", *backend).Msg("unknown backend")
	}

	eng, err := elevator.New(cfg, hw)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration rejected")
	}

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	go watchEvents(ctx, eng, hw)
	if buttons != nil {
		go feedButtons(ctx, eng, buttons)
	}
	if *interactive {
		go panel(ctx, stop, eng)
	}

	if *scenario != "" {
		if err := runScenario(ctx, eng, *scenario); err != nil {
			log.Fatal().Err(err).Msg("scenario failed")
		}
		stop()
	}

	switch err := <-runErr; {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info().Msg("shut down")
	default:
		log.Error().Err(err).Msg("control loop failed")
		os.Exit(1)
	}
}

// watchEvents mirrors the event log to the logger and, for backends with
// button lamps, keeps the lamps in sync with the pending requests.
func watchEvents(ctx context.Context, eng *elevator.Elevator, hw elevator.Hardware) {
	log := logger.GetLogger()
	lamps, hasLamps := hw.(hardware.LampSyncer)
	for ev := range eng.Subscribe(ctx) {
		log.Info().Stringer("event", ev).Msg("event")
		if hasLamps {
			pending := eng.Pending()
			lamps.SyncLamps(pending.Up, pending.Down, pending.Cabs)
		}
	}
}

// feedButtons turns physical panel presses into submissions. Rejections
// are expected here: pressing a lit button again is a duplicate.
func feedButtons(ctx context.Context, eng *elevator.Elevator, buttons <-chan hardware.ButtonPress) {
	log := logger.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case press := <-buttons:
			var err error
			if press.Kind == types.CabCall {
				_, err = eng.SubmitCabCall(press.Floor)
			} else {
				_, err = eng.SubmitHallCall(press.Floor, press.Direction)
			}
			if err != nil {
				log.Debug().Err(err).Int("floor", press.Floor).Msg("button press ignored")
			}
		}
	}
}

func parseRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected min:max")
	}
	min, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, err
	}
	max, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}
