// Startup configuration: defaults, optional yaml file, environment
// overrides. Read once at boot and treated as immutable afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"liftsim/src/types"
)

const (
	DefaultMinFloor = 0
	DefaultMaxFloor = 20
	DefaultDwellMs  = 1500
	DefaultTravelMs = 1000

	DefaultRequestWeight      = 2
	DefaultTargetWeight       = 5
	DefaultMinDistanceFactor  = 1
	DefaultProximityThreshold = 1
)

type Config struct {
	Elevator   ElevatorConfig   `yaml:"elevator"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Timing     TimingConfig     `yaml:"timing"`
}

type ElevatorConfig struct {
	MinFloor int `yaml:"min_floor"`
	MaxFloor int `yaml:"max_floor"`
}

type SchedulingConfig struct {
	Algorithm types.Algorithm `yaml:"algorithm"`
	Weights   Weights         `yaml:"weights"`
}

// Weights tune the direction scoring used when pending requests exist on
// both sides of the car. MinDistanceFactor doubles as a division floor.
type Weights struct {
	Request            int `yaml:"request"`
	Target             int `yaml:"target"`
	MinDistanceFactor  int `yaml:"min_distance_factor"`
	ProximityThreshold int `yaml:"proximity_threshold"`
}

type TimingConfig struct {
	DwellMs  int `yaml:"dwell_ms"`
	TravelMs int `yaml:"travel_ms"`
}

func (t TimingConfig) Dwell() time.Duration {
	return time.Duration(t.DwellMs) * time.Millisecond
}

func (t TimingConfig) Travel() time.Duration {
	return time.Duration(t.TravelMs) * time.Millisecond
}

func (c Config) Dwell() time.Duration  { return c.Timing.Dwell() }
func (c Config) Travel() time.Duration { return c.Timing.Travel() }

func Default() Config {
	return Config{
		Elevator: ElevatorConfig{
			MinFloor: DefaultMinFloor,
			MaxFloor: DefaultMaxFloor,
		},
		Scheduling: SchedulingConfig{
			Algorithm: types.LOOK,
			Weights: Weights{
				Request:            DefaultRequestWeight,
				Target:             DefaultTargetWeight,
				MinDistanceFactor:  DefaultMinDistanceFactor,
				ProximityThreshold: DefaultProximityThreshold,
			},
		},
		Timing: TimingConfig{
			DwellMs:  DefaultDwellMs,
			TravelMs: DefaultTravelMs,
		},
	}
}

// Load reads the config file at path over the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	c := Default()

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&c); err != nil {
			return c, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return c, fmt.Errorf("open %s: %w", path, err)
	}

	applyEnv(&c)

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("LIFTSIM_ALGORITHM"); v != "" {
		c.Scheduling.Algorithm = types.Algorithm(v)
	}
	if v, ok := envInt("LIFTSIM_MIN_FLOOR"); ok {
		c.Elevator.MinFloor = v
	}
	if v, ok := envInt("LIFTSIM_MAX_FLOOR"); ok {
		c.Elevator.MaxFloor = v
	}
	if v, ok := envInt("LIFTSIM_DWELL_MS"); ok {
		c.Timing.DwellMs = v
	}
	if v, ok := envInt("LIFTSIM_TRAVEL_MS"); ok {
		c.Timing.TravelMs = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate rejects configurations the scheduler cannot run with. All
// failures wrap ErrInvalidConfiguration so callers can fail fast on it.
func (c Config) Validate() error {
	if c.Elevator.MinFloor >= c.Elevator.MaxFloor {
		return fmt.Errorf("%w: min_floor %d must be below max_floor %d",
			types.ErrInvalidConfiguration, c.Elevator.MinFloor, c.Elevator.MaxFloor)
	}
	switch c.Scheduling.Algorithm {
	case types.LOOK, types.SCAN, types.SSTF:
	default:
		return fmt.Errorf("%w: unknown algorithm %q",
			types.ErrInvalidConfiguration, c.Scheduling.Algorithm)
	}
	if c.Timing.DwellMs < 0 || c.Timing.TravelMs < 0 {
		return fmt.Errorf("%w: negative timing (dwell_ms=%d, travel_ms=%d)",
			types.ErrInvalidConfiguration, c.Timing.DwellMs, c.Timing.TravelMs)
	}
	w := c.Scheduling.Weights
	if w.Request <= 0 || w.Target <= 0 || w.MinDistanceFactor <= 0 {
		return fmt.Errorf("%w: weights must be positive (request=%d, target=%d, min_distance_factor=%d)",
			types.ErrInvalidConfiguration, w.Request, w.Target, w.MinDistanceFactor)
	}
	if w.ProximityThreshold < 0 {
		return fmt.Errorf("%w: proximity_threshold %d must not be negative",
			types.ErrInvalidConfiguration, w.ProximityThreshold)
	}
	return nil
}
