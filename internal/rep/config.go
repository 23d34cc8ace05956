package rep

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownExercise is returned for an exercise the engine has no table row for.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrInvalidConfig is returned when a tuning cannot drive the state machine.
	ErrInvalidConfig = errors.New("invalid detector config")
)

// Engine-wide defaults.
const (
	// NeutralAngle is the fully extended reference every ROM is measured from.
	NeutralAngle = 180.0
	// DefaultAlpha is the EMA factor applied to the raw joint angle.
	DefaultAlpha = 0.3
	// DefaultMinRepDurationMs rejects repetitions shorter than this as noise spikes.
	DefaultMinRepDurationMs = 300
)

// Config is the immutable tuning of one detector.
// Thresholds are in degrees of the bound joint angle; lower means more flexed.
type Config struct {
	Exercise Exercise `json:"exercise" yaml:"exercise"`
	Side     Side     `json:"side" yaml:"side"`

	// DownThreshold starts a repetition when the angle drops below it.
	DownThreshold float64 `json:"down_threshold" yaml:"down_threshold"`
	// BottomThreshold marks sufficient depth.
	BottomThreshold float64 `json:"bottom_threshold" yaml:"bottom_threshold"`
	// UpThreshold completes (or aborts) a repetition when the angle rises above it.
	UpThreshold float64 `json:"up_threshold" yaml:"up_threshold"`
	// Hysteresis is added to BottomThreshold before leaving the bottom phase.
	Hysteresis float64 `json:"hysteresis" yaml:"hysteresis"`
	// ROMTarget is the flexion, in degrees from NeutralAngle, that earns full ROM points.
	ROMTarget float64 `json:"rom_target" yaml:"rom_target"`

	Alpha            float64 `json:"alpha" yaml:"alpha"`
	MinRepDurationMs int64   `json:"min_rep_duration_ms" yaml:"min_rep_duration_ms"`
	// MinVisibility treats landmarks below this confidence as absent. 0 disables the check.
	MinVisibility float64 `json:"min_visibility" yaml:"min_visibility"`
}

type thresholds struct {
	down, bottom, up, hysteresis, romTarget float64
}

var exerciseTable = map[Exercise]thresholds{
	Squat:            {down: 110, bottom: 95, up: 160, hysteresis: 10, romTarget: 90},
	StraightLegRaise: {down: 165, bottom: 110, up: 165, hysteresis: 10, romTarget: 90},
	ElbowFlexion:     {down: 150, bottom: 60, up: 160, hysteresis: 15, romTarget: 135},
}

// DefaultConfig returns the stock tuning for an exercise and side.
func DefaultConfig(ex Exercise, side Side) (Config, error) {
	t, ok := exerciseTable[ex]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownExercise, ex)
	}
	if side == "" {
		side = Left
	}

	cfg := Config{
		Exercise:         ex,
		Side:             side,
		DownThreshold:    t.down,
		BottomThreshold:  t.bottom,
		UpThreshold:      t.up,
		Hysteresis:       t.hysteresis,
		ROMTarget:        t.romTarget,
		Alpha:            DefaultAlpha,
		MinRepDurationMs: DefaultMinRepDurationMs,
	}
	return cfg, cfg.Validate()
}

// Validate reports whether the config can drive the state machine.
func (c Config) Validate() error {
	if _, ok := exerciseTable[c.Exercise]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownExercise, c.Exercise)
	}
	if c.Side != Left && c.Side != Right {
		return fmt.Errorf("%w: side %q", ErrInvalidConfig, c.Side)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v outside (0, 1]", ErrInvalidConfig, c.Alpha)
	}
	if c.BottomThreshold >= c.DownThreshold {
		return fmt.Errorf("%w: bottom threshold %v must be below down threshold %v",
			ErrInvalidConfig, c.BottomThreshold, c.DownThreshold)
	}
	if c.UpThreshold < c.DownThreshold {
		return fmt.Errorf("%w: up threshold %v must not be below down threshold %v",
			ErrInvalidConfig, c.UpThreshold, c.DownThreshold)
	}
	if c.Hysteresis < 0 || c.BottomThreshold+c.Hysteresis > c.UpThreshold {
		return fmt.Errorf("%w: hysteresis %v out of range", ErrInvalidConfig, c.Hysteresis)
	}
	if c.ROMTarget <= 0 {
		return fmt.Errorf("%w: rom target must be positive", ErrInvalidConfig)
	}
	if c.MinRepDurationMs < 0 {
		return fmt.Errorf("%w: negative min rep duration", ErrInvalidConfig)
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		return fmt.Errorf("%w: min visibility %v outside [0, 1]", ErrInvalidConfig, c.MinVisibility)
	}
	return nil
}
