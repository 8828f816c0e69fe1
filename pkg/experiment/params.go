package experiment

import (
	"errors"
	"fmt"
	"time"

	"github.com/itohio/reactiontest/pkg/touch"
	"github.com/itohio/reactiontest/pkg/trial"
)

// Defaults of the four-pad board.
const (
	DefaultTrialCount     = 12
	DefaultMinWaitSeconds = 3
	DefaultMaxWaitSeconds = 7
	DefaultArmDelay       = 3 * time.Second
	DefaultSettleDelay    = time.Second
)

var (
	ErrOddTrialCount          = errors.New("trial count must be even")
	ErrTrialCountTooSmall     = errors.New("trial count must be at least 4")
	ErrTrialCountNotPerSensor = errors.New("trial count must be a multiple of the sensor count")
	ErrBadInterval            = errors.New("wait interval must satisfy 0 <= min < max")
	ErrBadFraction            = errors.New("threshold fraction must be in (0, 1]")
	ErrBadLayout              = errors.New("invalid sensor layout")
	ErrBadSequence            = errors.New("invalid trial sequence")
)

// Params configures a session.
type Params struct {
	TrialCount        int
	MinWaitSeconds    int // inclusive
	MaxWaitSeconds    int // exclusive
	ThresholdFraction float32
	Targeting         trial.Targeting
	Layout            trial.Layout

	// ArmOnTouch holds the session in NotStarted until the first touch.
	ArmOnTouch  bool
	ArmDelay    time.Duration
	SettleDelay time.Duration
}

// DefaultParams returns the configuration of the four-pad board.
func DefaultParams() Params {
	return Params{
		TrialCount:        DefaultTrialCount,
		MinWaitSeconds:    DefaultMinWaitSeconds,
		MaxWaitSeconds:    DefaultMaxWaitSeconds,
		ThresholdFraction: touch.DefaultThresholdFraction,
		Targeting:         trial.TargetSensor,
		Layout:            trial.DefaultLayout(),
		ArmOnTouch:        true,
		ArmDelay:          DefaultArmDelay,
		SettleDelay:       DefaultSettleDelay,
	}
}

// Validate reports the first configuration error.
func (p Params) Validate() error {
	if err := p.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadLayout, err)
	}
	if p.TrialCount%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrOddTrialCount, p.TrialCount)
	}
	if p.TrialCount < 4 {
		return fmt.Errorf("%w: got %d", ErrTrialCountTooSmall, p.TrialCount)
	}
	if p.Targeting == trial.TargetSensor && p.TrialCount%len(p.Layout) != 0 {
		return fmt.Errorf("%w: %d trials over %d sensors", ErrTrialCountNotPerSensor, p.TrialCount, len(p.Layout))
	}
	if p.MinWaitSeconds < 0 || p.MaxWaitSeconds <= p.MinWaitSeconds {
		return fmt.Errorf("%w: [%d, %d)", ErrBadInterval, p.MinWaitSeconds, p.MaxWaitSeconds)
	}
	if p.ThresholdFraction <= 0 || p.ThresholdFraction > 1 {
		return fmt.Errorf("%w: got %v", ErrBadFraction, p.ThresholdFraction)
	}
	return nil
}

// Sensors returns the number of physical sensors.
func (p Params) Sensors() int {
	return len(p.Layout)
}
