package trial

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups trials and sensors.
type Category uint8

const (
	Normal Category = iota
	Disgust
)

// NumCategories is the number of stimulus categories.
const NumCategories = 2

// Categories lists all categories in report order.
var Categories = [NumCategories]Category{Normal, Disgust}

func (c Category) String() string {
	switch c {
	case Normal:
		return "normal"
	case Disgust:
		return "disgust"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory parses the lower-case category name used on the wire.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "disgust":
		return Disgust, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Outcome is the classification of a response while the stimulus is lit.
type Outcome uint8

const (
	Success Outcome = iota
	Wrong
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "wrong"
}

// ParseOutcome parses "success" or "wrong".
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "success":
		return Success, nil
	case "wrong":
		return Wrong, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Targeting selects how precisely a trial names its correct sensor.
type Targeting uint8

const (
	// TargetSensor trials carry one physical sensor; only that sensor is correct.
	TargetSensor Targeting = iota
	// TargetCategory trials carry only a category; any sensor of it is correct.
	TargetCategory
)

func (t Targeting) String() string {
	if t == TargetCategory {
		return "category"
	}
	return "sensor"
}

// ParseTargeting parses "sensor" or "category".
func ParseTargeting(s string) (Targeting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sensor", "":
		return TargetSensor, nil
	case "category":
		return TargetCategory, nil
	}
	return 0, fmt.Errorf("unknown targeting %q", s)
}

var (
	ErrEmptyLayout      = errors.New("layout has no sensors")
	ErrMissingCategory  = errors.New("layout has a category without sensors")
	ErrUnevenLayout     = errors.New("layout assigns categories an unequal number of sensors")
	ErrUnknownCategory  = errors.New("layout references an unknown category")
	ErrUnbalancedCount  = errors.New("trial count cannot be split evenly")
	ErrIndexOutOfBounds = errors.New("trial index out of bounds")
	ErrLengthMismatch   = errors.New("sequence length differs from the trial count")
	ErrUnbalanced       = errors.New("sequence does not split trials evenly between categories")
	ErrSensorRange      = errors.New("trial sensor is outside the layout")
	ErrSensorCategory   = errors.New("trial sensor belongs to another category")
	ErrTargetMismatch   = errors.New("trial sensor does not match the targeting mode")
)

// Layout maps each physical sensor (by index) to its category.
type Layout []Category

// DefaultLayout is the four-sensor board: sensors 0 and 1 are Normal,
// sensors 2 and 3 are Disgust.
func DefaultLayout() Layout {
	return Layout{Normal, Normal, Disgust, Disgust}
}

// Sensors returns the indices of the sensors that belong to c.
func (l Layout) Sensors(c Category) []int {
	var out []int
	for i, sc := range l {
		if sc == c {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks that every category has the same, non-zero number of sensors.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return ErrEmptyLayout
	}
	var counts [NumCategories]int
	for _, c := range l {
		if int(c) >= NumCategories {
			return ErrUnknownCategory
		}
		counts[c]++
	}
	for _, n := range counts {
		if n == 0 {
			return ErrMissingCategory
		}
		if n != counts[0] {
			return ErrUnevenLayout
		}
	}
	return nil
}
