package trial

import "fmt"

// NoSensor marks a trial that targets a whole category.
const NoSensor = -1

// Trial is one slot of the session order.
type Trial struct {
	Category Category
	Sensor   int // NoSensor under TargetCategory
}

// Targets returns the sensors that count as a correct response to t.
func (t Trial) Targets(l Layout) []int {
	if t.Sensor != NoSensor {
		return []int{t.Sensor}
	}
	return l.Sensors(t.Category)
}

// Rand is the random source used for shuffling. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Sequence is the counterbalanced order of trials in a session.
// Trials before the session cursor are never reordered.
type Sequence struct {
	trials []Trial
	rng    Rand
}

// Generate builds count trials, half per category, and shuffles them.
// Under TargetSensor each sensor of the layout also receives count/len(layout)
// trials, so count must be a multiple of the sensor count.
func Generate(count int, targeting Targeting, layout Layout, rng Rand) (*Sequence, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if count <= 0 || count%NumCategories != 0 {
		return nil, fmt.Errorf("%w: %d trials over %d categories", ErrUnbalancedCount, count, NumCategories)
	}

	trials := make([]Trial, 0, count)
	switch targeting {
	case TargetSensor:
		if count%len(layout) != 0 {
			return nil, fmt.Errorf("%w: %d trials over %d sensors", ErrUnbalancedCount, count, len(layout))
		}
		for i := 0; i < count/len(layout); i++ {
			for s, c := range layout {
				trials = append(trials, Trial{Category: c, Sensor: s})
			}
		}
	case TargetCategory:
		for i := 0; i < count/NumCategories; i++ {
			for _, c := range Categories {
				trials = append(trials, Trial{Category: c, Sensor: NoSensor})
			}
		}
	default:
		return nil, fmt.Errorf("unknown targeting %d", targeting)
	}

	s := &Sequence{trials: trials, rng: rng}
	shuffle(s.trials, rng)
	return s, nil
}

// FromTrials wraps a fixed order. Used to replay and to test sessions.
func FromTrials(trials []Trial, rng Rand) *Sequence {
	out := make([]Trial, len(trials))
	copy(out, trials)
	return &Sequence{trials: out, rng: rng}
}

// Validate checks that s can drive a session of count trials: half per
// category, and every sensor assignment consistent with layout and targeting.
func (s *Sequence) Validate(count int, targeting Targeting, layout Layout) error {
	if len(s.trials) != count {
		return fmt.Errorf("%w: %d trials, want %d", ErrLengthMismatch, len(s.trials), count)
	}

	var counts [NumCategories]int
	for i, t := range s.trials {
		if int(t.Category) >= NumCategories {
			return fmt.Errorf("%w: trial %d", ErrUnknownCategory, i+1)
		}
		counts[t.Category]++

		if (targeting == TargetCategory) != (t.Sensor == NoSensor) {
			return fmt.Errorf("%w: trial %d sensor %d under %s targeting", ErrTargetMismatch, i+1, t.Sensor, targeting)
		}
		if t.Sensor == NoSensor {
			continue
		}
		if t.Sensor < 0 || t.Sensor >= len(layout) {
			return fmt.Errorf("%w: trial %d sensor %d of %d", ErrSensorRange, i+1, t.Sensor, len(layout))
		}
		if layout[t.Sensor] != t.Category {
			return fmt.Errorf("%w: trial %d is %s, sensor %d is %s", ErrSensorCategory, i+1, t.Category, t.Sensor, layout[t.Sensor])
		}
	}

	for _, c := range Categories {
		if counts[c] != count/NumCategories {
			return fmt.Errorf("%w: %d %s trials of %d", ErrUnbalanced, counts[c], c, count)
		}
	}
	return nil
}

// ReshuffleRemaining reorders trials[from:] in place; earlier trials keep
// their positions.
func (s *Sequence) ReshuffleRemaining(from int) {
	if from < 0 || from >= len(s.trials) {
		return
	}
	shuffle(s.trials[from:], s.rng)
}

// Current returns the trial at index.
func (s *Sequence) Current(index int) (Trial, error) {
	if index < 0 || index >= len(s.trials) {
		return Trial{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfBounds, index, len(s.trials))
	}
	return s.trials[index], nil
}

// Len returns the total number of trials.
func (s *Sequence) Len() int {
	return len(s.trials)
}

// Trials returns a copy of the whole order.
func (s *Sequence) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Count returns how many trials belong to c.
func (s *Sequence) Count(c Category) int {
	n := 0
	for _, t := range s.trials {
		if t.Category == c {
			n++
		}
	}
	return n
}

// shuffle is a Fisher-Yates pass from the last element down.
func shuffle(trials []Trial, rng Rand) {
	for i := len(trials) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		trials[i], trials[j] = trials[j], trials[i]
	}
}
