package experiment

import (
	"errors"

	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/trial"
)

// ErrCategoryFull is returned when a category already holds its share of samples.
var ErrCategoryFull = errors.New("category sample list is full")

// Samples is an ordered list of reaction times (µs) with a fixed capacity.
type Samples struct {
	values   []uint64
	capacity int
}

func newSamples(capacity int) *Samples {
	return &Samples{values: make([]uint64, 0, capacity), capacity: capacity}
}

// Append adds v unless the list is full.
func (s *Samples) Append(v uint64) error {
	if len(s.values) >= s.capacity {
		return ErrCategoryFull
	}
	s.values = append(s.values, v)
	return nil
}

// Len returns the number of samples.
func (s *Samples) Len() int { return len(s.values) }

// Full reports whether the list reached its capacity.
func (s *Samples) Full() bool { return len(s.values) >= s.capacity }

// Values returns a copy of the samples in capture order.
func (s *Samples) Values() []uint64 {
	out := make([]uint64, len(s.values))
	copy(out, s.values)
	return out
}

// Mean is the integer mean, or 0 when empty.
func (s *Samples) Mean() uint64 {
	if len(s.values) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range s.values {
		sum += v
	}
	return sum / uint64(len(s.values))
}

// Stats accumulates the outcome counters of a session.
type Stats struct {
	total   int
	samples map[trial.Category]*Samples
	early   map[trial.Category]int
	wrong   map[trial.Category]int
}

// NewStats creates counters for trialCount trials, half per category.
func NewStats(trialCount int) *Stats {
	s := &Stats{
		total:   trialCount,
		samples: make(map[trial.Category]*Samples, trial.NumCategories),
		early:   make(map[trial.Category]int, trial.NumCategories),
		wrong:   make(map[trial.Category]int, trial.NumCategories),
	}
	for _, c := range trial.Categories {
		s.samples[c] = newSamples(trialCount / trial.NumCategories)
	}
	return s
}

// Record stores a correct reaction time for c.
func (s *Stats) Record(c trial.Category, micros uint64) error {
	return s.samples[c].Append(micros)
}

// Early counts a premature touch on c.
func (s *Stats) Early(c trial.Category) { s.early[c]++ }

// Wrong counts a wrong-sensor touch on c.
func (s *Stats) Wrong(c trial.Category) { s.wrong[c]++ }

// Samples returns the sample list of c.
func (s *Stats) Samples(c trial.Category) *Samples { return s.samples[c] }

// EarlyCount returns the early counter of c.
func (s *Stats) EarlyCount(c trial.Category) int { return s.early[c] }

// WrongCount returns the wrong counter of c.
func (s *Stats) WrongCount(c trial.Category) int { return s.wrong[c] }

// Captured is the number of samples over both categories.
func (s *Stats) Captured() int {
	n := 0
	for _, l := range s.samples {
		n += l.Len()
	}
	return n
}

// Complete reports whether every trial has a sample.
func (s *Stats) Complete() bool {
	return s.Captured() >= s.total
}

// Summary computes the final record.
func (s *Stats) Summary() protocol.Summary {
	normal := s.samples[trial.Normal].Mean()
	disgust := s.samples[trial.Disgust].Mean()
	return protocol.Summary{
		NormalAverage:  normal,
		DisgustAverage: disgust,
		TotalAverage:   (normal + disgust) / 2,
		NormalEarly:    s.early[trial.Normal],
		DisgustEarly:   s.early[trial.Disgust],
		NormalWrong:    s.wrong[trial.Normal],
		DisgustWrong:   s.wrong[trial.Disgust],
	}
}
