package results

import (
	"github.com/itohio/reactiontest/pkg/trial"
	"github.com/montanaflynn/stats"
)

// Description summarizes a set of reaction times in milliseconds.
type Description struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes descriptive statistics of reaction times given in
// microseconds. An empty input yields a zero Description.
func Describe(micros []uint64) Description {
	if len(micros) == 0 {
		return Description{}
	}

	data := make(stats.Float64Data, len(micros))
	for i, v := range micros {
		data[i] = float64(v) / 1000.0
	}

	// errors only occur on empty input
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)

	return Description{
		N:      len(micros),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
	}
}

// Describe returns statistics of successful trials of category c.
func (s *Session) Describe(c trial.Category) Description {
	return Describe(s.ReactionTimes(c))
}

// DescribeAll returns statistics of all successful trials.
func (s *Session) DescribeAll() Description {
	var all []uint64
	for _, c := range trial.Categories {
		all = append(all, s.ReactionTimes(c)...)
	}
	return Describe(all)
}
