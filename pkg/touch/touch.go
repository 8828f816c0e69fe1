// Package touch turns raw touch-pad readings into a touched/not-touched vector.
//
// A capacitive pad reads lower when touched. Each pad is calibrated once from
// an idle reading; a reading below the calibrated threshold counts as a touch.
package touch

import "github.com/chewxy/math32"

// DefaultThresholdFraction is the share of the idle reading below which a pad
// counts as touched.
const DefaultThresholdFraction float32 = 0.75

// Reader reads the raw level of one sensor.
type Reader interface {
	ReadTouch(sensor int) uint16
}

// Calibration holds per-sensor thresholds. It is fixed for a session.
type Calibration struct {
	Baseline   []uint16
	Thresholds []uint16
}

// Calibrate computes threshold = baseline * fraction for every sensor,
// truncated towards zero.
func Calibrate(baseline []uint16, fraction float32) Calibration {
	cal := Calibration{
		Baseline:   make([]uint16, len(baseline)),
		Thresholds: make([]uint16, len(baseline)),
	}
	copy(cal.Baseline, baseline)
	for i, b := range baseline {
		cal.Thresholds[i] = uint16(math32.Floor(float32(b) * fraction))
	}
	return cal
}

// CalibrateFrom takes one idle reading from each of n sensors and calibrates.
func CalibrateFrom(r Reader, n int, fraction float32) Calibration {
	return Calibrate(ReadAll(r, n), fraction)
}

// ReadAll reads sensors 0..n-1 once.
func ReadAll(r Reader, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.ReadTouch(i)
	}
	return out
}

// Touches is one flag per sensor.
type Touches []bool

// Any reports whether at least one sensor is touched.
func (t Touches) Any() bool {
	for _, v := range t {
		if v {
			return true
		}
	}
	return false
}

// Touched returns the indices of touched sensors.
func (t Touches) Touched() []int {
	var out []int
	for i, v := range t {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Sampler compares live readings with a calibration.
type Sampler struct {
	r   Reader
	cal Calibration
	buf Touches
}

// NewSampler creates a sampler over len(cal.Thresholds) sensors.
func NewSampler(r Reader, cal Calibration) *Sampler {
	return &Sampler{
		r:   r,
		cal: cal,
		buf: make(Touches, len(cal.Thresholds)),
	}
}

// Sample reads every sensor. The returned slice is reused by the next call.
func (s *Sampler) Sample() Touches {
	for i, th := range s.cal.Thresholds {
		s.buf[i] = s.r.ReadTouch(i) < th
	}
	return s.buf
}

// Calibration returns the thresholds in use.
func (s *Sampler) Calibration() Calibration {
	return s.cal
}

// Stuck returns sensors that cannot work: the threshold is zero (the pad idled
// at or near zero during calibration and can never register a touch), or a
// fresh reading of the idle pad already counts as touched. Call it while
// nobody touches the pads.
func (s *Sampler) Stuck() []int {
	var out []int
	for i, th := range s.cal.Thresholds {
		if th == 0 || s.r.ReadTouch(i) < th {
			out = append(out, i)
		}
	}
	return out
}

// NoiseSigmas is how many standard deviations of idle noise must fit between
// the baseline and the threshold.
const NoiseSigmas float32 = 3

// Noisy reads every idle pad reads times and returns those whose drift from
// the baseline plus NoiseSigmas standard deviations reaches the threshold.
// Such pads are likely to report touches nobody made.
func (s *Sampler) Noisy(reads int) []int {
	if reads <= 0 {
		return nil
	}
	var out []int
	values := make([]float32, reads)
	for i, th := range s.cal.Thresholds {
		for k := range values {
			values[k] = float32(s.r.ReadTouch(i))
		}
		mean, sd := meanStdDev(values)
		gap := float32(s.cal.Baseline[i]) - float32(th)
		if math32.Abs(mean-float32(s.cal.Baseline[i]))+NoiseSigmas*sd >= gap {
			out = append(out, i)
		}
	}
	return out
}

func meanStdDev(values []float32) (mean, sd float32) {
	for _, v := range values {
		mean += v
	}
	mean /= float32(len(values))
	var sq float32
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math32.Sqrt(sq / float32(len(values)))
}

// Seed mixes idle sensor noise with a clock reading into a random seed.
func Seed(readings []uint16, micros uint64) int64 {
	seed := micros
	for _, r := range readings {
		seed ^= uint64(r)
	}
	return int64(seed)
}
