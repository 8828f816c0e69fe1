package device

import (
	"math/rand"
	"time"

	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/experiment"
	"github.com/itohio/reactiontest/pkg/trial"
)

const (
	simIdleLevel    = 100
	simTouchedLevel = 30
	simTick         = time.Millisecond
	// pacing granularity when Speed > 0; shorter sleeps are too inaccurate
	simPaceChunk = 10 * time.Millisecond
)

// simBoard is an experiment.Host with a virtual clock and a simulated subject
// who watches the indicators.
type simBoard struct {
	cfg     config.MockConfig
	layout  trial.Layout
	minWait time.Duration
	rng     *rand.Rand

	// live is false while the machine is being constructed and calibrated.
	live bool

	now  time.Duration
	owed time.Duration // virtual time not yet paced in real time
	leds []bool

	// pending touch
	pressAt   time.Duration
	releaseAt time.Duration
	sensor    int
	pending   bool

	halted bool
}

var _ experiment.Host = (*simBoard)(nil)

func newSimBoard(cfg config.MockConfig, layout trial.Layout, minWait time.Duration, rng *rand.Rand) *simBoard {
	return &simBoard{
		cfg:     cfg,
		layout:  layout,
		minWait: minWait,
		rng:     rng,
		leds:    make([]bool, len(layout)),
		sensor:  -1,
	}
}

// start lets the subject act; with arm set it touches a pad after a moment.
func (b *simBoard) start(arm bool) {
	b.live = true
	if arm {
		b.schedule(0, b.now+500*time.Millisecond)
	}
}

func (b *simBoard) ReadTouch(sensor int) uint16 {
	noise := uint16(b.rng.Intn(5))
	if b.pending && sensor == b.sensor && b.now >= b.pressAt && b.now < b.releaseAt {
		return simTouchedLevel + noise
	}
	return simIdleLevel + noise
}

func (b *simBoard) SetIndicator(led int, on bool) {
	b.leds[led] = on
	if on && b.live && !b.pending {
		b.react(led)
	}
}

// SetConfirmation(false) marks the start of a wait phase.
func (b *simBoard) SetConfirmation(on bool) {
	if on || !b.live {
		return
	}
	b.pending = false
	if b.minWait > 0 && b.rng.Float64() < b.cfg.EarlyRate {
		at := b.now + time.Duration(b.rng.Int63n(int64(b.minWait)))
		b.schedule(b.rng.Intn(len(b.leds)), at)
	}
}

func (b *simBoard) Millis() uint64 { return uint64(b.now / time.Millisecond) }

func (b *simBoard) Micros() uint64 { return uint64(b.now / time.Microsecond) }

func (b *simBoard) Sleep(d time.Duration) {
	b.advance(d)
}

func (b *simBoard) Halt() { b.halted = true }

// step advances the clock by one loop iteration.
func (b *simBoard) step() {
	b.advance(simTick)
}

func (b *simBoard) advance(d time.Duration) {
	b.now += d
	if b.cfg.Speed <= 0 {
		return
	}
	b.owed += d
	if b.owed >= simPaceChunk {
		time.Sleep(time.Duration(float64(b.owed) / b.cfg.Speed))
		b.owed = 0
	}
}

// react schedules the subject's response to a lit indicator.
func (b *simBoard) react(lit int) {
	reaction := b.cfg.ReactionMean
	if j := int64(b.cfg.ReactionJitter); j > 0 {
		reaction += time.Duration(b.rng.Int63n(2*j+1) - j)
	}
	if reaction < simTick {
		reaction = simTick
	}

	sensor := lit
	if b.rng.Float64() < b.cfg.WrongRate {
		var other []int
		for i, c := range b.layout {
			if c != b.layout[lit] {
				other = append(other, i)
			}
		}
		if len(other) > 0 {
			sensor = other[b.rng.Intn(len(other))]
		}
	}
	b.schedule(sensor, b.now+reaction)
}

func (b *simBoard) schedule(sensor int, at time.Duration) {
	b.sensor = sensor
	b.pressAt = at
	b.releaseAt = at + b.cfg.PressDuration
	b.pending = true
}
