package experiment

import (
	"time"

	"github.com/itohio/reactiontest/pkg/touch"
)

// Indicators drives the stimulus LEDs and the confirmation LED.
type Indicators interface {
	SetIndicator(led int, on bool)
	SetConfirmation(on bool)
}

// Clock is a monotonic clock since boot.
type Clock interface {
	Millis() uint64
	Micros() uint64
}

// Host is everything the state machine needs from the board.
type Host interface {
	touch.Reader
	Indicators
	Clock

	// Sleep blocks for d. No sampling happens meanwhile.
	Sleep(d time.Duration)
	// Halt is called once after the final report.
	Halt()
}
