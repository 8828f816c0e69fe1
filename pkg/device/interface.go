package device

import "github.com/itohio/reactiontest/pkg/protocol"

// Device is a source of experiment events (real board or simulated).
type Device interface {
	Connect() error
	Close() error
	Events() <-chan protocol.Event
	// Reset restarts the session, like pressing the board's reset button.
	Reset() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
