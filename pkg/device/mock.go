package device

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/experiment"
	"github.com/itohio/reactiontest/pkg/protocol"
)

// Mock runs the experiment state machine in-process against a simulated
// subject. Its events go through the same line format as the real board.
type Mock struct {
	cfg    config.MockConfig
	params experiment.Params

	events    chan protocol.Event
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool

	// current session
	runCancel context.CancelFunc
	runDone   chan struct{}
	runs      int
}

// NewMock creates a simulated device. A nil cfg uses config.Default().
func NewMock(cfg *config.Config) (*Mock, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	params, err := cfg.Experiment.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid experiment config: %w", err)
	}

	return &Mock{
		cfg:    cfg.Mock,
		params: params,
		events: make(chan protocol.Event, DefaultBufferSize),
	}, nil
}

// Connect starts the first session.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	if m.closed {
		m.events = make(chan protocol.Event, DefaultBufferSize)
		m.closed = false
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.connected = true
	m.startRun()

	return nil
}

// Close stops the simulation and closes the events channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.stopRun()
	m.connected = false
	close(m.events)
	m.closed = true

	return nil
}

// Events returns the channel of parsed records. It is closed by Close and
// replaced by the next Connect.
func (m *Mock) Events() <-chan protocol.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events
}

// Reset aborts the current session and starts a new one.
func (m *Mock) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.stopRun()
	m.startRun()
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// startRun must be called with mu held.
func (m *Mock) startRun() {
	ctx, cancel := context.WithCancel(m.ctx)
	done := make(chan struct{})
	m.runCancel = cancel
	m.runDone = done
	m.runs++

	seed := m.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	} else {
		seed += int64(m.runs - 1)
	}

	go m.run(ctx, seed, m.events, done)
}

// stopRun must be called with mu held.
func (m *Mock) stopRun() {
	if m.runCancel == nil {
		return
	}
	m.runCancel()
	<-m.runDone
	m.runCancel = nil
}

func (m *Mock) run(ctx context.Context, seed int64, events chan<- protocol.Event, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in mock session: %v", r)
		}
	}()

	subject := rand.New(rand.NewSource(seed))
	board := newSimBoard(m.cfg, m.params.Layout, time.Duration(m.params.MinWaitSeconds)*time.Second, subject)

	out := protocol.LineWriterFunc(func(line string) error {
		ev, err := protocol.Parse(line)
		if err != nil {
			return err
		}
		select {
		case events <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	machine, err := experiment.New(m.params, board, rand.New(rand.NewSource(seed^0x5eed)), out)
	if err != nil {
		log.Printf("Failed to start mock session: %v", err)
		return
	}
	board.start(m.params.ArmOnTouch)

	for ctx.Err() == nil {
		if machine.Tick() == experiment.Finished {
			return
		}
		board.step()
	}
}
