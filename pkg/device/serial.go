package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/itohio/reactiontest/pkg/protocol"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the firmware UART rate.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the events channel buffer.
	DefaultBufferSize = 100
	// resetPulse is how long RTS holds the board's enable line low.
	resetPulse = 100 * time.Millisecond
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a connection to the experiment board.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	open func(name string, mode *serial.Mode) (serial.Port, error)

	conn      serial.Port
	events    chan protocol.Event
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
	// closed is set once events has been closed; Connect then makes a new one.
	closed bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		open:     serial.Open,
		events:   make(chan protocol.Event, bufSize),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading events.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := d.open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	if d.closed {
		d.events = make(chan protocol.Event, d.bufSize)
		d.closed = false
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.done = make(chan struct{})
	d.conn = port
	d.connected = true

	go d.readEvents(d.ctx, port, d.events, d.done)

	return nil
}

// Close closes the port, waits for the reader and closes the events channel.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	<-d.done
	d.connected = false
	close(d.events)
	d.closed = true

	return nil
}

// Events returns the channel of parsed records. It is closed by Close and
// replaced by the next Connect.
func (d *Serial) Events() <-chan protocol.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.events
}

// Reset pulses RTS, which is wired to the enable pin on ESP32 dev boards.
func (d *Serial) Reset() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	if err := d.conn.SetDTR(false); err != nil {
		return fmt.Errorf("failed to clear DTR: %w", err)
	}
	if err := d.conn.SetRTS(true); err != nil {
		return fmt.Errorf("failed to assert RTS: %w", err)
	}
	time.Sleep(resetPulse)
	if err := d.conn.SetRTS(false); err != nil {
		return fmt.Errorf("failed to release RTS: %w", err)
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) readEvents(ctx context.Context, r io.Reader, out chan<- protocol.Event, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readEvents: %v", r)
		}
	}()

	scanLines(ctx, r, out)
}

// scanLines parses lines from r into out until r fails or ctx is done.
// Unparseable lines are logged and skipped; events are dropped when out is full.
func scanLines(ctx context.Context, r io.Reader, out chan<- protocol.Event) {
	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && err != io.EOF && ctx.Err() == nil {
				log.Printf("Error reading from serial port: %v", err)
			}
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, err := protocol.Parse(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		default:
			log.Printf("Events channel full, dropping %s", ev.Kind)
		}
	}
}
