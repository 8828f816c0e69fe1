//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"math/rand"
	"time"

	"github.com/itohio/reactiontest/pkg/experiment"
	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/touch"
)

// board implements experiment.Host on the MCU.
type board struct {
	adcs [len(touchPins)]machine.ADC
	boot time.Time
}

func (b *board) ReadTouch(sensor int) uint16 {
	return b.adcs[sensor].Get() >> ADC_SHIFT
}

func (b *board) SetIndicator(led int, on bool) {
	ledPins[led].Set(on)
}

func (b *board) SetConfirmation(on bool) {
	PIN_CONFIRM_LED.Set(on)
}

func (b *board) Millis() uint64 {
	return uint64(time.Since(b.boot) / time.Millisecond)
}

func (b *board) Micros() uint64 {
	return uint64(time.Since(b.boot) / time.Microsecond)
}

func (b *board) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Halt idles until the board is reset.
func (b *board) Halt() {
	for {
		time.Sleep(time.Hour)
	}
}

func main() {
	b := &board{boot: time.Now()}

	// Configure LED pins as outputs
	for _, pin := range ledPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	PIN_CONFIRM_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Configure touch pads as ADC inputs with highest resolution
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	machine.InitADC()
	for i, pin := range touchPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		b.adcs[i] = machine.ADC{Pin: pin}
		b.adcs[i].Configure(adcConfig)
	}

	machine.Serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	// Untouched pad noise plus the time since boot differ on every power up
	seed := touch.Seed(touch.ReadAll(b, len(touchPins)), b.Micros())
	rng := rand.New(rand.NewSource(seed))

	m, err := experiment.New(experiment.DefaultParams(), b, rng, protocol.NewlineWriter{W: machine.Serial})
	if err != nil {
		println("error:", err.Error())
		b.Halt()
	}

	for _, i := range m.Stuck() {
		println("warning: touch pad", i, "is stuck, it will never trigger")
	}
	for _, i := range m.Noisy(NOISE_READS) {
		println("warning: touch pad", i, "is noisy, expect false touches")
	}

	m.Run()
}
