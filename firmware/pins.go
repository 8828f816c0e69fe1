//go:build tinygo

package main

import "machine"

const (
	// Touch pads. Each pad sits on a pull-up divider; skin contact pulls the
	// reading down, which is what the calibration expects.
	PIN_TOUCH0 = machine.A0
	PIN_TOUCH1 = machine.A1
	PIN_TOUCH2 = machine.A2
	PIN_TOUCH3 = machine.A3

	// Stimulus LEDs, one per pad
	PIN_LED0 = machine.D4
	PIN_LED1 = machine.D5
	PIN_LED2 = machine.D6
	PIN_LED3 = machine.D7

	// Lit while a touch is being confirmed
	PIN_CONFIRM_LED = machine.D8

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// machine.ADC.Get is always scaled to 16 bits
	ADC_SHIFT = 16 - ADC_RESOLUTION

	// Idle readings per pad for the noise check at boot
	NOISE_READS = 32

	// Longest record is the end line, ~60 bytes, a few per second at most.
	UART_BAUD_RATE = 115200
)

var (
	touchPins = [...]machine.Pin{PIN_TOUCH0, PIN_TOUCH1, PIN_TOUCH2, PIN_TOUCH3}
	ledPins   = [...]machine.Pin{PIN_LED0, PIN_LED1, PIN_LED2, PIN_LED3}
)
