//go:build !atmega2560 && !attiny85

package avr

// Arduino Uno aliases for the default ATmega328P catalog.
const (
	LED = PB5 // onboard LED, digital 13

	D2  = PD2
	D3  = PD3
	D4  = PD4
	D5  = PD5
	D6  = PD6
	D7  = PD7
	D8  = PB0
	D9  = PB1
	D10 = PB2
	D11 = PB3
	D12 = PB4
	D13 = PB5

	A0 = PC0
	A1 = PC1
	A2 = PC2
	A3 = PC3
	A4 = PC4
	A5 = PC5
)
