//go:build attiny85

package avr

import "pinio/pinaddr"

// ATtiny85 has a single six-pin port.
const pinb = 0x36

// Port B. PB5 doubles as RESET.
const (
	PB0 pinaddr.Pin = pinb<<3 | iota
	PB1
	PB2
	PB3
	PB4
	PB5
)

// Names lists the catalog for dictionary enumeration.
var Names = map[string]pinaddr.Pin{
	"PB0": PB0, "PB1": PB1, "PB2": PB2,
	"PB3": PB3, "PB4": PB4, "PB5": PB5,
}

// Digispark-style board alias.
const (
	LED = PB1
)

// Variant is the catalog's MCU name as reported in the dictionary.
const Variant = "attiny85"
