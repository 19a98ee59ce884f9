//go:build !atmega2560 && !attiny85

package avr

import "pinio/pinaddr"

// ATmega328P register bank bases (PINx data-space addresses).
const (
	pinb = 0x23
	pinc = 0x26
	pind = 0x29
)

// Port B
const (
	PB0 pinaddr.Pin = pinb<<3 | iota
	PB1
	PB2
	PB3
	PB4
	PB5
	PB6
	PB7
)

// Port C. PC7 does not exist on this part; PC6 doubles as RESET.
const (
	PC0 pinaddr.Pin = pinc<<3 | iota
	PC1
	PC2
	PC3
	PC4
	PC5
	PC6
)

// Port D
const (
	PD0 pinaddr.Pin = pind<<3 | iota
	PD1
	PD2
	PD3
	PD4
	PD5
	PD6
	PD7
)

// Names maps catalog pin names to their packed addresses for the
// dictionary's pin enumeration.
var Names = map[string]pinaddr.Pin{
	"PB0": PB0, "PB1": PB1, "PB2": PB2, "PB3": PB3,
	"PB4": PB4, "PB5": PB5, "PB6": PB6, "PB7": PB7,
	"PC0": PC0, "PC1": PC1, "PC2": PC2, "PC3": PC3,
	"PC4": PC4, "PC5": PC5, "PC6": PC6,
	"PD0": PD0, "PD1": PD1, "PD2": PD2, "PD3": PD3,
	"PD4": PD4, "PD5": PD5, "PD6": PD6, "PD7": PD7,
}

// Variant is the catalog's MCU name as reported in the dictionary.
const Variant = "atmega328p"
