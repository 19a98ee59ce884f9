//go:build atmega2560

package avr

import "pinio/pinaddr"

// ATmega2560 register bank bases (PINx data-space addresses). Ports H
// through L live in extended I/O space above 0xFF; there is no port I.
const (
	pina = 0x20
	pinb = 0x23
	pinc = 0x26
	pind = 0x29
	pine = 0x2C
	pinf = 0x2F
	ping = 0x32
	pinh = 0x100
	pinj = 0x103
	pink = 0x106
	pinl = 0x109
)

// Port A
const (
	PA0 pinaddr.Pin = pina<<3 | iota
	PA1
	PA2
	PA3
	PA4
	PA5
	PA6
	PA7
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

// Port C
const (
	PC0 pinaddr.Pin = pinc<<3 | iota
	PC1
	PC2
	PC3
	PC4
	PC5
	PC6
	PC7
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

// Port E
const (
	PE0 pinaddr.Pin = pine<<3 | iota
	PE1
	PE2
	PE3
	PE4
	PE5
	PE6
	PE7
)

// Port F
const (
	PF0 pinaddr.Pin = pinf<<3 | iota
	PF1
	PF2
	PF3
	PF4
	PF5
	PF6
	PF7
)

// Port G has six pins.
const (
	PG0 pinaddr.Pin = ping<<3 | iota
	PG1
	PG2
	PG3
	PG4
	PG5
)

// Port H
const (
	PH0 pinaddr.Pin = pinh<<3 | iota
	PH1
	PH2
	PH3
	PH4
	PH5
	PH6
	PH7
)

// Port J
const (
	PJ0 pinaddr.Pin = pinj<<3 | iota
	PJ1
	PJ2
	PJ3
	PJ4
	PJ5
	PJ6
	PJ7
)

// Port K
const (
	PK0 pinaddr.Pin = pink<<3 | iota
	PK1
	PK2
	PK3
	PK4
	PK5
	PK6
	PK7
)

// Port L
const (
	PL0 pinaddr.Pin = pinl<<3 | iota
	PL1
	PL2
	PL3
	PL4
	PL5
	PL6
	PL7
)

// Names lists the catalog for dictionary enumeration.
var Names = map[string]pinaddr.Pin{
	"PA0": PA0, "PA1": PA1, "PA2": PA2, "PA3": PA3,
	"PA4": PA4, "PA5": PA5, "PA6": PA6, "PA7": PA7,
	"PB0": PB0, "PB1": PB1, "PB2": PB2, "PB3": PB3,
	"PB4": PB4, "PB5": PB5, "PB6": PB6, "PB7": PB7,
	"PC0": PC0, "PC1": PC1, "PC2": PC2, "PC3": PC3,
	"PC4": PC4, "PC5": PC5, "PC6": PC6, "PC7": PC7,
	"PD0": PD0, "PD1": PD1, "PD2": PD2, "PD3": PD3,
	"PD4": PD4, "PD5": PD5, "PD6": PD6, "PD7": PD7,
	"PE0": PE0, "PE1": PE1, "PE2": PE2, "PE3": PE3,
	"PE4": PE4, "PE5": PE5, "PE6": PE6, "PE7": PE7,
	"PF0": PF0, "PF1": PF1, "PF2": PF2, "PF3": PF3,
	"PF4": PF4, "PF5": PF5, "PF6": PF6, "PF7": PF7,
	"PG0": PG0, "PG1": PG1, "PG2": PG2, "PG3": PG3,
	"PG4": PG4, "PG5": PG5,
	"PH0": PH0, "PH1": PH1, "PH2": PH2, "PH3": PH3,
	"PH4": PH4, "PH5": PH5, "PH6": PH6, "PH7": PH7,
	"PJ0": PJ0, "PJ1": PJ1, "PJ2": PJ2, "PJ3": PJ3,
	"PJ4": PJ4, "PJ5": PJ5, "PJ6": PJ6, "PJ7": PJ7,
	"PK0": PK0, "PK1": PK1, "PK2": PK2, "PK3": PK3,
	"PK4": PK4, "PK5": PK5, "PK6": PK6, "PK7": PK7,
	"PL0": PL0, "PL1": PL1, "PL2": PL2, "PL3": PL3,
	"PL4": PL4, "PL5": PL5, "PL6": PL6, "PL7": PL7,
}

// Arduino Mega aliases.
const (
	LED = PB7 // onboard LED, digital 13
)

// Variant is the catalog's MCU name as reported in the dictionary.
const Variant = "atmega2560"
