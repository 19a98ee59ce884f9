// Package avr is the per-variant pin catalog: one packed pinaddr.Pin
// constant for every GPIO pin that physically exists on the selected
// microcontroller, plus the board's logical aliases. The variant is chosen
// at build time with a build tag (atmega2560, attiny85); without a variant
// tag the catalog defaults to the ATmega328P.
//
// Referring to a pin the selected variant does not have is an undefined
// symbol and fails the build, which is the whole point: pin validity is
// settled by the compiler, not at runtime.
//
// Bank base values are the data-space addresses of the PINx registers from
// the datasheet register summaries. DDRx and PORTx following at +1 and +2
// is a property of the AVR register map that package regio relies on.
package avr

// PinValues returns the selected variant's catalog as plain name to
// packed-address values, the form the dictionary's pin enumeration takes.
func PinValues() map[string]uint32 {
	values := make(map[string]uint32, len(Names))
	for name, pin := range Names {
		values[name] = uint32(pin)
	}
	return values
}
