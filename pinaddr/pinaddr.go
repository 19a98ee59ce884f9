// Pin address packing for AVR-class register banks.
// A pin is identified by a single integer that carries both the data-space
// address of its bank's input register and the bit position within the bank,
// so firmware can name a pin with one constant instead of three.
package pinaddr

// Pin packs a register bank base address and a bit index into one value:
//
//	Pin = (bankBase << 3) | bitIndex
//
// bankBase is the data-space address of the bank's input register and must
// fit in 13 bits; bitIndex must be in [0,7]. Neither precondition is checked
// at runtime - Pin values come from the trusted per-variant catalog (package
// avr), and an out-of-range bit index would silently corrupt the base field.
// All operations below are pure and inline to constant arithmetic when the
// Pin is a compile-time constant.
type Pin uint16

// Width of the bit-index field. The 3-bit shift matches the AVR register
// map (8 pins per bank); a different register layout would need a different
// shift, not a code change elsewhere.
const bitBits = 3

// Encode packs a bank base address and bit index into a Pin.
// Catalog code normally spells the constant out directly; Encode exists for
// call sites that compute pins from parts.
//
//go:inline
func Encode(bankBase uintptr, bit uint8) Pin {
	return Pin(bankBase)<<bitBits | Pin(bit)
}

// BankBase returns the data-space address of the bank's input register.
//
//go:inline
func (p Pin) BankBase() uintptr {
	return uintptr(p >> bitBits)
}

// BitIndex returns the pin's bit position within its bank, in [0,7].
//
//go:inline
func (p Pin) BitIndex() uint8 {
	return uint8(p & (1<<bitBits - 1))
}

// Mask returns the single-bit mask isolating this pin within its bank's
// registers.
//
//go:inline
func (p Pin) Mask() uint8 {
	return 1 << p.BitIndex()
}
