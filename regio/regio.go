// Package regio resolves a packed pin address to the three hardware
// registers that govern the pin. The AVR register map places the three
// registers of a bank at consecutive data-space addresses:
//
//	bankBase + 0: input register  (PINx)
//	bankBase + 1: direction register (DDRx)
//	bankBase + 2: output register (PORTx)
//
// The resolvers are pure functions of the pin value; with a constant pin
// they reduce to a constant address, so a register access through this
// package emits the same code as a hand-written access to the register by
// name. No bounds checking happens here - pin values are trusted catalog
// constants.
//
// Register8 is the volatile memory cell type. Under tinygo it is the
// runtime's volatile register, giving real uncached single-instruction
// accesses; on the host it is a plain byte in a simulated address space
// with the same method set, so everything above this package runs and
// tests unmodified.
package regio

// Register offsets within a bank, relative to the input register.
const (
	dirOffset = 1
	outOffset = 2
)
