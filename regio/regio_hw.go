//go:build tinygo

package regio

import (
	"runtime/volatile"
	"unsafe"

	"pinio/pinaddr"
)

// Register8 is a memory-mapped hardware register. Every Get/Set through it
// is a single volatile access; the compiler will not cache, reorder or
// elide it.
type Register8 = volatile.Register8

// In returns the bank's input register (PINx).
//
//go:inline
func In(p pinaddr.Pin) *Register8 {
	return (*Register8)(unsafe.Pointer(p.BankBase()))
}

// Dir returns the bank's direction register (DDRx).
//
//go:inline
func Dir(p pinaddr.Pin) *Register8 {
	return (*Register8)(unsafe.Pointer(p.BankBase() + dirOffset))
}

// Out returns the bank's output register (PORTx).
//
//go:inline
func Out(p pinaddr.Pin) *Register8 {
	return (*Register8)(unsafe.Pointer(p.BankBase() + outOffset))
}
