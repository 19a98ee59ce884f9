//go:build !tinygo

package regio

import "pinio/pinaddr"

// Register8 mirrors the method set of tinygo's volatile.Register8 over a
// byte in the simulated register space, so pin code compiles identically
// on hardware and on the host.
type Register8 struct {
	Reg uint8
}

func (r *Register8) Get() uint8 {
	return r.Reg
}

func (r *Register8) Set(v uint8) {
	r.Reg = v
}

func (r *Register8) SetBits(mask uint8) {
	r.Reg |= mask
}

func (r *Register8) ClearBits(mask uint8) {
	r.Reg &^= mask
}

func (r *Register8) HasBits(mask uint8) bool {
	return r.Reg&mask != 0
}

// simSpace models the MCU data space the register banks live in. 0x200
// covers the extended-address banks of the largest supported variant
// (ATmega2560 PORTL ends at 0x10B).
const simSpaceSize = 0x200

var simSpace [simSpaceSize]Register8

// In returns the bank's input register (PINx).
func In(p pinaddr.Pin) *Register8 {
	return &simSpace[p.BankBase()]
}

// Dir returns the bank's direction register (DDRx).
func Dir(p pinaddr.Pin) *Register8 {
	return &simSpace[p.BankBase()+dirOffset]
}

// Out returns the bank's output register (PORTx).
func Out(p pinaddr.Pin) *Register8 {
	return &simSpace[p.BankBase()+outOffset]
}

// SimReset clears the entire simulated register space. Tests call this to
// start from known-zero registers.
func SimReset() {
	simSpace = [simSpaceSize]Register8{}
}

// SimLatchInputs feeds driven output levels back into the input register
// for the output-configured bits of p's bank, the way a real pin reads
// back its own driven level. Input-configured bits keep their current
// sensed value.
func SimLatchInputs(p pinaddr.Pin) {
	in, dir, out := In(p), Dir(p), Out(p)
	d := dir.Get()
	in.Set(out.Get()&d | in.Get()&^d)
}

// SimSenseInput forces the sensed level of a single input-configured pin,
// simulating an external signal driving it.
func SimSenseInput(p pinaddr.Pin, high bool) {
	if high {
		In(p).SetBits(p.Mask())
	} else {
		In(p).ClearBits(p.Mask())
	}
}
