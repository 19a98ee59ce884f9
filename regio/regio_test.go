package regio

import (
	"testing"

	"pinio/pinaddr"
)

func TestRegisterOffsets(t *testing.T) {
	const base = 0x20

	// The direction and output registers sit at base+1 and base+2
	// regardless of which bit of the bank is addressed.
	for bit := uint8(0); bit < 8; bit++ {
		p := pinaddr.Encode(base, bit)

		if In(p) != &simSpace[base] {
			t.Errorf("bit %d: In resolved to the wrong cell", bit)
		}
		if Dir(p) != &simSpace[base+1] {
			t.Errorf("bit %d: Dir resolved to the wrong cell", bit)
		}
		if Out(p) != &simSpace[base+2] {
			t.Errorf("bit %d: Out resolved to the wrong cell", bit)
		}
	}
}

func TestRegistersSharedWithinBank(t *testing.T) {
	SimReset()

	a := pinaddr.Encode(0x23, 1)
	b := pinaddr.Encode(0x23, 6)

	if Out(a) != Out(b) {
		t.Fatal("pins of the same bank must resolve to the same output register")
	}

	Out(a).SetBits(a.Mask())
	Out(b).SetBits(b.Mask())

	if got := Out(a).Get(); got != 0x42 {
		t.Errorf("output register = %#02x, want 0x42", got)
	}
}

func TestRegister8Bits(t *testing.T) {
	var r Register8

	r.SetBits(0x81)
	if r.Get() != 0x81 {
		t.Fatalf("SetBits: got %#02x, want 0x81", r.Get())
	}
	if !r.HasBits(0x80) || r.HasBits(0x02) {
		t.Error("HasBits reported wrong bits")
	}

	r.ClearBits(0x01)
	if r.Get() != 0x80 {
		t.Errorf("ClearBits: got %#02x, want 0x80", r.Get())
	}

	r.Set(0x5A)
	if r.Get() != 0x5A {
		t.Errorf("Set: got %#02x, want 0x5A", r.Get())
	}
}

func TestSimLatchInputs(t *testing.T) {
	SimReset()

	driven := pinaddr.Encode(0x29, 4)
	sensed := pinaddr.Encode(0x29, 2)

	// Bit 4 is an output driven high, bit 2 is an input with an external
	// high level on it.
	Dir(driven).SetBits(driven.Mask())
	Out(driven).SetBits(driven.Mask())
	SimSenseInput(sensed, true)

	SimLatchInputs(driven)

	if !In(driven).HasBits(driven.Mask()) {
		t.Error("driven output level did not latch into the input register")
	}
	if !In(sensed).HasBits(sensed.Mask()) {
		t.Error("latching outputs clobbered an input-configured bit")
	}

	// Drive low; the input bit must follow.
	Out(driven).ClearBits(driven.Mask())
	SimLatchInputs(driven)

	if In(driven).HasBits(driven.Mask()) {
		t.Error("input register still high after output driven low")
	}
}
