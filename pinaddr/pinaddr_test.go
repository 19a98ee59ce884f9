package pinaddr

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bases := []uintptr{0x20, 0x23, 0x26, 0x29, 0x36, 0x100, 0x109}

	for _, base := range bases {
		for bit := uint8(0); bit < 8; bit++ {
			p := Encode(base, bit)

			if got := p.BankBase(); got != base {
				t.Errorf("Encode(%#x, %d).BankBase() = %#x, want %#x", base, bit, got, base)
			}
			if got := p.BitIndex(); got != bit {
				t.Errorf("Encode(%#x, %d).BitIndex() = %d, want %d", base, bit, got, bit)
			}
		}
	}
}

func TestMask(t *testing.T) {
	for bit := uint8(0); bit < 8; bit++ {
		p := Encode(0x23, bit)
		want := uint8(1) << bit

		if got := p.Mask(); got != want {
			t.Errorf("Mask for bit %d = %#02x, want %#02x", bit, got, want)
		}
	}
}

func TestMasksDistinctAndSingleBit(t *testing.T) {
	seen := make(map[uint8]uint8)

	for bit := uint8(0); bit < 8; bit++ {
		m := Encode(0x26, bit).Mask()

		if m == 0 || m&(m-1) != 0 {
			t.Errorf("mask %#02x for bit %d is not a single set bit", m, bit)
		}
		if prev, dup := seen[m]; dup {
			t.Errorf("mask %#02x produced by both bit %d and bit %d", m, prev, bit)
		}
		seen[m] = bit
	}
}

func TestKnownEncoding(t *testing.T) {
	// Bank base 0x20, bit 3 packs to 0x103.
	p := Encode(0x20, 3)

	if p != 0x103 {
		t.Fatalf("Encode(0x20, 3) = %#x, want 0x103", uint16(p))
	}
	if got := p.BankBase(); got != 0x20 {
		t.Errorf("BankBase() = %#x, want 0x20", got)
	}
	if got := p.BitIndex(); got != 3 {
		t.Errorf("BitIndex() = %d, want 3", got)
	}
	if got := p.Mask(); got != 0x08 {
		t.Errorf("Mask() = %#02x, want 0x08", got)
	}
}

func TestPinIsConstantExpression(t *testing.T) {
	// Catalog constants are spelled as plain shift/or arithmetic; make sure
	// the decoded fields agree with Encode for a literal written that way.
	const pb5 Pin = 0x23<<3 | 5

	if pb5 != Encode(0x23, 5) {
		t.Errorf("literal %#x != Encode(0x23, 5) = %#x", uint16(pb5), uint16(Encode(0x23, 5)))
	}
}
