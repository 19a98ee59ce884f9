package protocol

import (
	"bytes"
	"testing"
)

func TestVLQIntRoundTrip(t *testing.T) {
	values := []int32{
		0, 1, -1,
		31, -32, // one-byte boundary
		127, -127, 128, -128,
		255, -255,
		1000, -1000,
		65535, -65535,
		1000000, -1000000,
		1 << 28, -(1 << 28),
	}

	for _, want := range values {
		output := NewScratchOutput()
		EncodeVLQInt(output, want)
		encoded := output.Result()

		data := encoded
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("round trip %d: got %d (encoded % x)", want, got, encoded)
		}
		if len(data) != 0 {
			t.Errorf("decode %d left %d bytes unconsumed", want, len(data))
		}
	}
}

func TestVLQUintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 1000, 65535, 1000000, 0xFFFFFFFF}

	for _, want := range values {
		output := NewScratchOutput()
		EncodeVLQUint(output, want)

		data := output.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("round trip %d: got %d", want, got)
		}
	}
}

func TestVLQSmallValuesAreOneByte(t *testing.T) {
	for v := uint32(0); v < 32; v++ {
		output := NewScratchOutput()
		EncodeVLQUint(output, v)
		if n := len(output.Result()); n != 1 {
			t.Errorf("value %d encoded in %d bytes, want 1", v, n)
		}
	}
}

func TestVLQBytesRoundTrip(t *testing.T) {
	blocks := [][]byte{
		{},
		{0x42},
		{1, 2, 3, 4, 5},
		bytes.Repeat([]byte{0xAA}, 40),
	}

	for _, want := range blocks {
		output := NewScratchOutput()
		EncodeVLQBytes(output, want)

		data := output.Result()
		got, err := DecodeVLQBytes(&data)
		if err != nil {
			t.Errorf("decode block of %d bytes: %v", len(want), err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("block mismatch: got % x, want % x", got, want)
		}
	}
}

func TestVLQDecodeShortBuffer(t *testing.T) {
	// Continuation bit set but nothing follows.
	data := []byte{0x81}
	if _, err := DecodeVLQUint(&data); err != ErrShortBuffer {
		t.Errorf("truncated VLQ: err = %v, want ErrShortBuffer", err)
	}

	// Length prefix promises more than is there.
	data = []byte{5, 1, 2}
	if _, err := DecodeVLQBytes(&data); err != ErrShortBuffer {
		t.Errorf("truncated block: err = %v, want ErrShortBuffer", err)
	}

	empty := []byte{}
	if _, err := DecodeVLQUint(&empty); err != ErrShortBuffer {
		t.Errorf("empty input: err = %v, want ErrShortBuffer", err)
	}
}
