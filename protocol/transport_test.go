package protocol

import (
	"bytes"
	"testing"
)

// buildTestFrame frames a payload the way the host does.
func buildTestFrame(seq uint8, payload []byte) []byte {
	frameLen := FrameHeaderLen + len(payload) + FrameTrailerLen
	frame := append([]byte{uint8(frameLen), seq}, payload...)
	crc := CRC16(frame)
	return append(frame, uint8(crc>>8), uint8(crc&0xFF), SyncByte)
}

func TestTransportDispatchesCommand(t *testing.T) {
	output := NewScratchOutput()

	var gotCmd uint16
	var gotArg uint32
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		gotCmd = cmdID
		arg, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		gotArg = arg
		return nil
	})

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, 7)   // command id
	EncodeVLQUint(scratch, 300) // argument

	input := NewSliceInputBuffer(buildTestFrame(SeqDest, scratch.Result()))
	tr.Receive(input)

	if gotCmd != 7 {
		t.Errorf("dispatched command id = %d, want 7", gotCmd)
	}
	if gotArg != 300 {
		t.Errorf("dispatched argument = %d, want 300", gotArg)
	}
	if input.Available() != 0 {
		t.Errorf("%d input bytes left unconsumed", input.Available())
	}

	// The ACK must carry the advanced sequence.
	ack := output.Result()
	if len(ack) != FrameLenMin {
		t.Fatalf("ACK length = %d, want %d", len(ack), FrameLenMin)
	}
	if ack[framePosSeq] != SeqDest+1 {
		t.Errorf("ACK sequence = %#02x, want %#02x", ack[framePosSeq], SeqDest+1)
	}
	if ack[len(ack)-1] != SyncByte {
		t.Error("ACK not terminated by sync byte")
	}
}

func TestTransportRejectsBadCRC(t *testing.T) {
	output := NewScratchOutput()

	dispatched := false
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		dispatched = true
		return nil
	})

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, 3)

	frame := buildTestFrame(SeqDest, scratch.Result())
	frame[len(frame)-2] ^= 0xFF // corrupt the CRC

	tr.Receive(NewSliceInputBuffer(frame))

	if dispatched {
		t.Error("command dispatched from a frame with a bad CRC")
	}
	if tr.getSynchronized() {
		t.Error("transport still synchronized after CRC failure")
	}
}

func TestTransportResyncOnSyncByte(t *testing.T) {
	output := NewScratchOutput()
	tr := NewTransport(output, nil)

	// Garbage with an impossible length byte drops the link; a sync byte
	// brings it back.
	tr.Receive(NewSliceInputBuffer([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}))
	if tr.getSynchronized() {
		t.Fatal("garbage did not desynchronize the transport")
	}

	tr.Receive(NewSliceInputBuffer([]byte{0x00, SyncByte}))
	if !tr.getSynchronized() {
		t.Error("sync byte did not resynchronize the transport")
	}
}

func TestTransportIgnoresRepeatedSequence(t *testing.T) {
	output := NewScratchOutput()

	calls := 0
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		return nil
	})

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, 2)
	first := buildTestFrame(SeqDest, scratch.Result())
	second := buildTestFrame(SeqDest+1, scratch.Result())

	tr.Receive(NewSliceInputBuffer(first))
	tr.Receive(NewSliceInputBuffer(second))

	// A retransmit of the second frame must be ACKed but not dispatched
	// again. (A repeat of the first sequence value would instead count as
	// a host restart.)
	tr.Receive(NewSliceInputBuffer(second))

	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestSendMessageFramesPayload(t *testing.T) {
	output := NewScratchOutput()
	tr := NewTransport(output, nil)

	tr.SendMessage(9, func(out OutputBuffer) {
		EncodeVLQUint(out, 1234)
	})

	frame := output.Result()
	if len(frame) < FrameLenMin {
		t.Fatalf("frame too short: %d bytes", len(frame))
	}
	if int(frame[framePosLen]) != len(frame) {
		t.Errorf("length byte = %d, frame is %d bytes", frame[framePosLen], len(frame))
	}
	if frame[len(frame)-1] != SyncByte {
		t.Error("frame not terminated by sync byte")
	}

	wireCRC := uint16(frame[len(frame)-3])<<8 | uint16(frame[len(frame)-2])
	if want := CRC16(frame[:len(frame)-FrameTrailerLen]); wireCRC != want {
		t.Errorf("frame CRC = %#04x, want %#04x", wireCRC, want)
	}

	payload := frame[FrameHeaderLen : len(frame)-FrameTrailerLen]
	cmdID, err := DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decoding command id: %v", err)
	}
	if cmdID != 9 {
		t.Errorf("command id = %d, want 9", cmdID)
	}
	arg, err := DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decoding argument: %v", err)
	}
	if arg != 1234 {
		t.Errorf("argument = %d, want 1234", arg)
	}
}

func TestTransportDetectsHostRestart(t *testing.T) {
	output := NewScratchOutput()
	tr := NewTransport(output, nil)

	restarts := 0
	tr.SetResetCallback(func() { restarts++ })

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, 1)
	frame := buildTestFrame(SeqDest, scratch.Result())

	// Sequence starting over at SeqDest after it already advanced means
	// the host process restarted.
	tr.Receive(NewSliceInputBuffer(frame))
	tr.Receive(NewSliceInputBuffer(frame))

	if restarts != 1 {
		t.Errorf("reset callback ran %d times, want 1", restarts)
	}
}

func TestHostAndMCUFramingAgree(t *testing.T) {
	// A frame built by the MCU side must parse with the host-side frame
	// builder's expectations and vice versa.
	output := NewScratchOutput()
	tr := NewTransport(output, nil)
	tr.SendMessage(5, nil)

	mcuFrame := output.Result()

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, 5)
	hostFrame := buildTestFrame(SeqDest, scratch.Result())

	if !bytes.Equal(mcuFrame, hostFrame) {
		t.Errorf("framing differs:\nmcu  % x\nhost % x", mcuFrame, hostFrame)
	}
}
