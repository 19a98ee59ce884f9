package protocol

import "sync/atomic"

// CommandHandler dispatches one decoded command. The handler consumes its
// own arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the MCU side of the link. It validates inbound frames,
// acknowledges them, dispatches their commands and encodes outbound
// response frames. The ACK for a frame must reach the host before any
// response to it, so ACKs are flushed immediately through flushCallback
// instead of waiting for the main loop.
type Transport struct {
	synchronized uint32 // atomic bool
	nextSeq      uint32 // atomic; next expected sequence byte

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func() // invoked when a host restart is detected
	flushCallback func() // drains the output buffer to the wire
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synchronized: 1,
		nextSeq:      SeqDest,
		output:       output,
		handler:      handler,
	}
}

// Receive consumes whatever complete frames the input holds. Incomplete
// trailing data is left buffered for the next call; any framing or CRC
// violation drops the link into resync-on-sync-byte mode.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			skip := -1
			for i, b := range data {
				if b == SyncByte {
					skip = i
					break
				}
			}
			if skip < 0 {
				data = nil
				break
			}
			data = data[skip+1:]
			t.setSynchronized(true)
			t.sendAck()
			continue
		}

		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameLenMin {
			break
		}

		frameLen := int(data[framePosLen])
		if frameLen < FrameLenMin || frameLen > FrameLenMax {
			t.setSynchronized(false)
			continue
		}

		seq := data[framePosSeq]
		if seq&^SeqMask != SeqDest {
			t.setSynchronized(false)
			continue
		}

		if len(data) < frameLen {
			break
		}

		if data[frameLen-trailerSyncLen] != SyncByte {
			t.setSynchronized(false)
			continue
		}

		wireCRC := uint16(data[frameLen-frameTrailerCRC])<<8 |
			uint16(data[frameLen-frameTrailerCRC+1])
		if wireCRC != CRC16(data[:frameLen-FrameTrailerLen]) {
			t.setSynchronized(false)
			continue
		}

		payload := data[FrameHeaderLen : frameLen-FrameTrailerLen]
		data = data[frameLen:]

		// A sequence byte back at SeqDest while we expected something
		// later means the host restarted.
		expected := uint8(atomic.LoadUint32(&t.nextSeq))
		if seq == SeqDest && expected != SeqDest {
			atomic.StoreUint32(&t.nextSeq, SeqDest)
			expected = SeqDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expected {
			next := ((seq + 1) & SeqMask) | SeqDest
			atomic.StoreUint32(&t.nextSeq, uint32(next))
			_ = t.dispatchPayload(payload)
		}

		// ACK regardless; on a sequence mismatch this doubles as a NAK
		// carrying the sequence we expect.
		t.sendAck()
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// dispatchPayload runs every command packed into one frame payload.
func (t *Transport) dispatchPayload(payload []byte) (err error) {
	defer func() {
		// A handler panic must not take the firmware down; desync so the
		// host retransmits from a clean state.
		if r := recover(); r != nil {
			t.setSynchronized(false)
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler != nil {
			if err := t.handler(uint16(cmdID), &payload); err != nil {
				return err
			}
		}
	}
	return nil
}

// sendAck emits a minimal frame carrying only the expected sequence.
func (t *Transport) sendAck() {
	ns := uint8(atomic.LoadUint32(&t.nextSeq))
	crc := CRC16([]byte{FrameLenMin, ns})

	t.output.Output([]byte{
		FrameLenMin,
		ns,
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		SyncByte,
	})

	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame appends one framed message to the output buffer, fixing up
// the length and CRC after the payload writer has run.
func (t *Transport) EncodeFrame(payload func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	// Responses reuse the current expected sequence; several responses
	// may share one sequence value.
	seq := uint8(atomic.LoadUint32(&t.nextSeq))
	t.output.Output([]byte{0, seq})

	payload(t.output)

	written := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(written+FrameTrailerLen))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		SyncByte,
	})
}

// SendMessage frames a command id plus its arguments.
func (t *Transport) SendMessage(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its initial synchronized state, e.g.
// after a serial reconnect.
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.synchronized, 1)
	atomic.StoreUint32(&t.nextSeq, SeqDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.synchronized) != 0
}

func (t *Transport) setSynchronized(v bool) {
	if v {
		atomic.StoreUint32(&t.synchronized, 1)
	} else {
		atomic.StoreUint32(&t.synchronized, 0)
	}
}
