package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ResponseHandler is invoked for every response frame the MCU sends. The
// handler consumes its own arguments from data.
type ResponseHandler func(cmdID uint16, data *[]byte) error

// ErrClosed is returned from waits after the transport has been closed.
var ErrClosed = errors.New("transport closed")

// HostTransport is the host side of the link: it frames and sends
// commands, waits for the matching ACK, and routes response frames to a
// handler and a channel for synchronous retrieval. A background goroutine
// owns all reads from the port.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq   uint32 // atomic; sequence of the in-flight command
	synchronized uint32 // atomic bool

	input *FifoBuffer

	ackChan      chan *Frame
	responseChan chan *Frame

	responseHandler ResponseHandler

	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		currentSeq:   SeqDest,
		synchronized: 1,
		input:        NewFifoBuffer(512),
		ackChan:      make(chan *Frame, 1),
		responseChan: make(chan *Frame, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// SendCommand frames and sends one command, then blocks until the MCU
// acknowledges it or the default timeout expires.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	msg, err := t.buildFrame(cmdID, args)
	if err != nil {
		return fmt.Errorf("building command frame: %w", err)
	}

	if err := t.write(msg); err != nil {
		return fmt.Errorf("writing command frame: %w", err)
	}

	if err := t.waitForAck(timeout); err != nil {
		return fmt.Errorf("waiting for ACK: %w", err)
	}

	return nil
}

func (t *HostTransport) buildFrame(cmdID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}
	payload := scratch.Result()

	frameLen := FrameHeaderLen + len(payload) + FrameTrailerLen
	if frameLen > FrameLenMax {
		return nil, fmt.Errorf("frame too long: %d bytes (max %d)", frameLen, FrameLenMax)
	}

	seq := uint8(atomic.LoadUint32(&t.currentSeq))

	frame := make([]byte, 0, frameLen)
	frame = append(frame, uint8(frameLen), seq)
	frame = append(frame, payload...)

	crc := CRC16(frame)
	frame = append(frame, uint8(crc>>8), uint8(crc&0xFF), SyncByte)

	return frame, nil
}

func (t *HostTransport) write(msg []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(msg))
	}
	return nil
}

func (t *HostTransport) waitForAck(timeout time.Duration) error {
	select {
	case ack := <-t.ackChan:
		// The ACK carries the sequence the MCU expects next; one past
		// the frame we sent means it was accepted.
		sent := uint8(atomic.LoadUint32(&t.currentSeq))
		next := ((sent + 1) & SeqMask) | SeqDest
		if ack.Sequence != next {
			return fmt.Errorf("sequence mismatch: want %#02x, got %#02x", next, ack.Sequence)
		}

		atomic.StoreUint32(&t.currentSeq, uint32(next))
		return nil

	case <-time.After(timeout):
		return fmt.Errorf("no ACK within %v", timeout)

	case <-t.stopChan:
		return ErrClosed
	}
}

// ReceiveResponse blocks for the next response frame.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Frame, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("no response within %v", timeout)

	case <-t.stopChan:
		return nil, ErrClosed
	}
}

// SetResponseHandler installs an asynchronous response callback. It runs
// on the reader goroutine.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.responseHandler = handler
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		t.input.Write(buf[:n])
		t.parseFrames()
	}
}

// parseFrames runs the same framing state machine as the MCU side, but
// hands complete frames to dispatch instead of a command registry.
func (t *HostTransport) parseFrames() {
	data := t.input.Data()

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

		payload := make([]byte, frameLen-FrameHeaderLen-FrameTrailerLen)
		copy(payload, data[FrameHeaderLen:frameLen-FrameTrailerLen])

		frame := &Frame{
			Sequence: data[framePosSeq],
			Payload:  payload,
			CRC:      wireCRC,
		}

		data = data[frameLen:]
		t.dispatch(frame)
	}

	consumed := t.input.Available() - len(data)
	if consumed > 0 {
		t.input.Pop(consumed)
	}
}

func (t *HostTransport) dispatch(frame *Frame) {
	// An empty payload is an ACK/NAK.
	if len(frame.Payload) == 0 {
		select {
		case t.ackChan <- frame:
		default:
		}
		return
	}

	if t.responseHandler != nil {
		payload := make([]byte, len(frame.Payload))
		copy(payload, frame.Payload)
		if cmdID, err := DecodeVLQUint(&payload); err == nil {
			_ = t.responseHandler(uint16(cmdID), &payload)
		}
	}

	select {
	case t.responseChan <- frame:
	default:
		// Channel full: drop the oldest response to keep the link moving.
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- frame
	}
}

// Close stops the reader goroutine and closes the port. The port is
// closed first so a reader blocked in Read wakes up and exits.
func (t *HostTransport) Close() error {
	close(t.stopChan)

	var err error
	if t.port != nil {
		err = t.port.Close()
	}

	<-t.doneChan
	return err
}

// Reset returns the transport to a clean synchronized state, discarding
// anything buffered or queued.
func (t *HostTransport) Reset() {
	atomic.StoreUint32(&t.synchronized, 1)
	atomic.StoreUint32(&t.currentSeq, SeqDest)

	for len(t.ackChan) > 0 {
		<-t.ackChan
	}
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}
	if t.input.Available() > 0 {
		t.input.Pop(t.input.Available())
	}
}

func (t *HostTransport) getSynchronized() bool {
	return atomic.LoadUint32(&t.synchronized) != 0
}

func (t *HostTransport) setSynchronized(v bool) {
	if v {
		atomic.StoreUint32(&t.synchronized, 1)
	} else {
		atomic.StoreUint32(&t.synchronized, 0)
	}
}
