// Package protocol implements the pinio serial link: length/sequence
// framed messages carrying VLQ-encoded command arguments, protected by a
// CRC16 trailer and a sync byte. The same frame format runs in both
// directions; the MCU side lives in Transport, the host side in
// HostTransport.
package protocol

// Frame layout:
//
//	[0] length (whole frame, trailer included)
//	[1] sequence, high nibble fixed to SeqDest
//	[2..] payload: VLQ command id followed by VLQ arguments
//	[n-3] CRC16 high, [n-2] CRC16 low, [n-1] sync byte
const (
	FrameHeaderLen  = 2
	FrameTrailerLen = 3
	FrameLenMin     = FrameHeaderLen + FrameTrailerLen
	FrameLenMax     = 64

	framePosLen     = 0
	framePosSeq     = 1
	frameTrailerCRC = 3
	trailerSyncLen  = 1

	// SyncByte terminates every frame and is the resynchronization marker
	// after corruption.
	SyncByte = 0x7E

	// SeqDest is the fixed high nibble of the sequence byte; SeqMask
	// selects the rolling low nibble.
	SeqDest = 0x10
	SeqMask = 0x0F
)

// OutputMax sizes the MCU-side output buffer. Large enough to hold
// several frames queued between flushes.
const OutputMax = 512

// Frame is a parsed inbound frame on the host side.
type Frame struct {
	Sequence uint8
	Payload  []byte
	CRC      uint16
}
