package protocol

import "errors"

var (
	// ErrInvalidFrame is returned when HDLC framing is broken, including a
	// frame too long to hold any packet. Empty frames are skipped, not reported.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrInvalidPacket is returned when a frame holds a packet whose length,
	// length checksum or CRC does not check out.
	ErrInvalidPacket = errors.New("invalid packet")
)
