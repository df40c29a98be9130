package protocol

import "fmt"

const (
	// headerLen covers the two length bytes and the length checksum.
	headerLen = 3
	// overheadLen is what the length field counts besides the payload:
	// family (2), command code (1) and CRC (2).
	overheadLen = 5
	// MaxPayload is the largest payload a 16-bit length field can describe.
	MaxPayload = 0xFFFF - overheadLen
)

// lengthChecksum returns the byte that makes hi+lo+lcs == 0 (mod 256).
func lengthChecksum(hi, lo byte) byte {
	return byte(0x100 - (int(hi)+int(lo))&0xFF)
}

// EncodePacket serialises m into a TCMP packet (unframed).
func EncodePacket(m Message) ([]byte, error) {
	if len(m.Payload) > MaxPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(m.Payload), MaxPayload)
	}

	n := overheadLen + len(m.Payload)
	hi, lo := byte(n>>8), byte(n)

	pkt := make([]byte, 0, headerLen+n)
	pkt = append(pkt, hi, lo, lengthChecksum(hi, lo))
	pkt = append(pkt, m.Family[0], m.Family[1], m.Code)
	pkt = append(pkt, m.Payload...)

	crc := crcA(pkt)
	pkt = append(pkt, byte(crc>>8), byte(crc))
	return pkt, nil
}

// DecodePacket parses an unframed TCMP packet.
// Every validation failure wraps ErrInvalidPacket.
func DecodePacket(pkt []byte) (Message, error) {
	if len(pkt) < headerLen+overheadLen {
		return Message{}, fmt.Errorf("%w: %d bytes is too short", ErrInvalidPacket, len(pkt))
	}

	hi, lo, lcs := pkt[0], pkt[1], pkt[2]
	if lengthChecksum(hi, lo) != lcs {
		return Message{}, fmt.Errorf("%w: length checksum mismatch", ErrInvalidPacket)
	}

	n := int(hi)<<8 | int(lo)
	if n != len(pkt)-headerLen {
		return Message{}, fmt.Errorf("%w: length field %d, got %d bytes", ErrInvalidPacket, n, len(pkt)-headerLen)
	}

	body := pkt[:len(pkt)-2]
	want := crcA(body)
	got := uint16(pkt[len(pkt)-2])<<8 | uint16(pkt[len(pkt)-1])
	if want != got {
		return Message{}, fmt.Errorf("%w: crc 0x%04X, expected 0x%04X", ErrInvalidPacket, got, want)
	}

	payload := make([]byte, len(body)-headerLen-3)
	copy(payload, body[headerLen+3:])
	return Message{
		Family:  Family{pkt[3], pkt[4]},
		Code:    pkt[5],
		Payload: payload,
	}, nil
}
