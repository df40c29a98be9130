// Package protocol implements the Tappy wire format: TCMP packets carried in
// HDLC-style frames.
// This package is designed to be importable without pulling in transport dependencies.
package protocol

import "fmt"

// Family identifies a TCMP command family.
type Family [2]byte

// Known command families.
var (
	FamilySystem   = Family{0x00, 0x00}
	FamilyBasicNFC = Family{0x00, 0x01}
)

func (f Family) String() string {
	return fmt.Sprintf("%02X%02X", f[0], f[1])
}

// Message is a single decoded TCMP packet.
// The same shape is used for commands sent to the reader and responses
// received from it.
type Message struct {
	Family  Family
	Code    byte
	Payload []byte
}

func (m Message) String() string {
	return fmt.Sprintf("family=%s code=0x%02X payload=%d bytes", m.Family, m.Code, len(m.Payload))
}
