// Package basicnfc implements the Tappy Basic NFC command family: the
// commands that make the reader scan for tags and the responses it sends back.
package basicnfc

import (
	"github.com/TapTrack/tappy-stream/protocol"
)

// Command codes.
const (
	CodeStop       byte = 0x00
	CodeStreamTags byte = 0x01
	CodeScanTag    byte = 0x02
)

// Response codes.
const (
	CodeTagFound         byte = 0x01
	CodeNdefFound        byte = 0x02
	CodeScanTimeout      byte = 0x03
	CodeApplicationError byte = 0x7F
)

// PollingMode selects which tag technologies the reader polls for.
type PollingMode byte

const (
	// PollingModeGeneral polls for every supported technology except Type 1.
	PollingModeGeneral PollingMode = 0x01
	// PollingModeType1 polls for Type 1 (Topaz) tags only.
	PollingModeType1 PollingMode = 0x02
)

func (p PollingMode) String() string {
	switch p {
	case PollingModeGeneral:
		return "general"
	case PollingModeType1:
		return "type1"
	default:
		return "unknown"
	}
}

// StreamTags asks the reader to report every tag it sees until Timeout
// seconds pass. A zero Timeout streams indefinitely.
type StreamTags struct {
	Timeout     uint8
	PollingMode PollingMode
}

// NewStreamTags creates a stream tags command.
func NewStreamTags(timeout uint8, mode PollingMode) StreamTags {
	return StreamTags{Timeout: timeout, PollingMode: mode}
}

// Message encodes the command as a TCMP message.
func (c StreamTags) Message() protocol.Message {
	return protocol.Message{
		Family:  protocol.FamilyBasicNFC,
		Code:    CodeStreamTags,
		Payload: []byte{c.Timeout, byte(c.PollingMode)},
	}
}

// Stop cancels whatever scan the reader is running.
type Stop struct{}

// Message encodes the command as a TCMP message.
func (Stop) Message() protocol.Message {
	return protocol.Message{Family: protocol.FamilyBasicNFC, Code: CodeStop}
}
