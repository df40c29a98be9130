// Package system implements the response side of the Tappy System command
// family: liveness, version reports and the reader's complaints about
// packets it could not accept.
package system

import (
	"fmt"

	"github.com/TapTrack/tappy-stream/protocol"
)

// Response codes.
const (
	CodeImproperMessageFormat byte = 0x01
	CodeLcsMismatch           byte = 0x02
	CodeCrcMismatch           byte = 0x03
	CodeLengthMismatch        byte = 0x04
	CodeHardwareVersion       byte = 0x05
	CodeFirmwareVersion       byte = 0x06
	CodePing                  byte = 0xFD
	CodeApplicationError      byte = 0x7F
)

// Ping is the reply to a ping command.
type Ping struct{}

func (*Ping) String() string {
	return "ping"
}

// Version is a hardware or firmware version report.
type Version struct {
	Hardware bool
	Major    byte
	Minor    byte
}

func (v *Version) String() string {
	kind := "firmware"
	if v.Hardware {
		kind = "hardware"
	}
	return fmt.Sprintf("%s %d.%d", kind, v.Major, v.Minor)
}

// Rejection is sent when the reader discarded a packet the host sent.
type Rejection struct {
	Code byte
}

func (r *Rejection) Error() string {
	switch r.Code {
	case CodeImproperMessageFormat:
		return "improper message format"
	case CodeLcsMismatch:
		return "LCS mismatch"
	case CodeCrcMismatch:
		return "CRC mismatch"
	case CodeLengthMismatch:
		return "length mismatch"
	}
	return fmt.Sprintf("rejection 0x%02X", r.Code)
}

// ApplicationError is the family's error report.
type ApplicationError struct {
	ErrorCode         byte
	InternalErrorCode byte
	ReaderStatus      byte
	Message           string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("system application error 0x%02X (internal 0x%02X, reader status 0x%02X): %s",
			e.ErrorCode, e.InternalErrorCode, e.ReaderStatus, e.Message)
	}
	return fmt.Sprintf("system application error 0x%02X (internal 0x%02X, reader status 0x%02X)",
		e.ErrorCode, e.InternalErrorCode, e.ReaderStatus)
}

// Resolver decodes responses of the System family.
type Resolver struct{}

// NewResolver creates a System family resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Name identifies the family in diagnostics.
func (r *Resolver) Name() string {
	return "system"
}

// CheckFamily reports whether msg belongs to the System family.
func (r *Resolver) CheckFamily(msg protocol.Message) bool {
	return msg.Family == protocol.FamilySystem
}

// ResolveResponse decodes msg; it returns (nil, nil) for codes the family
// does not define.
func (r *Resolver) ResolveResponse(msg protocol.Message) (any, error) {
	p := msg.Payload
	switch msg.Code {
	case CodePing:
		return &Ping{}, nil
	case CodeHardwareVersion, CodeFirmwareVersion:
		if len(p) < 2 {
			return nil, fmt.Errorf("version: payload of %d bytes is too short", len(p))
		}
		return &Version{Hardware: msg.Code == CodeHardwareVersion, Major: p[0], Minor: p[1]}, nil
	case CodeImproperMessageFormat, CodeLcsMismatch, CodeCrcMismatch, CodeLengthMismatch:
		return &Rejection{Code: msg.Code}, nil
	case CodeApplicationError:
		if len(p) < 3 {
			return nil, fmt.Errorf("application error: payload of %d bytes is too short", len(p))
		}
		return &ApplicationError{
			ErrorCode:         p[0],
			InternalErrorCode: p[1],
			ReaderStatus:      p[2],
			Message:           string(p[3:]),
		}, nil
	}
	return nil, nil
}
