package basicnfc

import (
	"fmt"

	"github.com/TapTrack/tappy-stream/protocol"
)

// Resolver decodes responses of the Basic NFC family.
type Resolver struct{}

// NewResolver creates a Basic NFC resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Name identifies the family in diagnostics.
func (r *Resolver) Name() string {
	return "basic nfc"
}

// CheckFamily reports whether msg belongs to the Basic NFC family.
func (r *Resolver) CheckFamily(msg protocol.Message) bool {
	return msg.Family == protocol.FamilyBasicNFC
}

// ResolveResponse decodes msg into one of the family's response types.
// It returns (nil, nil) for a response code the family does not define.
func (r *Resolver) ResolveResponse(msg protocol.Message) (any, error) {
	p := msg.Payload
	switch msg.Code {
	case CodeTagFound:
		if len(p) < 2 {
			return nil, fmt.Errorf("tag found: payload of %d bytes is too short", len(p))
		}
		return &TagFound{TagType: int(p[0]), TagCode: clone(p[1:])}, nil

	case CodeNdefFound:
		// [tagType, uidLength, uid..., ndef...]
		if len(p) < 2 || len(p) < 2+int(p[1]) {
			return nil, fmt.Errorf("ndef found: malformed payload of %d bytes", len(p))
		}
		n := int(p[1])
		return &NdefFound{
			TagType: int(p[0]),
			TagCode: clone(p[2 : 2+n]),
			Message: clone(p[2+n:]),
		}, nil

	case CodeScanTimeout:
		return &ScanTimeout{}, nil

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

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
