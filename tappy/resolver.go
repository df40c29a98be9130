package tappy

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/protocol/basicnfc"
	"github.com/TapTrack/tappy-stream/protocol/system"
)

// Event is what an inbound message means to a streaming session: one of
// TagFound, ScanTimeout or UnexpectedResponse.
type Event interface {
	event()
}

// TagFound reports a tag seen by the reader.
type TagFound struct {
	TagType int
	TagCode []byte
}

// ScanTimeout reports that the scan period requested by the command ended.
type ScanTimeout struct{}

// UnexpectedResponse is any message a streaming session has no use for.
type UnexpectedResponse struct {
	Reason string
}

func (TagFound) event()           {}
func (ScanTimeout) event()        {}
func (UnexpectedResponse) event() {}

// Decoder recognises and decodes the messages of one command family.
// ResolveResponse returns (nil, nil) for a code the family does not define.
type Decoder interface {
	Name() string
	CheckFamily(msg protocol.Message) bool
	ResolveResponse(msg protocol.Message) (any, error)
}

// Resolver tries its decoders in order and stops at the first one whose
// family matches.
type Resolver struct {
	decoders []Decoder
}

// NewResolver creates a resolver trying decoders in the given order.
func NewResolver(decoders ...Decoder) *Resolver {
	return &Resolver{decoders: decoders}
}

// DefaultResolver tries the Basic NFC family, then the System family.
func DefaultResolver() *Resolver {
	return NewResolver(basicnfc.NewResolver(), system.NewResolver())
}

// Resolve classifies msg.
func (r *Resolver) Resolve(msg protocol.Message) Event {
	for _, d := range r.decoders {
		if !d.CheckFamily(msg) {
			continue
		}
		resp, err := d.ResolveResponse(msg)
		if err != nil {
			return UnexpectedResponse{Reason: fmt.Sprintf("%s: %v", d.Name(), err)}
		}
		return fromResponse(d.Name(), msg, resp)
	}
	return UnexpectedResponse{Reason: fmt.Sprintf("unrecognised command family %s", msg.Family)}
}

func fromResponse(family string, msg protocol.Message, resp any) Event {
	switch v := resp.(type) {
	case *basicnfc.TagFound:
		return TagFound{TagType: v.TagType, TagCode: v.TagCode}
	case *basicnfc.ScanTimeout:
		return ScanTimeout{}
	case nil:
		return UnexpectedResponse{Reason: fmt.Sprintf("%s: unknown response code 0x%02X", family, msg.Code)}
	case error:
		return UnexpectedResponse{Reason: fmt.Sprintf("%s: %v", family, v)}
	case fmt.Stringer:
		return UnexpectedResponse{Reason: fmt.Sprintf("%s: %s", family, v)}
	default:
		return UnexpectedResponse{Reason: fmt.Sprintf("%s: %T", family, v)}
	}
}

// FormatTagCode renders a tag code as upper-case hex without separators.
func FormatTagCode(code []byte) string {
	return strings.ToUpper(hex.EncodeToString(code))
}
