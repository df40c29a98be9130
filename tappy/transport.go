package tappy

import (
	"context"

	"github.com/TapTrack/tappy-stream/protocol"
)

// TransportEvent is one inbound event from the reader link: a decoded
// message, or the error that replaced one. Exactly one field is set.
type TransportEvent struct {
	Message protocol.Message
	Err     error
}

// Transport is a point-to-point link to a Tappy reader.
//
// Events delivers inbound events in arrival order and is closed when the
// link goes away, including after Close. Close must not block indefinitely.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg protocol.Message) error
	Events() <-chan TransportEvent
	Close() error
	String() string
}
