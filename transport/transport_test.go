package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/protocol/basicnfc"
	"github.com/TapTrack/tappy-stream/tappy"
)

var (
	tagFoundMsg = protocol.Message{
		Family:  protocol.FamilyBasicNFC,
		Code:    basicnfc.CodeTagFound,
		Payload: []byte{0x07, 0x04, 0xA2, 0xFE, 0x01},
	}
	scanTimeoutMsg = protocol.Message{Family: protocol.FamilyBasicNFC, Code: basicnfc.CodeScanTimeout}
)

func mustFrame(t *testing.T, msg protocol.Message) []byte {
	t.Helper()
	frame, err := protocol.EncodeFrame(msg)
	require.NoError(t, err)
	return frame
}

func nextEvent(t *testing.T, events <-chan tappy.TransportEvent) tappy.TransportEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "events channel closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return tappy.TransportEvent{}
	}
}

// drain reads until the channel closes and returns what was left.
func drain(t *testing.T, events <-chan tappy.TransportEvent) []tappy.TransportEvent {
	t.Helper()
	var rest []tappy.TransportEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return rest
			}
			rest = append(rest, ev)
		case <-timeout:
			t.Fatal("events channel was never closed")
			return nil
		}
	}
}
