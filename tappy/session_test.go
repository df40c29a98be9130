package tappy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/protocol/basicnfc"
	"github.com/TapTrack/tappy-stream/protocol/system"
)

// syncBuffer lets the test read output the session goroutine is writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimRight(b.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type recordingObserver struct {
	mu         sync.Mutex
	tags       int
	described  int
	errors     map[ErrorKind]int
	unexpected int
	ended      []int
}

func (o *recordingObserver) TagScanned(described bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tags++
	if described {
		o.described++
	}
}

func (o *recordingObserver) TransportError(kind ErrorKind, fatal bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.errors == nil {
		o.errors = make(map[ErrorKind]int)
	}
	o.errors[kind]++
}

func (o *recordingObserver) UnexpectedResponse() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unexpected++
}

func (o *recordingObserver) SessionEnded(code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended = append(o.ended, code)
}

type harness struct {
	mock     *MockTransport
	session  *Session
	stdout   *syncBuffer
	stderr   *syncBuffer
	observer *recordingObserver
}

func newHarness(tagTypes TagTypeResolver) *harness {
	h := &harness{
		mock:     NewMockTransport(),
		stdout:   &syncBuffer{},
		stderr:   &syncBuffer{},
		observer: &recordingObserver{},
	}
	h.session = NewSession(SessionConfig{
		Transport: h.mock,
		TagTypes:  tagTypes,
		Observer:  h.observer,
		Stdout:    h.stdout,
		Stderr:    h.stderr,
	})
	return h
}

func tagFound(tagType byte, uid ...byte) protocol.Message {
	return protocol.Message{
		Family:  protocol.FamilyBasicNFC,
		Code:    basicnfc.CodeTagFound,
		Payload: append([]byte{tagType}, uid...),
	}
}

func scanTimeout() protocol.Message {
	return protocol.Message{Family: protocol.FamilyBasicNFC, Code: basicnfc.CodeScanTimeout}
}

var uid = []byte{0x04, 0xA2, 0xFE, 0x01}

func TestSession_TagWithDescription(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(TagTypeTable{TagTypeMifareUltralight: "MIFARE Ultralight"})
	h.mock.Deliver(tagFound(TagTypeMifareUltralight, uid...))
	h.mock.Deliver(scanTimeout())

	code := h.session.Run(context.Background(), NewCommand(5))

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{
		"Tappy connected!",
		"UID: 04A2FE01, Tag Description: MIFARE Ultralight",
		"Timeout reached",
	}, h.stdout.Lines())
	assert.Empty(t, h.stderr.Lines())
	assert.Equal(t, 1, h.observer.described)
}

func TestSession_TagWithoutDescription(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(TagTypeTable{})
	h.mock.Deliver(tagFound(TagTypeMifareUltralight, uid...))
	h.mock.Deliver(scanTimeout())

	require.Equal(t, ExitSuccess, h.session.Run(context.Background(), NewCommand(5)))
	assert.Equal(t, "UID: 04A2FE01", h.stdout.Lines()[1])
	assert.Equal(t, 1, h.observer.tags)
	assert.Zero(t, h.observer.described)
}

func TestSession_ScanTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.Deliver(scanTimeout())

	code := h.session.Run(context.Background(), NewCommand(10))

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Tappy connected!", "Timeout reached"}, h.stdout.Lines())
	assert.Equal(t, 1, h.mock.Calls("Close"))
	assert.Equal(t, StateTerminated, h.session.State())
	assert.Equal(t, ExitSuccess, h.session.ExitCode())
	assert.Equal(t, []int{ExitSuccess}, h.observer.ended)

	sent := h.mock.Sent()
	require.Len(t, sent, 1, "exactly one command per session")
	assert.Equal(t, basicnfc.NewStreamTags(10, basicnfc.PollingModeGeneral).Message(), sent[0])
}

func TestSession_ConnectionErrorMidStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.Deliver(tagFound(TagTypeNtag213, uid...))
	h.mock.DeliverError(NewError(KindConnectionError, "read", io.ErrUnexpectedEOF))
	h.mock.Deliver(scanTimeout())

	code := h.session.Run(context.Background(), NewCommand(0))

	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, []string{"Connection error"}, h.stderr.Lines())
	assert.Equal(t, 1, h.mock.Calls("Close"))
	assert.NotContains(t, h.stdout.Lines(), "Timeout reached", "no events after termination")
}

func TestSession_ConnectFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.ConnectError = errors.New("open /dev/ttyUSB9: no such file or directory")

	code := h.session.Run(context.Background(), NewCommand(0))

	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, []string{"Connection error"}, h.stderr.Lines())
	assert.Empty(t, h.stdout.Lines())
	assert.Zero(t, h.mock.Calls("Close"), "never connected, nothing to disconnect")
	assert.Zero(t, h.mock.Calls("Send"))
	assert.Equal(t, StateTerminated, h.session.State())
}

func TestSession_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantDiag string
	}{
		{"not connected", NewError(KindNotConnected, "read", nil), ExitFailure, "Device not connected"},
		{"connection error", NewError(KindConnectionError, "read", nil), ExitFailure, "Connection error"},
		{"invalid frame", protocol.ErrInvalidFrame, ExitSuccess, "Received invalid frame"},
		{"invalid packet", protocol.ErrInvalidPacket, ExitSuccess, "Received invalid packet"},
		{"unknown", errors.New("cosmic ray"), ExitFailure, "Unknown error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

			h := newHarness(nil)
			h.mock.DeliverError(tt.err)
			h.mock.Deliver(scanTimeout())

			code := h.session.Run(context.Background(), NewCommand(1))

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, []string{tt.wantDiag}, h.stderr.Lines())
			assert.Equal(t, 1, h.mock.Calls("Close"), "graceful disconnect on every path")
		})
	}
}

func TestSession_FramingErrorsKeepStreaming(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.DeliverError(NewError(KindInvalidFrame, "read", nil))
	h.mock.Deliver(tagFound(TagTypeMifareClassic1K, 0xDE, 0xAD, 0xBE, 0xEF))
	h.mock.DeliverError(NewError(KindInvalidPacket, "read", nil))
	h.mock.Deliver(scanTimeout())

	code := h.session.Run(context.Background(), NewCommand(3))

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Received invalid frame", "Received invalid packet"}, h.stderr.Lines())
	assert.Contains(t, h.stdout.Lines(), "UID: DEADBEEF, Tag Description: MIFARE Classic 1K")
	assert.Equal(t, 1, h.observer.errors[KindInvalidFrame])
	assert.Equal(t, 1, h.observer.errors[KindInvalidPacket])
}

func TestSession_UnexpectedResponses(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.Message
	}{
		{"system ping", protocol.Message{Family: protocol.FamilySystem, Code: system.CodePing}},
		{"system crc mismatch", protocol.Message{Family: protocol.FamilySystem, Code: system.CodeCrcMismatch}},
		{"unknown family", protocol.Message{Family: protocol.Family{0x12, 0x34}, Code: 0x01}},
		{"truncated tag found", protocol.Message{Family: protocol.FamilyBasicNFC, Code: basicnfc.CodeTagFound}},
		{"unknown basic nfc code", protocol.Message{Family: protocol.FamilyBasicNFC, Code: 0x66}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

			h := newHarness(nil)
			h.mock.Deliver(tt.msg)
			h.mock.Deliver(scanTimeout())

			code := h.session.Run(context.Background(), NewCommand(0))

			assert.Equal(t, ExitFailure, code)
			lines := h.stderr.Lines()
			require.Len(t, lines, 1)
			assert.True(t, strings.HasPrefix(lines[0], "Unexpected response"), lines[0])
			assert.Equal(t, 1, h.mock.Calls("Close"))
			assert.Equal(t, 1, h.observer.unexpected)
		})
	}
}

func TestSession_IndefiniteStreamStaysStreaming(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() { done <- h.session.Run(ctx, NewCommand(0)) }()

	require.Eventually(t, func() bool {
		return h.session.State() == StateStreaming
	}, time.Second, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		h.mock.Deliver(tagFound(TagTypeNtag215, uid...))
	}
	require.Eventually(t, func() bool {
		return len(h.stdout.Lines()) == 4
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateStreaming, h.session.State(), "no spurious termination")
	assert.Zero(t, h.mock.Calls("Close"))

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, ExitFailure, code)
	case <-time.After(time.Second):
		t.Fatal("session did not stop after cancellation")
	}
	assert.Equal(t, []string{"Interrupted"}, h.stderr.Lines())
	assert.Equal(t, 1, h.mock.Calls("Close"))
}

func TestSession_TransportHangup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.Hangup()

	code := h.session.Run(context.Background(), NewCommand(0))

	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, []string{"Connection error"}, h.stderr.Lines())
	assert.Equal(t, 1, h.mock.Calls("Close"))
}

func TestSession_SendFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(nil)
	h.mock.SendError = errors.New("write: broken pipe")

	code := h.session.Run(context.Background(), NewCommand(0))

	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, []string{"Tappy connected!"}, h.stdout.Lines())
	assert.Equal(t, []string{"Connection error"}, h.stderr.Lines())
	assert.Equal(t, 1, h.mock.Calls("Close"))
	assert.Equal(t, StateTerminated, h.session.State())
}

func TestSession_RunOnlyOnce(t *testing.T) {
	h := newHarness(nil)
	h.mock.Deliver(scanTimeout())

	require.Equal(t, ExitSuccess, h.session.Run(context.Background(), NewCommand(1)))
	assert.Equal(t, ExitFailure, h.session.Run(context.Background(), NewCommand(1)))
	assert.Equal(t, 1, h.mock.Calls("Connect"))
}

func TestSession_InvalidCommand(t *testing.T) {
	h := newHarness(nil)

	code := h.session.Run(context.Background(), NewCommand(MaxTimeoutSeconds+1))

	assert.Equal(t, ExitFailure, code)
	assert.Zero(t, h.mock.Calls("Connect"))
	assert.Equal(t, StateDisconnected, h.session.State())
}

func TestSession_ID(t *testing.T) {
	a := newHarness(nil).session
	b := newHarness(nil).session
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
