package tappy

import (
	"context"
	"sync"

	"github.com/TapTrack/tappy-stream/protocol"
)

// MockTransport is a test implementation of Transport that simulates a
// reader link.
//
// Example:
//
//	mock := NewMockTransport()
//	mock.Deliver(basicnfc.NewStreamTags(0, basicnfc.PollingModeGeneral).Message())
//	mock.DeliverError(NewError(KindInvalidFrame, "read", nil))
type MockTransport struct {
	// Name is returned by String()
	Name string

	// ConnectError, if set, will be returned by Connect()
	ConnectError error

	// ConnectFunc allows custom connect behaviour; it overrides ConnectError
	ConnectFunc func(ctx context.Context) error

	// SendError, if set, will be returned by Send()
	SendError error

	// CloseError, if set, will be returned by Close()
	CloseError error

	// CallLog tracks all method calls for verification in tests
	CallLog []string

	sent      []protocol.Message
	events    chan TransportEvent
	hungUp    bool
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewMockTransport creates a MockTransport with room for 64 undelivered events.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Name:    "mock:tappy",
		CallLog: make([]string, 0),
		events:  make(chan TransportEvent, 64),
	}
}

// Connect simulates opening the link.
func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, "Connect")
	fn, err := m.ConnectFunc, m.ConnectError
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return err
}

// Send records msg.
func (m *MockTransport) Send(ctx context.Context, msg protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "Send")
	if m.SendError != nil {
		return m.SendError
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Events returns the simulated inbound channel.
func (m *MockTransport) Events() <-chan TransportEvent {
	return m.events
}

// Close simulates closing the link; the events channel is closed once.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, "Close")
	err := m.CloseError
	m.mu.Unlock()

	m.hangup()
	return err
}

func (m *MockTransport) String() string {
	return m.Name
}

// Deliver queues an inbound message. It is dropped once the link is gone.
func (m *MockTransport) Deliver(msg protocol.Message) {
	m.push(TransportEvent{Message: msg})
}

// DeliverError queues an inbound error. It is dropped once the link is gone.
func (m *MockTransport) DeliverError(err error) {
	m.push(TransportEvent{Err: err})
}

// Hangup simulates the reader going away without Close being called.
func (m *MockTransport) Hangup() {
	m.hangup()
}

// Sent returns the messages passed to Send.
func (m *MockTransport) Sent() []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.Message(nil), m.sent...)
}

// Calls counts how many times method was invoked.
func (m *MockTransport) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.CallLog {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockTransport) push(ev TransportEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hungUp {
		m.events <- ev
	}
}

func (m *MockTransport) hangup() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.hungUp = true
		close(m.events)
		m.mu.Unlock()
	})
}
